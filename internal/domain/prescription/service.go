package prescription

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/cura/cura/internal/platform/ai"
)

type Service struct {
	repo     Repository
	analyzer ai.Analyzer
	log      zerolog.Logger
}

func NewService(repo Repository, analyzer ai.Analyzer, log zerolog.Logger) *Service {
	return &Service{repo: repo, analyzer: analyzer, log: log}
}

// AnalyzeInput carries the analyze request. UserID is optional; when set the
// analysis is persisted for later retrieval.
type AnalyzeInput struct {
	UserID       *uuid.UUID `json:"user_id,omitempty"`
	MedicineText string     `json:"medicine_text"`
}

// AnalyzeResult is the analyzer output plus the stored record id, when any.
type AnalyzeResult struct {
	Analysis       json.RawMessage `json:"analysis"`
	PrescriptionID *uuid.UUID      `json:"prescription_id,omitempty"`
}

// Analyze runs the medicine text through the analyzer. Persistence is
// best-effort: a failed insert is logged and the analysis still returned.
func (s *Service) Analyze(ctx context.Context, in AnalyzeInput) (*AnalyzeResult, error) {
	if in.MedicineText == "" {
		return nil, fmt.Errorf("medicine text is required")
	}

	analysis, err := s.analyzer.AnalyzePrescription(ctx, in.MedicineText)
	if err != nil {
		return nil, fmt.Errorf("analyze prescription: %w", err)
	}

	result := &AnalyzeResult{Analysis: analysis}
	if in.UserID != nil {
		p := &Prescription{
			UserID:       *in.UserID,
			MedicineText: in.MedicineText,
			Analysis:     analysis,
			Status:       StatusActive,
		}
		if err := s.repo.Create(ctx, p); err != nil {
			s.log.Warn().Err(err).Str("user_id", in.UserID.String()).Msg("failed to save prescription")
		} else {
			result.PrescriptionID = &p.ID
		}
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Prescription, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.ListByUser(ctx, userID, limit)
}
