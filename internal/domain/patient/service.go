package patient

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// MedicineInput is one medicine attached at patient creation.
type MedicineInput struct {
	MedicineName string  `json:"medicine_name"`
	PhotoURL     *string `json:"photo_url,omitempty"`
}

// CreateInput carries the patient creation parameters.
type CreateInput struct {
	UserID           uuid.UUID       `json:"user_id"`
	Name             string          `json:"name"`
	Age              int             `json:"age"`
	DiseaseCondition string          `json:"disease_condition"`
	Medicines        []MedicineInput `json:"medicines,omitempty"`
}

// Create inserts the patient and any supplied medicines. A medicine insert
// failure does not roll back the created patient.
func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	if in.UserID == uuid.Nil || in.Name == "" || in.Age <= 0 || in.DiseaseCondition == "" {
		return nil, fmt.Errorf("user_id, name, age and disease_condition are required")
	}

	p := &Patient{
		UserID:           in.UserID,
		Name:             in.Name,
		Age:              in.Age,
		DiseaseCondition: in.DiseaseCondition,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	if len(in.Medicines) > 0 {
		meds := make([]*Medicine, len(in.Medicines))
		for i, m := range in.Medicines {
			meds[i] = &Medicine{
				PatientID:    p.ID,
				MedicineName: m.MedicineName,
				PhotoURL:     m.PhotoURL,
			}
		}
		if err := s.repo.AddMedicines(ctx, meds); err != nil {
			s.log.Warn().Err(err).Str("patient_id", p.ID.String()).Msg("failed to add patient medicines")
		} else {
			p.Medicines = meds
		}
	}

	return p, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	meds, err := s.repo.GetMedicines(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Medicines = meds
	return p, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Patient, error) {
	return s.repo.ListByUser(ctx, userID)
}
