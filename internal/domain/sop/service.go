package sop

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StepInput is one plan step supplied at SOP creation.
type StepInput struct {
	StepOrder       int    `json:"step_order"`
	TimeLabel       string `json:"time_label"`
	TaskTitle       string `json:"task_title"`
	TaskDescription string `json:"task_description"`
}

// CreateInput carries the SOP creation parameters.
type CreateInput struct {
	UserID      uuid.UUID   `json:"user_id"`
	PatientID   uuid.UUID   `json:"patient_id"`
	Title       string      `json:"title"`
	Description *string     `json:"description,omitempty"`
	RawResponse *string     `json:"raw_response,omitempty"`
	Steps       []StepInput `json:"steps"`
}

// Create inserts the SOP and its steps. Unlike patient medicines, a step
// insert failure fails the whole call since an SOP without steps is useless.
func (s *Service) Create(ctx context.Context, in CreateInput) (*SOP, error) {
	if in.UserID == uuid.Nil || in.PatientID == uuid.Nil || in.Title == "" || len(in.Steps) == 0 {
		return nil, fmt.Errorf("user_id, patient_id, title and steps are required")
	}

	sop := &SOP{
		UserID:      in.UserID,
		PatientID:   in.PatientID,
		Title:       in.Title,
		Description: in.Description,
		RawResponse: in.RawResponse,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, sop); err != nil {
		return nil, err
	}

	steps := make([]*Step, len(in.Steps))
	for i, st := range in.Steps {
		steps[i] = &Step{
			SOPID:           sop.ID,
			StepOrder:       st.StepOrder,
			TimeLabel:       st.TimeLabel,
			TaskTitle:       st.TaskTitle,
			TaskDescription: st.TaskDescription,
		}
	}
	if err := s.repo.AddSteps(ctx, steps); err != nil {
		return nil, fmt.Errorf("create sop steps: %w", err)
	}
	sop.Steps = steps
	return sop, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*SOP, error) {
	sop, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	steps, err := s.repo.GetSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	sop.Steps = steps

	patient, err := s.repo.GetPatientSummary(ctx, sop.PatientID)
	if err != nil {
		return nil, err
	}
	sop.Patient = patient
	return sop, nil
}

func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]*SOP, error) {
	sops, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sop := range sops {
		steps, err := s.repo.GetSteps(ctx, sop.ID)
		if err != nil {
			return nil, err
		}
		sop.Steps = steps
	}
	return sops, nil
}

func (s *Service) UpdateStep(ctx context.Context, stepID uuid.UUID, patch StepPatch) (*Step, error) {
	return s.repo.UpdateStep(ctx, stepID, patch)
}

func (s *Service) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
	return s.repo.DeleteStep(ctx, stepID)
}

// CompleteStep marks or unmarks a step as done. completed_at is set when
// marking and cleared when unmarking.
func (s *Service) CompleteStep(ctx context.Context, stepID uuid.UUID, completed bool) (*Step, error) {
	var completedAt *time.Time
	if completed {
		now := time.Now().UTC()
		completedAt = &now
	}
	return s.repo.SetStepCompletion(ctx, stepID, completed, completedAt)
}

// RejectStep bumps the step's rejection counter and reopens it.
func (s *Service) RejectStep(ctx context.Context, stepID uuid.UUID) (*Step, error) {
	return s.repo.RejectStep(ctx, stepID)
}
