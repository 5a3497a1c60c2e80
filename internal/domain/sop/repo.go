package sop

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("sop not found")
	ErrStepNotFound = errors.New("sop step not found")
)

type Repository interface {
	Create(ctx context.Context, s *SOP) error
	AddSteps(ctx context.Context, steps []*Step) error
	GetByID(ctx context.Context, id uuid.UUID) (*SOP, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*SOP, error)
	GetSteps(ctx context.Context, sopID uuid.UUID) ([]*Step, error)
	GetPatientSummary(ctx context.Context, patientID uuid.UUID) (*PatientSummary, error)
	UpdateStep(ctx context.Context, stepID uuid.UUID, patch StepPatch) (*Step, error)
	DeleteStep(ctx context.Context, stepID uuid.UUID) error
	SetStepCompletion(ctx context.Context, stepID uuid.UUID, completed bool, completedAt *time.Time) (*Step, error)
	RejectStep(ctx context.Context, stepID uuid.UUID) (*Step, error)
}
