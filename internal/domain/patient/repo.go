package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	AddMedicines(ctx context.Context, meds []*Medicine) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*Patient, error)
	GetMedicines(ctx context.Context, patientID uuid.UUID) ([]*Medicine, error)
}
