package prescription

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("prescription not found")

type Repository interface {
	Create(ctx context.Context, p *Prescription) error
	GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Prescription, error)
}
