package transfusion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// StatusPatch is the set of fields a guarded lifecycle write may change.
// Nil pointers leave the column untouched; PauseDeltaMs is added to the
// cumulative pause duration server-side so retries cannot double-apply a
// stale in-memory value.
type StatusPatch struct {
	Status        Status
	PausedAt      *time.Time
	ClearPausedAt bool
	PauseDeltaMs  int64
	ExpectedEnd   *time.Time
	ActualEnd     *time.Time
	Notes         *string
	Complications *string
}

// Repository is the storage boundary for transfusions and their
// append-only history.
type Repository interface {
	Create(ctx context.Context, t *Transfusion) error

	// GetByID returns the transfusion only when owned by caregiverID;
	// absence and foreign ownership both yield ErrNotFound.
	GetByID(ctx context.Context, id, caregiverID uuid.UUID) (*Transfusion, error)

	// UpdateStatus applies patch with a conditional write matched on
	// (id, caregiver, expected current status). When no row matches,
	// typically because a concurrent caller moved the status first, it
	// returns ErrInvalidTransition.
	UpdateStatus(ctx context.Context, id, caregiverID uuid.UUID, from []Status, patch StatusPatch) (*Transfusion, error)

	ListActive(ctx context.Context, caregiverID uuid.UUID) ([]*Transfusion, error)
	ListHistory(ctx context.Context, caregiverID uuid.UUID, limit, offset int) ([]*Transfusion, int, error)

	AddProgress(ctx context.Context, p *ProgressSnapshot) error
	AddNote(ctx context.Context, n *Note) error
	AddAlert(ctx context.Context, a *Alert) error

	// GetTimeline returns the full history for a transfusion, each kind
	// ordered by creation time ascending.
	GetTimeline(ctx context.Context, transfusionID uuid.UUID) (*Timeline, error)
}
