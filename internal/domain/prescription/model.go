package prescription

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const StatusActive = "active"

// Prescription maps to the prescription table. Analysis is the structured
// result returned by the AI analyzer, stored as-is.
type Prescription struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	UserID       uuid.UUID       `db:"user_id" json:"user_id"`
	MedicineText string          `db:"medicine_text" json:"medicine_text"`
	Analysis     json.RawMessage `db:"analysis" json:"analysis"`
	Status       string          `db:"status" json:"status"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}
