package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table.
type Patient struct {
	ID               uuid.UUID `db:"id" json:"id"`
	UserID           uuid.UUID `db:"user_id" json:"user_id"`
	Name             string    `db:"name" json:"name"`
	Age              int       `db:"age" json:"age"`
	DiseaseCondition string    `db:"disease_condition" json:"disease_condition"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`

	Medicines []*Medicine `db:"-" json:"medicines,omitempty"`
}

// Medicine maps to the patient_medicine table.
type Medicine struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
	PhotoURL     *string   `db:"photo_url" json:"photo_url,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
