package sop

import (
	"time"

	"github.com/google/uuid"
)

const StatusActive = "active"

// SOP is a care plan generated for a patient, maps to the sop table.
type SOP struct {
	ID          uuid.UUID `db:"id" json:"id"`
	UserID      uuid.UUID `db:"user_id" json:"user_id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	Title       string    `db:"title" json:"title"`
	Description *string   `db:"description" json:"description,omitempty"`
	RawResponse *string   `db:"raw_response" json:"raw_response,omitempty"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Steps   []*Step         `db:"-" json:"steps,omitempty"`
	Patient *PatientSummary `db:"-" json:"patient,omitempty"`
}

// PatientSummary is the patient slice returned alongside a fetched SOP.
type PatientSummary struct {
	ID               uuid.UUID          `db:"id" json:"id"`
	Name             string             `db:"name" json:"name"`
	Age              int                `db:"age" json:"age"`
	DiseaseCondition string             `db:"disease_condition" json:"disease_condition"`
	Medicines        []*MedicineSummary `db:"-" json:"medicines,omitempty"`
}

// MedicineSummary is one medicine attached to the SOP's patient.
type MedicineSummary struct {
	ID           uuid.UUID `db:"id" json:"id"`
	MedicineName string    `db:"medicine_name" json:"medicine_name"`
	PhotoURL     *string   `db:"photo_url" json:"photo_url,omitempty"`
}

// Step maps to the sop_step table. Steps are ordered by StepOrder.
type Step struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	SOPID           uuid.UUID  `db:"sop_id" json:"sop_id"`
	StepOrder       int        `db:"step_order" json:"step_order"`
	TimeLabel       string     `db:"time_label" json:"time_label"`
	TaskTitle       string     `db:"task_title" json:"task_title"`
	TaskDescription string     `db:"task_description" json:"task_description"`
	IsCompleted     bool       `db:"is_completed" json:"is_completed"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	RejectionCount  int        `db:"rejection_count" json:"rejection_count"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// StepPatch carries optional step field updates. Nil fields are left as-is.
type StepPatch struct {
	TimeLabel       *string `json:"time_label,omitempty"`
	TaskTitle       *string `json:"task_title,omitempty"`
	TaskDescription *string `json:"task_description,omitempty"`
}
