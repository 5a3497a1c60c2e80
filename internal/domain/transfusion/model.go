package transfusion

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a transfusion episode.
type Status string

const (
	StatusInProgress   Status = "IN_PROGRESS"
	StatusPaused       Status = "PAUSED"
	StatusCompleted    Status = "COMPLETED"
	StatusStoppedEarly Status = "STOPPED_EARLY"
)

// Terminal reports whether no further transitions are accepted from s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusStoppedEarly
}

// allowedTransitions is the single authoritative transition table.
// PAUSED and IN_PROGRESS cycle; COMPLETED and STOPPED_EARLY are terminal.
var allowedTransitions = map[Status][]Status{
	StatusInProgress: {StatusPaused, StatusCompleted, StatusStoppedEarly},
	StatusPaused:     {StatusInProgress, StatusCompleted, StatusStoppedEarly},
}

// CanTransition reports whether moving from one status to another is legal.
// All InvalidTransition checks in the service funnel through here.
func CanTransition(from, to Status) bool {
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transfusion maps to the blood_transfusion table. One record per infusion
// episode, owned by the caregiver who started it. Pouch volume and drop rate
// are immutable after creation.
type Transfusion struct {
	ID                    uuid.UUID  `db:"id" json:"id"`
	TaskID                uuid.UUID  `db:"task_id" json:"task_id"`
	PatientID             uuid.UUID  `db:"patient_id" json:"patient_id"`
	CaregiverID           uuid.UUID  `db:"caregiver_id" json:"caregiver_id"`
	PouchVolumeMl         int        `db:"pouch_volume_ml" json:"pouch_volume_ml"`
	DropFactor            int        `db:"drop_factor" json:"drop_factor"`
	DropRatePerMinute     int        `db:"drop_rate_per_minute" json:"drop_rate_per_minute"`
	StartTime             time.Time  `db:"start_time" json:"start_time"`
	ExpectedEndTime       time.Time  `db:"expected_end_time" json:"expected_end_time"`
	AlertThresholdMinutes int        `db:"alert_threshold_minutes" json:"alert_threshold_minutes"`
	Status                Status     `db:"status" json:"status"`
	PausedAt              *time.Time `db:"paused_at" json:"paused_at,omitempty"`
	PauseDurationMs       int64      `db:"pause_duration_ms" json:"pause_duration_ms"`
	ActualEndTime         *time.Time `db:"actual_end_time" json:"actual_end_time,omitempty"`
	Notes                 *string    `db:"notes" json:"notes,omitempty"`
	Complications         *string    `db:"complications" json:"complications,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// ProgressSnapshot maps to the blood_transfusion_progress table.
// Append-only; never updated or deleted.
type ProgressSnapshot struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	TransfusionID        uuid.UUID `db:"transfusion_id" json:"transfusion_id"`
	ElapsedTimeMs        int64     `db:"elapsed_time_ms" json:"elapsed_time_ms"`
	RemainingTimeMs      int64     `db:"remaining_time_ms" json:"remaining_time_ms"`
	DropsAdministered    int       `db:"drops_administered" json:"drops_administered"`
	VolumeAdministeredMl float64   `db:"volume_administered_ml" json:"volume_administered_ml"`
	ProgressPercentage   float64   `db:"progress_percentage" json:"progress_percentage"`
	CreatedAt            time.Time `db:"created_at" json:"created_at"`
}

// Note maps to the blood_transfusion_notes table. Append-only annotation;
// corrections are new entries, never edits.
type Note struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TransfusionID uuid.UUID `db:"transfusion_id" json:"transfusion_id"`
	Note          string    `db:"note" json:"note"`
	NoteType      string    `db:"note_type" json:"note_type"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DefaultNoteType is used when the caller does not classify a note.
const DefaultNoteType = "GENERAL"

// Alert maps to the blood_transfusion_alerts table. Append-only.
type Alert struct {
	ID            uuid.UUID `db:"id" json:"id"`
	TransfusionID uuid.UUID `db:"transfusion_id" json:"transfusion_id"`
	AlertType     string    `db:"alert_type" json:"alert_type"`
	AlertMessage  string    `db:"alert_message" json:"alert_message"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Timeline is the full append-only history of one transfusion, each slice
// ordered by creation time ascending.
type Timeline struct {
	Progress []*ProgressSnapshot `json:"progress"`
	Notes    []*Note             `json:"notes"`
	Alerts   []*Alert            `json:"alerts"`
}

// Detail is a transfusion joined with its timeline, for detail views.
type Detail struct {
	Transfusion
	Timeline
}
