package transfusion

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Service owns the transfusion lifecycle. Every mutation goes through the
// transition table in model.go and a guarded repository write, so at most
// one in-flight state change can win per transfusion even with multiple
// server instances.
type Service struct {
	repo   Repository
	policy AlertPolicy
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StartInput carries the creation parameters. Timestamps are optional:
// monitoring clients run on their own clocks and may report retroactively,
// so caller-supplied times are accepted and only default to now.
type StartInput struct {
	TaskID                uuid.UUID  `json:"task_id"`
	PatientID             uuid.UUID  `json:"patient_id"`
	PouchVolumeMl         int        `json:"pouch_volume_ml"`
	DropFactor            int        `json:"drop_factor"`
	DropRatePerMinute     int        `json:"drop_rate_per_minute"`
	StartTime             *time.Time `json:"start_time,omitempty"`
	ExpectedEndTime       *time.Time `json:"expected_end_time,omitempty"`
	AlertThresholdMinutes *int       `json:"alert_threshold_minutes,omitempty"`
	Notes                 *string    `json:"notes,omitempty"`
}

// Start creates a transfusion in IN_PROGRESS and binds it to the caregiver.
// The caregiver becomes the exclusive controller for all later transitions.
func (s *Service) Start(ctx context.Context, caregiverID uuid.UUID, in StartInput) (*Transfusion, error) {
	if in.TaskID == uuid.Nil || in.PatientID == uuid.Nil {
		return nil, validationf("task_id and patient_id are required")
	}
	if in.PouchVolumeMl == 0 || in.DropFactor == 0 || in.DropRatePerMinute == 0 {
		return nil, validationf("pouch_volume_ml, drop_factor and drop_rate_per_minute are required")
	}
	if in.PouchVolumeMl < 100 || in.PouchVolumeMl > 1000 {
		return nil, validationf("volume must be between 100-1000 ml")
	}
	if in.DropFactor < 0 {
		return nil, validationf("drop factor must be positive")
	}
	if in.DropRatePerMinute < 20 || in.DropRatePerMinute > 100 {
		return nil, validationf("drop rate must be between 20-100 drops/min")
	}

	planned, err := PlannedDuration(in.PouchVolumeMl, in.DropFactor, in.DropRatePerMinute)
	if err != nil {
		return nil, err
	}

	start := time.Now().UTC()
	if in.StartTime != nil {
		start = *in.StartTime
	}
	expectedEnd := ProjectedEnd(start, planned, 0)
	if in.ExpectedEndTime != nil {
		expectedEnd = *in.ExpectedEndTime
	}
	threshold := DefaultAlertThresholdMinutes
	if in.AlertThresholdMinutes != nil && *in.AlertThresholdMinutes > 0 {
		threshold = *in.AlertThresholdMinutes
	}

	t := &Transfusion{
		TaskID:                in.TaskID,
		PatientID:             in.PatientID,
		CaregiverID:           caregiverID,
		PouchVolumeMl:         in.PouchVolumeMl,
		DropFactor:            in.DropFactor,
		DropRatePerMinute:     in.DropRatePerMinute,
		StartTime:             start,
		ExpectedEndTime:       expectedEnd,
		AlertThresholdMinutes: threshold,
		Status:                StatusInProgress,
		PauseDurationMs:       0,
		Notes:                 in.Notes,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Pause moves IN_PROGRESS to PAUSED and records when the pause began.
func (s *Service) Pause(ctx context.Context, id, caregiverID uuid.UUID, pausedAt *time.Time) (*Transfusion, error) {
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusPaused) {
		return nil, ErrInvalidTransition
	}

	at := time.Now().UTC()
	if pausedAt != nil {
		at = *pausedAt
	}
	return s.repo.UpdateStatus(ctx, id, caregiverID, []Status{StatusInProgress}, StatusPatch{
		Status:   StatusPaused,
		PausedAt: &at,
	})
}

// Resume moves PAUSED back to IN_PROGRESS, adds the paused interval to the
// cumulative pause duration, and pushes the expected end forward by exactly
// that interval. The interval may be caller-measured; otherwise it is
// computed from the recorded pause start.
func (s *Service) Resume(ctx context.Context, id, caregiverID uuid.UUID, pauseDurationMs *int64) (*Transfusion, error) {
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusInProgress) {
		return nil, ErrInvalidTransition
	}

	var interval int64
	switch {
	case pauseDurationMs != nil:
		interval = *pauseDurationMs
	case t.PausedAt != nil:
		interval = time.Since(*t.PausedAt).Milliseconds()
	}
	if interval < 0 {
		return nil, validationf("pause_duration_ms must not be negative")
	}

	planned, err := PlannedDuration(t.PouchVolumeMl, t.DropFactor, t.DropRatePerMinute)
	if err != nil {
		return nil, err
	}
	totalPause := time.Duration(t.PauseDurationMs+interval) * time.Millisecond
	expectedEnd := ProjectedEnd(t.StartTime, planned, totalPause)

	return s.repo.UpdateStatus(ctx, id, caregiverID, []Status{StatusPaused}, StatusPatch{
		Status:        StatusInProgress,
		ClearPausedAt: true,
		PauseDeltaMs:  interval,
		ExpectedEnd:   &expectedEnd,
	})
}

// CompleteInput carries the optional final fields of a normal completion.
type CompleteInput struct {
	ActualEndTime *time.Time `json:"actual_end_time,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	Complications *string    `json:"complications,omitempty"`
}

// Complete terminates the transfusion normally from IN_PROGRESS or PAUSED.
func (s *Service) Complete(ctx context.Context, id, caregiverID uuid.UUID, in CompleteInput) (*Transfusion, error) {
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusCompleted) {
		return nil, ErrInvalidTransition
	}

	end := time.Now().UTC()
	if in.ActualEndTime != nil {
		end = *in.ActualEndTime
	}
	return s.repo.UpdateStatus(ctx, id, caregiverID, []Status{StatusInProgress, StatusPaused}, StatusPatch{
		Status:        StatusCompleted,
		ClearPausedAt: true,
		ActualEnd:     &end,
		Notes:         in.Notes,
		Complications: in.Complications,
	})
}

// StopEarlyInput carries the mandatory reason and optional end time of an
// early termination.
type StopEarlyInput struct {
	Reason        string     `json:"reason"`
	ActualEndTime *time.Time `json:"actual_end_time,omitempty"`
}

// StopEarly terminates the transfusion before plan. The reason is required
// and stored in complications.
func (s *Service) StopEarly(ctx context.Context, id, caregiverID uuid.UUID, in StopEarlyInput) (*Transfusion, error) {
	if in.Reason == "" {
		return nil, validationf("reason is required")
	}
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(t.Status, StatusStoppedEarly) {
		return nil, ErrInvalidTransition
	}

	end := time.Now().UTC()
	if in.ActualEndTime != nil {
		end = *in.ActualEndTime
	}
	return s.repo.UpdateStatus(ctx, id, caregiverID, []Status{StatusInProgress, StatusPaused}, StatusPatch{
		Status:        StatusStoppedEarly,
		ClearPausedAt: true,
		ActualEnd:     &end,
		Complications: &in.Reason,
	})
}

// ProgressInput is a caller-computed snapshot of the running infusion.
type ProgressInput struct {
	ElapsedTimeMs        int64   `json:"elapsed_time_ms"`
	RemainingTimeMs      int64   `json:"remaining_time_ms"`
	DropsAdministered    int     `json:"drops_administered"`
	VolumeAdministeredMl float64 `json:"volume_administered_ml"`
	ProgressPercentage   float64 `json:"progress_percentage"`
}

// RecordProgress appends a snapshot to a non-terminal transfusion and
// returns any plan deviations the alert policy classifies for it. The
// deviations are advisory; recording an alert is a separate call.
func (s *Service) RecordProgress(ctx context.Context, id, caregiverID uuid.UUID, in ProgressInput) (*ProgressSnapshot, []Deviation, error) {
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, nil, err
	}
	if t.Status.Terminal() {
		return nil, nil, ErrInvalidTransition
	}

	p := &ProgressSnapshot{
		TransfusionID:        t.ID,
		ElapsedTimeMs:        in.ElapsedTimeMs,
		RemainingTimeMs:      in.RemainingTimeMs,
		DropsAdministered:    in.DropsAdministered,
		VolumeAdministeredMl: in.VolumeAdministeredMl,
		ProgressPercentage:   in.ProgressPercentage,
	}
	if err := s.repo.AddProgress(ctx, p); err != nil {
		return nil, nil, err
	}

	planned, err := PlannedDuration(t.PouchVolumeMl, t.DropFactor, t.DropRatePerMinute)
	if err != nil {
		return p, nil, nil
	}
	deviations := s.policy.Evaluate(
		time.Duration(in.ElapsedTimeMs)*time.Millisecond,
		planned,
		t.AlertThresholdMinutes,
		t.DropRatePerMinute,
		in.DropsAdministered,
	)
	return p, deviations, nil
}

// RecordNote appends a free-text annotation. Empty note type defaults to
// GENERAL.
func (s *Service) RecordNote(ctx context.Context, id, caregiverID uuid.UUID, note, noteType string) (*Note, error) {
	if note == "" {
		return nil, validationf("note is required")
	}
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	if noteType == "" {
		noteType = DefaultNoteType
	}
	n := &Note{TransfusionID: t.ID, Note: note, NoteType: noteType}
	if err := s.repo.AddNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

// RecordAlert appends an alert raised by the monitoring client.
func (s *Service) RecordAlert(ctx context.Context, id, caregiverID uuid.UUID, alertType, alertMessage string) (*Alert, error) {
	if alertType == "" || alertMessage == "" {
		return nil, validationf("alert_type and alert_message are required")
	}
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	a := &Alert{TransfusionID: t.ID, AlertType: alertType, AlertMessage: alertMessage}
	if err := s.repo.AddAlert(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Get returns the transfusion with its full history joined.
func (s *Service) Get(ctx context.Context, id, caregiverID uuid.UUID) (*Detail, error) {
	t, err := s.repo.GetByID(ctx, id, caregiverID)
	if err != nil {
		return nil, err
	}
	tl, err := s.repo.GetTimeline(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	return &Detail{Transfusion: *t, Timeline: *tl}, nil
}

// History lists the caregiver's transfusions, newest first.
func (s *Service) History(ctx context.Context, caregiverID uuid.UUID, limit, offset int) ([]*Transfusion, int, error) {
	return s.repo.ListHistory(ctx, caregiverID, limit, offset)
}

// Active lists the caregiver's transfusions still in flight.
func (s *Service) Active(ctx context.Context, caregiverID uuid.UUID) ([]*Transfusion, error) {
	return s.repo.ListActive(ctx, caregiverID)
}
