package transfusion

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repository --

type ownedKey struct {
	id, caregiver uuid.UUID
}

type mockRepo struct {
	transfusions map[ownedKey]*Transfusion
	progress     []*ProgressSnapshot
	notes        []*Note
	alerts       []*Alert
}

func newMockRepo() *mockRepo {
	return &mockRepo{transfusions: make(map[ownedKey]*Transfusion)}
}

func (m *mockRepo) Create(_ context.Context, t *Transfusion) error {
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	t.UpdatedAt = time.Now()
	m.transfusions[ownedKey{t.ID, t.CaregiverID}] = t
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id, caregiverID uuid.UUID) (*Transfusion, error) {
	t, ok := m.transfusions[ownedKey{id, caregiverID}]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *mockRepo) UpdateStatus(_ context.Context, id, caregiverID uuid.UUID, from []Status, patch StatusPatch) (*Transfusion, error) {
	t, ok := m.transfusions[ownedKey{id, caregiverID}]
	if !ok {
		return nil, ErrNotFound
	}
	matched := false
	for _, s := range from {
		if t.Status == s {
			matched = true
		}
	}
	if !matched {
		return nil, ErrInvalidTransition
	}

	t.Status = patch.Status
	if patch.ClearPausedAt {
		t.PausedAt = nil
	} else if patch.PausedAt != nil {
		t.PausedAt = patch.PausedAt
	}
	t.PauseDurationMs += patch.PauseDeltaMs
	if patch.ExpectedEnd != nil {
		t.ExpectedEndTime = *patch.ExpectedEnd
	}
	if patch.ActualEnd != nil {
		t.ActualEndTime = patch.ActualEnd
	}
	if patch.Notes != nil {
		t.Notes = patch.Notes
	}
	if patch.Complications != nil {
		t.Complications = patch.Complications
	}
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (m *mockRepo) ListActive(_ context.Context, caregiverID uuid.UUID) ([]*Transfusion, error) {
	var result []*Transfusion
	for k, t := range m.transfusions {
		if k.caregiver == caregiverID && !t.Status.Terminal() {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockRepo) ListHistory(_ context.Context, caregiverID uuid.UUID, limit, offset int) ([]*Transfusion, int, error) {
	var result []*Transfusion
	for k, t := range m.transfusions {
		if k.caregiver == caregiverID {
			result = append(result, t)
		}
	}
	total := len(result)
	if offset > len(result) {
		offset = len(result)
	}
	result = result[offset:]
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, total, nil
}

func (m *mockRepo) AddProgress(_ context.Context, p *ProgressSnapshot) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.progress = append(m.progress, p)
	return nil
}

func (m *mockRepo) AddNote(_ context.Context, n *Note) error {
	n.ID = uuid.New()
	n.CreatedAt = time.Now()
	m.notes = append(m.notes, n)
	return nil
}

func (m *mockRepo) AddAlert(_ context.Context, a *Alert) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now()
	m.alerts = append(m.alerts, a)
	return nil
}

func (m *mockRepo) GetTimeline(_ context.Context, transfusionID uuid.UUID) (*Timeline, error) {
	tl := &Timeline{}
	for _, p := range m.progress {
		if p.TransfusionID == transfusionID {
			tl.Progress = append(tl.Progress, p)
		}
	}
	for _, n := range m.notes {
		if n.TransfusionID == transfusionID {
			tl.Notes = append(tl.Notes, n)
		}
	}
	for _, a := range m.alerts {
		if a.TransfusionID == transfusionID {
			tl.Alerts = append(tl.Alerts, a)
		}
	}
	return tl, nil
}

func validStart() StartInput {
	return StartInput{
		TaskID:            uuid.New(),
		PatientID:         uuid.New(),
		PouchVolumeMl:     500,
		DropFactor:        15,
		DropRatePerMinute: 30,
	}
}

func mustStart(t *testing.T, svc *Service, caregiverID uuid.UUID) *Transfusion {
	t.Helper()
	tx, err := svc.Start(context.Background(), caregiverID, validStart())
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	return tx
}

// -- Tests --

func TestStart(t *testing.T) {
	svc := NewService(newMockRepo())
	caregiverID := uuid.New()

	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	in := validStart()
	in.StartTime = &start

	tx, err := svc.Start(context.Background(), caregiverID, in)
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if tx.Status != StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", tx.Status)
	}
	if tx.CaregiverID != caregiverID {
		t.Error("Expected transfusion bound to caregiver")
	}
	if tx.AlertThresholdMinutes != DefaultAlertThresholdMinutes {
		t.Errorf("Expected default threshold, got %d", tx.AlertThresholdMinutes)
	}
	// 500*15/30 = 250 planned minutes.
	if !tx.ExpectedEndTime.Equal(start.Add(250 * time.Minute)) {
		t.Errorf("Expected end 250m after start, got %s", tx.ExpectedEndTime)
	}
}

func TestStartValidation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()

	cases := []func(*StartInput){
		func(in *StartInput) { in.TaskID = uuid.Nil },
		func(in *StartInput) { in.PatientID = uuid.Nil },
		func(in *StartInput) { in.PouchVolumeMl = 0 },
		func(in *StartInput) { in.PouchVolumeMl = 50 },
		func(in *StartInput) { in.PouchVolumeMl = 1500 },
		func(in *StartInput) { in.DropRatePerMinute = 10 },
		func(in *StartInput) { in.DropRatePerMinute = 150 },
		func(in *StartInput) { in.DropFactor = -15 },
	}
	for i, mutate := range cases {
		in := validStart()
		mutate(&in)
		_, err := svc.Start(ctx, caregiverID, in)
		if err == nil {
			t.Errorf("case %d: expected validation error", i)
			continue
		}
		if !IsValidation(err) {
			t.Errorf("case %d: expected ValidationError, got %v", i, err)
		}
	}
}

func TestPauseResumeAccumulates(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)
	originalEnd := tx.ExpectedEndTime

	pausedAt := tx.StartTime.Add(10 * time.Minute)
	paused, err := svc.Pause(ctx, tx.ID, caregiverID, &pausedAt)
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if paused.Status != StatusPaused {
		t.Errorf("Expected PAUSED, got %s", paused.Status)
	}
	if paused.PausedAt == nil || !paused.PausedAt.Equal(pausedAt) {
		t.Error("Expected paused_at to record the pause start")
	}

	// Resume after a measured 15-minute pause.
	interval := int64(15 * 60 * 1000)
	resumed, err := svc.Resume(ctx, tx.ID, caregiverID, &interval)
	if err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if resumed.Status != StatusInProgress {
		t.Errorf("Expected IN_PROGRESS, got %s", resumed.Status)
	}
	if resumed.PausedAt != nil {
		t.Error("Expected paused_at cleared on resume")
	}
	if resumed.PauseDurationMs != 900000 {
		t.Errorf("Expected pause duration 900000 ms, got %d", resumed.PauseDurationMs)
	}
	if !resumed.ExpectedEndTime.Equal(originalEnd.Add(15 * time.Minute)) {
		t.Errorf("Expected end shifted by 15m, got %s (was %s)", resumed.ExpectedEndTime, originalEnd)
	}

	// A second pause/resume adds to the total instead of overwriting it.
	if _, err := svc.Pause(ctx, tx.ID, caregiverID, nil); err != nil {
		t.Fatalf("Second pause failed: %v", err)
	}
	second := int64(5 * 60 * 1000)
	resumed, err = svc.Resume(ctx, tx.ID, caregiverID, &second)
	if err != nil {
		t.Fatalf("Second resume failed: %v", err)
	}
	if resumed.PauseDurationMs != 1200000 {
		t.Errorf("Expected cumulative 1200000 ms, got %d", resumed.PauseDurationMs)
	}
	if !resumed.ExpectedEndTime.Equal(originalEnd.Add(20 * time.Minute)) {
		t.Errorf("Expected end shifted by 20m total, got %s", resumed.ExpectedEndTime)
	}
}

func TestResumeNegativeInterval(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	if _, err := svc.Pause(ctx, tx.ID, caregiverID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	bad := int64(-1000)
	_, err := svc.Resume(ctx, tx.ID, caregiverID, &bad)
	if !IsValidation(err) {
		t.Errorf("Expected ValidationError, got %v", err)
	}
}

func TestTransitionRules(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	// Resume without a pause.
	if _, err := svc.Resume(ctx, tx.ID, caregiverID, nil); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}

	// Pause while already paused.
	if _, err := svc.Pause(ctx, tx.ID, caregiverID, nil); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if _, err := svc.Pause(ctx, tx.ID, caregiverID, nil); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}

	// Complete from PAUSED is legal.
	done, err := svc.Complete(ctx, tx.ID, caregiverID, CompleteInput{})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if done.Status != StatusCompleted || done.ActualEndTime == nil {
		t.Error("Expected COMPLETED with actual end time")
	}

	// Terminal state rejects everything.
	if _, err := svc.Pause(ctx, tx.ID, caregiverID, nil); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition after terminal, got %v", err)
	}
	if _, err := svc.Complete(ctx, tx.ID, caregiverID, CompleteInput{}); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition after terminal, got %v", err)
	}
	if _, err := svc.StopEarly(ctx, tx.ID, caregiverID, StopEarlyInput{Reason: "x"}); err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition after terminal, got %v", err)
	}
}

func TestStopEarly(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	if _, err := svc.StopEarly(ctx, tx.ID, caregiverID, StopEarlyInput{}); !IsValidation(err) {
		t.Errorf("Expected ValidationError for empty reason, got %v", err)
	}

	stopped, err := svc.StopEarly(ctx, tx.ID, caregiverID, StopEarlyInput{Reason: "Patient reaction"})
	if err != nil {
		t.Fatalf("StopEarly failed: %v", err)
	}
	if stopped.Status != StatusStoppedEarly {
		t.Errorf("Expected STOPPED_EARLY, got %s", stopped.Status)
	}
	if stopped.Complications == nil || *stopped.Complications != "Patient reaction" {
		t.Error("Expected reason stored in complications")
	}
}

func TestRecordProgress(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	for i := 1; i <= 3; i++ {
		snap, deviations, err := svc.RecordProgress(ctx, tx.ID, caregiverID, ProgressInput{
			ElapsedTimeMs:      int64(i) * 600000,
			RemainingTimeMs:    15000000 - int64(i)*600000,
			DropsAdministered:  i * 300,
			ProgressPercentage: float64(i) * 4,
		})
		if err != nil {
			t.Fatalf("RecordProgress %d failed: %v", i, err)
		}
		if snap.TransfusionID != tx.ID {
			t.Error("Expected snapshot linked to transfusion")
		}
		if len(deviations) != 0 {
			t.Errorf("Expected no deviations on pace, got %v", deviations)
		}
	}
	if len(repo.progress) != 3 {
		t.Fatalf("Expected 3 snapshots, got %d", len(repo.progress))
	}
	// Append order preserved.
	for i, p := range repo.progress {
		if p.ElapsedTimeMs != int64(i+1)*600000 {
			t.Errorf("Snapshot %d out of order: %d", i, p.ElapsedTimeMs)
		}
	}
}

func TestRecordProgressDeviations(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	// 270 elapsed minutes against a 250-minute plan with 15m grace.
	_, deviations, err := svc.RecordProgress(ctx, tx.ID, caregiverID, ProgressInput{
		ElapsedTimeMs:     270 * 60 * 1000,
		DropsAdministered: 8100,
	})
	if err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if !hasDeviation(deviations, AlertTypeOverrun) {
		t.Errorf("Expected overrun deviation, got %v", deviations)
	}
}

func TestRecordProgressTerminal(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	if _, err := svc.Complete(ctx, tx.ID, caregiverID, CompleteInput{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	_, _, err := svc.RecordProgress(ctx, tx.ID, caregiverID, ProgressInput{ElapsedTimeMs: 1000})
	if err != ErrInvalidTransition {
		t.Errorf("Expected ErrInvalidTransition, got %v", err)
	}
}

func TestRecordNoteAndAlert(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	if _, err := svc.RecordNote(ctx, tx.ID, caregiverID, "", ""); !IsValidation(err) {
		t.Errorf("Expected ValidationError for empty note, got %v", err)
	}

	n, err := svc.RecordNote(ctx, tx.ID, caregiverID, "patient comfortable", "")
	if err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}
	if n.NoteType != DefaultNoteType {
		t.Errorf("Expected default note type, got %q", n.NoteType)
	}

	if _, err := svc.RecordAlert(ctx, tx.ID, caregiverID, "OVERRUN", ""); !IsValidation(err) {
		t.Errorf("Expected ValidationError for empty message, got %v", err)
	}
	a, err := svc.RecordAlert(ctx, tx.ID, caregiverID, "OVERRUN", "running 20m over plan")
	if err != nil {
		t.Fatalf("RecordAlert failed: %v", err)
	}
	if a.TransfusionID != tx.ID {
		t.Error("Expected alert linked to transfusion")
	}
}

func TestOwnershipIsolation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	owner := uuid.New()
	intruder := uuid.New()
	tx := mustStart(t, svc, owner)

	if _, err := svc.Pause(ctx, tx.ID, intruder, nil); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for foreign caregiver, got %v", err)
	}
	if _, err := svc.Get(ctx, tx.ID, intruder); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for foreign caregiver, got %v", err)
	}
	if _, _, err := svc.RecordProgress(ctx, tx.ID, intruder, ProgressInput{}); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound for foreign caregiver, got %v", err)
	}
}

func TestGetWithTimeline(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()
	tx := mustStart(t, svc, caregiverID)

	if _, _, err := svc.RecordProgress(ctx, tx.ID, caregiverID, ProgressInput{ElapsedTimeMs: 600000}); err != nil {
		t.Fatalf("RecordProgress failed: %v", err)
	}
	if _, err := svc.RecordNote(ctx, tx.ID, caregiverID, "ok", ""); err != nil {
		t.Fatalf("RecordNote failed: %v", err)
	}

	detail, err := svc.Get(ctx, tx.ID, caregiverID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if len(detail.Progress) != 1 || len(detail.Timeline.Notes) != 1 || len(detail.Alerts) != 0 {
		t.Errorf("Unexpected timeline sizes: %d/%d/%d",
			len(detail.Progress), len(detail.Timeline.Notes), len(detail.Alerts))
	}
}

func TestActiveAndHistory(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()
	caregiverID := uuid.New()

	running := mustStart(t, svc, caregiverID)
	finished := mustStart(t, svc, caregiverID)
	if _, err := svc.Complete(ctx, finished.ID, caregiverID, CompleteInput{}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	active, err := svc.Active(ctx, caregiverID)
	if err != nil {
		t.Fatalf("Active failed: %v", err)
	}
	if len(active) != 1 || active[0].ID != running.ID {
		t.Errorf("Expected only the running transfusion, got %d", len(active))
	}

	history, total, err := svc.History(ctx, caregiverID, 50, 0)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if total != 2 || len(history) != 2 {
		t.Errorf("Expected 2 in history, got %d (total %d)", len(history), total)
	}
}
