package transfusion

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const txCols = `id, task_id, patient_id, caregiver_id, pouch_volume_ml, drop_factor,
	drop_rate_per_minute, start_time, expected_end_time, alert_threshold_minutes,
	status, paused_at, pause_duration_ms, actual_end_time, notes, complications,
	created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, t *Transfusion) error {
	t.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blood_transfusion (
			id, task_id, patient_id, caregiver_id, pouch_volume_ml, drop_factor,
			drop_rate_per_minute, start_time, expected_end_time, alert_threshold_minutes,
			status, pause_duration_ms, notes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING created_at, updated_at`,
		t.ID, t.TaskID, t.PatientID, t.CaregiverID, t.PouchVolumeMl, t.DropFactor,
		t.DropRatePerMinute, t.StartTime, t.ExpectedEndTime, t.AlertThresholdMinutes,
		t.Status, t.PauseDurationMs, t.Notes,
	)
	return row.Scan(&t.CreatedAt, &t.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id, caregiverID uuid.UUID) (*Transfusion, error) {
	t, err := scanTransfusion(r.pool.QueryRow(ctx,
		`SELECT `+txCols+` FROM blood_transfusion WHERE id = $1 AND caregiver_id = $2`,
		id, caregiverID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return t, err
}

func (r *repoPG) UpdateStatus(ctx context.Context, id, caregiverID uuid.UUID, from []Status, patch StatusPatch) (*Transfusion, error) {
	states := make([]string, len(from))
	for i, s := range from {
		states[i] = string(s)
	}

	// Single conditional write: the row must still be owned by the caller
	// and in one of the expected states, otherwise zero rows match and the
	// transition is rejected. pause_duration_ms accumulates server-side.
	t, err := scanTransfusion(r.pool.QueryRow(ctx, `
		UPDATE blood_transfusion SET
			status = $1,
			paused_at = CASE WHEN $2 THEN NULL ELSE COALESCE($3, paused_at) END,
			pause_duration_ms = pause_duration_ms + $4,
			expected_end_time = COALESCE($5, expected_end_time),
			actual_end_time = COALESCE($6, actual_end_time),
			notes = COALESCE($7, notes),
			complications = COALESCE($8, complications),
			updated_at = NOW()
		WHERE id = $9 AND caregiver_id = $10 AND status = ANY($11)
		RETURNING `+txCols,
		patch.Status, patch.ClearPausedAt, patch.PausedAt, patch.PauseDeltaMs,
		patch.ExpectedEnd, patch.ActualEnd, patch.Notes, patch.Complications,
		id, caregiverID, states,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		// Row missing, foreign-owned, or moved out of the expected state by
		// a concurrent caller. Re-read to report the right error.
		if _, getErr := r.GetByID(ctx, id, caregiverID); errors.Is(getErr, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInvalidTransition
	}
	return t, err
}

func (r *repoPG) ListActive(ctx context.Context, caregiverID uuid.UUID) ([]*Transfusion, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+txCols+` FROM blood_transfusion
		WHERE caregiver_id = $1 AND status = ANY($2)
		ORDER BY start_time DESC`,
		caregiverID, []string{string(StatusInProgress), string(StatusPaused)})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransfusions(rows)
}

func (r *repoPG) ListHistory(ctx context.Context, caregiverID uuid.UUID, limit, offset int) ([]*Transfusion, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM blood_transfusion WHERE caregiver_id = $1`, caregiverID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+txCols+` FROM blood_transfusion
		WHERE caregiver_id = $1
		ORDER BY start_time DESC LIMIT $2 OFFSET $3`,
		caregiverID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	list, err := collectTransfusions(rows)
	return list, total, err
}

func (r *repoPG) AddProgress(ctx context.Context, p *ProgressSnapshot) error {
	p.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blood_transfusion_progress (
			id, transfusion_id, elapsed_time_ms, remaining_time_ms,
			drops_administered, volume_administered_ml, progress_percentage
		) VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at`,
		p.ID, p.TransfusionID, p.ElapsedTimeMs, p.RemainingTimeMs,
		p.DropsAdministered, p.VolumeAdministeredMl, p.ProgressPercentage,
	)
	return row.Scan(&p.CreatedAt)
}

func (r *repoPG) AddNote(ctx context.Context, n *Note) error {
	n.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blood_transfusion_notes (id, transfusion_id, note, note_type)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		n.ID, n.TransfusionID, n.Note, n.NoteType,
	)
	return row.Scan(&n.CreatedAt)
}

func (r *repoPG) AddAlert(ctx context.Context, a *Alert) error {
	a.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO blood_transfusion_alerts (id, transfusion_id, alert_type, alert_message)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at`,
		a.ID, a.TransfusionID, a.AlertType, a.AlertMessage,
	)
	return row.Scan(&a.CreatedAt)
}

func (r *repoPG) GetTimeline(ctx context.Context, transfusionID uuid.UUID) (*Timeline, error) {
	tl := &Timeline{}

	rows, err := r.pool.Query(ctx, `
		SELECT id, transfusion_id, elapsed_time_ms, remaining_time_ms,
			drops_administered, volume_administered_ml, progress_percentage, created_at
		FROM blood_transfusion_progress
		WHERE transfusion_id = $1 ORDER BY created_at`, transfusionID)
	if err != nil {
		return nil, err
	}
	tl.Progress, err = collectSnapshots(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, transfusion_id, note, note_type, created_at
		FROM blood_transfusion_notes
		WHERE transfusion_id = $1 ORDER BY created_at`, transfusionID)
	if err != nil {
		return nil, err
	}
	tl.Notes, err = collectNotes(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, transfusion_id, alert_type, alert_message, created_at
		FROM blood_transfusion_alerts
		WHERE transfusion_id = $1 ORDER BY created_at`, transfusionID)
	if err != nil {
		return nil, err
	}
	tl.Alerts, err = collectAlerts(rows)
	rows.Close()
	if err != nil {
		return nil, err
	}

	return tl, nil
}

func collectSnapshots(rows pgx.Rows) ([]*ProgressSnapshot, error) {
	var out []*ProgressSnapshot
	for rows.Next() {
		var p ProgressSnapshot
		if err := rows.Scan(&p.ID, &p.TransfusionID, &p.ElapsedTimeMs, &p.RemainingTimeMs,
			&p.DropsAdministered, &p.VolumeAdministeredMl, &p.ProgressPercentage, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func collectNotes(rows pgx.Rows) ([]*Note, error) {
	var out []*Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.TransfusionID, &n.Note, &n.NoteType, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, rows.Err()
}

func collectAlerts(rows pgx.Rows) ([]*Alert, error) {
	var out []*Alert
	for rows.Next() {
		var a Alert
		if err := rows.Scan(&a.ID, &a.TransfusionID, &a.AlertType, &a.AlertMessage, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &a)
	}
	return out, rows.Err()
}

func scanTransfusion(row pgx.Row) (*Transfusion, error) {
	var t Transfusion
	err := row.Scan(
		&t.ID, &t.TaskID, &t.PatientID, &t.CaregiverID, &t.PouchVolumeMl, &t.DropFactor,
		&t.DropRatePerMinute, &t.StartTime, &t.ExpectedEndTime, &t.AlertThresholdMinutes,
		&t.Status, &t.PausedAt, &t.PauseDurationMs, &t.ActualEndTime, &t.Notes, &t.Complications,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func collectTransfusions(rows pgx.Rows) ([]*Transfusion, error) {
	var out []*Transfusion
	for rows.Next() {
		var t Transfusion
		err := rows.Scan(
			&t.ID, &t.TaskID, &t.PatientID, &t.CaregiverID, &t.PouchVolumeMl, &t.DropFactor,
			&t.DropRatePerMinute, &t.StartTime, &t.ExpectedEndTime, &t.AlertThresholdMinutes,
			&t.Status, &t.PausedAt, &t.PauseDurationMs, &t.ActualEndTime, &t.Notes, &t.Complications,
			&t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}
