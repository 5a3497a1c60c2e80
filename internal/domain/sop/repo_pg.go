package sop

import (
	"context"
	"errors"
	"time"

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

const sopCols = `id, user_id, patient_id, title, description, raw_response, status,
	created_at, updated_at`

const stepCols = `id, sop_id, step_order, time_label, task_title, task_description,
	is_completed, completed_at, rejection_count, created_at`

func (r *repoPG) Create(ctx context.Context, s *SOP) error {
	s.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO sop (id, user_id, patient_id, title, description, raw_response, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at, updated_at`,
		s.ID, s.UserID, s.PatientID, s.Title, s.Description, s.RawResponse, s.Status,
	)
	return row.Scan(&s.CreatedAt, &s.UpdatedAt)
}

func (r *repoPG) AddSteps(ctx context.Context, steps []*Step) error {
	batch := &pgx.Batch{}
	for _, st := range steps {
		st.ID = uuid.New()
		batch.Queue(`
			INSERT INTO sop_step (id, sop_id, step_order, time_label, task_title, task_description)
			VALUES ($1,$2,$3,$4,$5,$6)
			RETURNING created_at`,
			st.ID, st.SOPID, st.StepOrder, st.TimeLabel, st.TaskTitle, st.TaskDescription)
	}
	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()
	for _, st := range steps {
		if err := results.QueryRow().Scan(&st.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*SOP, error) {
	s, err := scanSOP(r.pool.QueryRow(ctx,
		`SELECT `+sopCols+` FROM sop WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return s, err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*SOP, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+sopCols+` FROM sop
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*SOP
	for rows.Next() {
		s, err := scanSOP(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (r *repoPG) GetSteps(ctx context.Context, sopID uuid.UUID) ([]*Step, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+stepCols+` FROM sop_step
		WHERE sop_id = $1
		ORDER BY step_order ASC`, sopID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSteps(rows)
}

func (r *repoPG) GetPatientSummary(ctx context.Context, patientID uuid.UUID) (*PatientSummary, error) {
	var p PatientSummary
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, age, disease_condition FROM patient WHERE id = $1`,
		patientID,
	).Scan(&p.ID, &p.Name, &p.Age, &p.DiseaseCondition)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, medicine_name, photo_url FROM patient_medicine
		WHERE patient_id = $1
		ORDER BY created_at ASC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m MedicineSummary
		if err := rows.Scan(&m.ID, &m.MedicineName, &m.PhotoURL); err != nil {
			return nil, err
		}
		p.Medicines = append(p.Medicines, &m)
	}
	return &p, rows.Err()
}

func (r *repoPG) UpdateStep(ctx context.Context, stepID uuid.UUID, patch StepPatch) (*Step, error) {
	st, err := scanStep(r.pool.QueryRow(ctx, `
		UPDATE sop_step SET
			time_label = COALESCE($1, time_label),
			task_title = COALESCE($2, task_title),
			task_description = COALESCE($3, task_description)
		WHERE id = $4
		RETURNING `+stepCols,
		patch.TimeLabel, patch.TaskTitle, patch.TaskDescription, stepID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStepNotFound
	}
	return st, err
}

func (r *repoPG) DeleteStep(ctx context.Context, stepID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM sop_step WHERE id = $1`, stepID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStepNotFound
	}
	return nil
}

func (r *repoPG) SetStepCompletion(ctx context.Context, stepID uuid.UUID, completed bool, completedAt *time.Time) (*Step, error) {
	st, err := scanStep(r.pool.QueryRow(ctx, `
		UPDATE sop_step SET
			is_completed = $1,
			completed_at = $2
		WHERE id = $3
		RETURNING `+stepCols,
		completed, completedAt, stepID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStepNotFound
	}
	return st, err
}

func (r *repoPG) RejectStep(ctx context.Context, stepID uuid.UUID) (*Step, error) {
	// Counter is bumped server-side so concurrent rejections never lose an
	// increment to a read-modify-write race.
	st, err := scanStep(r.pool.QueryRow(ctx, `
		UPDATE sop_step SET
			rejection_count = rejection_count + 1,
			is_completed = FALSE,
			completed_at = NULL
		WHERE id = $1
		RETURNING `+stepCols,
		stepID,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrStepNotFound
	}
	return st, err
}

func scanSOP(row pgx.Row) (*SOP, error) {
	var s SOP
	err := row.Scan(
		&s.ID, &s.UserID, &s.PatientID, &s.Title, &s.Description, &s.RawResponse,
		&s.Status, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func scanStep(row pgx.Row) (*Step, error) {
	var st Step
	err := row.Scan(
		&st.ID, &st.SOPID, &st.StepOrder, &st.TimeLabel, &st.TaskTitle,
		&st.TaskDescription, &st.IsCompleted, &st.CompletedAt,
		&st.RejectionCount, &st.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

func collectSteps(rows pgx.Rows) ([]*Step, error) {
	var result []*Step
	for rows.Next() {
		st, err := scanStep(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, st)
	}
	return result, rows.Err()
}
