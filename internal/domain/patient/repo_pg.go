package patient

import (
	"context"

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

const patientCols = `id, user_id, name, age, disease_condition, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO patient (id, user_id, name, age, disease_condition)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.Name, p.Age, p.DiseaseCondition,
	)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) AddMedicines(ctx context.Context, meds []*Medicine) error {
	for _, m := range meds {
		m.ID = uuid.New()
		row := r.pool.QueryRow(ctx, `
			INSERT INTO patient_medicine (id, patient_id, medicine_name, photo_url)
			VALUES ($1,$2,$3,$4)
			RETURNING created_at`,
			m.ID, m.PatientID, m.MedicineName, m.PhotoURL,
		)
		if err := row.Scan(&m.CreatedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE id = $1`, id))
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID) ([]*Patient, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patient WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Patient
	for rows.Next() {
		var p Patient
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.Age, &p.DiseaseCondition, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (r *repoPG) GetMedicines(ctx context.Context, patientID uuid.UUID) ([]*Medicine, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, patient_id, medicine_name, photo_url, created_at
		FROM patient_medicine WHERE patient_id = $1 ORDER BY created_at`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Medicine
	for rows.Next() {
		var m Medicine
		if err := rows.Scan(&m.ID, &m.PatientID, &m.MedicineName, &m.PhotoURL, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Age, &p.DiseaseCondition, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
