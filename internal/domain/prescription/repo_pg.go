package prescription

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

const rxCols = `id, user_id, medicine_text, analysis, status, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO prescription (id, user_id, medicine_text, analysis, status)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING created_at, updated_at`,
		p.ID, p.UserID, p.MedicineText, p.Analysis, p.Status,
	)
	return row.Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.pool.QueryRow(ctx,
		`SELECT `+rxCols+` FROM prescription WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func (r *repoPG) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Prescription, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rxCols+` FROM prescription
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC LIMIT $3`,
		userID, StatusActive, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(
		&p.ID, &p.UserID, &p.MedicineText, &p.Analysis, &p.Status,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
