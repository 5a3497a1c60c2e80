package user

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

const userCols = `id, email, full_name, phone, age, gender, address, role,
	created_at, updated_at`

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM app_user WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `
		UPDATE app_user SET
			email = COALESCE($1, email),
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			age = COALESCE($4, age),
			gender = COALESCE($5, gender),
			address = COALESCE($6, address),
			updated_at = NOW()
		WHERE id = $7
		RETURNING `+userCols,
		patch.Email, patch.FullName, patch.Phone, patch.Age, patch.Gender,
		patch.Address, id,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return u, err
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Age, &u.Gender, &u.Address,
		&u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
