package staff

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospreg/hospreg/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const staffCols = `id, full_name, login, phone, position, specialty, email, password_hash, created_at, updated_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	s := &Staff{}
	err := row.Scan(&s.ID, &s.FullName, &s.Login, &s.Phone, &s.Position,
		&s.Specialty, &s.Email, &s.PasswordHash, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan staff: %w", err)
	}
	// Role normalization happens here, at the store boundary.
	s.Role = ParseRole(s.Position)
	return s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Staff) error {
	s.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO staff (id, full_name, login, phone, position, specialty, email, password_hash)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.FullName, s.Login, s.Phone, s.Position, s.Specialty, s.Email, s.PasswordHash)
	if err != nil {
		return fmt.Errorf("insert staff: %w", err)
	}
	s.Role = ParseRole(s.Position)
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Staff, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE id = $1`, id)
	return scanStaff(row)
}

func (r *repoPG) GetByLogin(ctx context.Context, login string) (*Staff, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE login = $1`, login)
	return scanStaff(row)
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*Staff, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+staffCols+` FROM staff WHERE email = $1`, email)
	return scanStaff(row)
}

func (r *repoPG) Update(ctx context.Context, s *Staff) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE staff SET
			full_name = $2, login = $3, phone = $4, position = $5,
			specialty = $6, email = $7, password_hash = $8, updated_at = NOW()
		WHERE id = $1`,
		s.ID, s.FullName, s.Login, s.Phone, s.Position, s.Specialty, s.Email, s.PasswordHash)
	if err != nil {
		return fmt.Errorf("update staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.Role = ParseRole(s.Position)
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM staff WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context) ([]*Staff, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+staffCols+` FROM staff ORDER BY full_name`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var result []*Staff
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate staff: %w", err)
	}
	return result, nil
}

func (r *repoPG) HasMainDoctor(ctx context.Context) (bool, error) {
	// Equality only, mirroring ParseRole's main-doctor rule.
	var exists bool
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM staff WHERE lower(trim(position)) = $1)`,
		labelMainDoctor).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check main doctor exists: %w", err)
	}
	return exists, nil
}
