package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

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

const patientSelect = `
	SELECT p.id, p.full_name, p.phone, p.birth_date, p.department, p.diagnosis,
	       p.notes, p.ward, p.bed, p.admitted_at, p.discharge_at, p.doctor_id,
	       p.created_at, p.updated_at, COALESCE(s.full_name, '')
	FROM patients p
	LEFT JOIN staff s ON s.id = p.doctor_id`

func scanPatient(row pgx.Row) (*Patient, error) {
	p := &Patient{}
	err := row.Scan(&p.ID, &p.FullName, &p.Phone, &p.BirthDate, &p.Department,
		&p.Diagnosis, &p.Notes, &p.Ward, &p.Bed, &p.AdmittedAt, &p.DischargeAt,
		&p.DoctorID, &p.CreatedAt, &p.UpdatedAt, &p.DoctorName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan patient: %w", err)
	}
	return p, nil
}

func (r *repoPG) collect(ctx context.Context, sql string, args ...interface{}) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query patients: %w", err)
	}
	defer rows.Close()

	var result []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return result, nil
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (id, full_name, phone, birth_date, department, diagnosis,
			notes, ward, bed, admitted_at, discharge_at, doctor_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		p.ID, p.FullName, p.Phone, p.BirthDate, p.Department, p.Diagnosis,
		p.Notes, p.Ward, p.Bed, p.AdmittedAt, p.DischargeAt, p.DoctorID)
	if err != nil {
		return fmt.Errorf("insert patient: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.conn(ctx).QueryRow(ctx, patientSelect+` WHERE p.id = $1`, id)
	return scanPatient(row)
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET
			full_name = $2, phone = $3, birth_date = $4, department = $5,
			diagnosis = $6, notes = $7, ward = $8, bed = $9, admitted_at = $10,
			discharge_at = $11, doctor_id = $12, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FullName, p.Phone, p.BirthDate, p.Department, p.Diagnosis,
		p.Notes, p.Ward, p.Bed, p.AdmittedAt, p.DischargeAt, p.DoctorID)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, doctorID *uuid.UUID) ([]*Patient, error) {
	if doctorID != nil {
		return r.collect(ctx, patientSelect+` WHERE p.doctor_id = $1 ORDER BY p.admitted_at DESC`, *doctorID)
	}
	return r.collect(ctx, patientSelect+` ORDER BY p.admitted_at DESC`)
}

// Search runs a resolved query against the admitted-patients table. Text
// matching is a case-insensitive substring test; date fields match the
// half-open [From, To) interval.
func (r *repoPG) Search(ctx context.Context, q SearchQuery) ([]*Patient, error) {
	where := ""
	args := []interface{}{}

	switch q.Field {
	case FilterName:
		args = append(args, "%"+q.Text+"%")
		where = `p.full_name ILIKE $1`
	case FilterPhone:
		args = append(args, "%"+q.Text+"%")
		where = `p.phone ILIKE $1`
	case FilterDiagnosis:
		args = append(args, "%"+q.Text+"%")
		where = `p.diagnosis ILIKE $1`
	case FilterDischargeDate:
		args = append(args, q.From, q.To)
		where = `p.discharge_at >= $1 AND p.discharge_at < $2`
	case FilterRecordedDate:
		args = append(args, q.From, q.To)
		where = `p.admitted_at >= $1 AND p.admitted_at < $2`
	default:
		if !q.From.IsZero() {
			args = append(args, q.From, q.To)
			where = `((p.admitted_at >= $1 AND p.admitted_at < $2) OR (p.discharge_at >= $1 AND p.discharge_at < $2))`
		} else {
			args = append(args, "%"+q.Text+"%")
			where = `(p.full_name ILIKE $1 OR p.phone ILIKE $1 OR p.diagnosis ILIKE $1)`
		}
	}

	if q.DoctorID != nil {
		args = append(args, *q.DoctorID)
		where += fmt.Sprintf(` AND p.doctor_id = $%d`, len(args))
	}

	return r.collect(ctx, patientSelect+` WHERE `+where+` ORDER BY p.admitted_at DESC`, args...)
}

// FindBedConflicts returns admitted patients occupying the given ward/bed over
// an overlapping stay interval, excluding one patient id (the record being
// edited).
func (r *repoPG) FindBedConflicts(ctx context.Context, ward, bed int, from, to time.Time, excludeID uuid.UUID) ([]*Patient, error) {
	return r.collect(ctx, patientSelect+`
		WHERE p.ward = $1 AND p.bed = $2
		  AND p.admitted_at < $4 AND p.discharge_at > $3
		  AND p.id <> $5`,
		ward, bed, from, to, excludeID)
}

func (r *repoPG) CountByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	var n int
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM patients WHERE doctor_id = $1`, doctorID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count patients by doctor: %w", err)
	}
	return n, nil
}
