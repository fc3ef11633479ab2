package history

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hospreg/hospreg/internal/domain/patient"
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

const recordSelect = `
	SELECT id, full_name, phone, birth_date, department, diagnosis, notes, ward,
	       bed, admitted_at, discharged_at, doctor_id, doctor_name, created_at
	FROM history_patients`

func scanRecord(row pgx.Row) (*Record, error) {
	rec := &Record{}
	err := row.Scan(&rec.ID, &rec.FullName, &rec.Phone, &rec.BirthDate, &rec.Department,
		&rec.Diagnosis, &rec.Notes, &rec.Ward, &rec.Bed, &rec.AdmittedAt,
		&rec.DischargedAt, &rec.DoctorID, &rec.DoctorName, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("scan history record: %w", err)
	}
	return rec, nil
}

func (r *repoPG) collect(ctx context.Context, sql string, args ...interface{}) ([]*Record, error) {
	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var result []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return result, nil
}

func (r *repoPG) Create(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO history_patients (id, full_name, phone, birth_date, department,
			diagnosis, notes, ward, bed, admitted_at, discharged_at, doctor_id, doctor_name)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		rec.ID, rec.FullName, rec.Phone, rec.BirthDate, rec.Department, rec.Diagnosis,
		rec.Notes, rec.Ward, rec.Bed, rec.AdmittedAt, rec.DischargedAt, rec.DoctorID, rec.DoctorName)
	if err != nil {
		return fmt.Errorf("insert history record: %w", err)
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, doctorID *uuid.UUID) ([]*Record, error) {
	if doctorID != nil {
		return r.collect(ctx, recordSelect+` WHERE doctor_id = $1 ORDER BY discharged_at DESC`, *doctorID)
	}
	return r.collect(ctx, recordSelect+` ORDER BY discharged_at DESC`)
}

// Search mirrors the admitted-patients search over the archive; the recorded
// date here is the admission date and the discharge date is the actual one.
func (r *repoPG) Search(ctx context.Context, q patient.SearchQuery) ([]*Record, error) {
	where := ""
	args := []interface{}{}

	switch q.Field {
	case patient.FilterName:
		args = append(args, "%"+q.Text+"%")
		where = `full_name ILIKE $1`
	case patient.FilterPhone:
		args = append(args, "%"+q.Text+"%")
		where = `phone ILIKE $1`
	case patient.FilterDiagnosis:
		args = append(args, "%"+q.Text+"%")
		where = `diagnosis ILIKE $1`
	case patient.FilterDischargeDate:
		args = append(args, q.From, q.To)
		where = `discharged_at >= $1 AND discharged_at < $2`
	case patient.FilterRecordedDate:
		args = append(args, q.From, q.To)
		where = `admitted_at >= $1 AND admitted_at < $2`
	default:
		if !q.From.IsZero() {
			args = append(args, q.From, q.To)
			where = `((admitted_at >= $1 AND admitted_at < $2) OR (discharged_at >= $1 AND discharged_at < $2))`
		} else {
			args = append(args, "%"+q.Text+"%")
			where = `(full_name ILIKE $1 OR phone ILIKE $1 OR diagnosis ILIKE $1 OR doctor_name ILIKE $1)`
		}
	}

	if q.DoctorID != nil {
		args = append(args, *q.DoctorID)
		where += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}

	return r.collect(ctx, recordSelect+` WHERE `+where+` ORDER BY discharged_at DESC`, args...)
}
