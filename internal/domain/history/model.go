package history

import (
	"time"

	"github.com/google/uuid"
)

// Record maps to the history_patients table, the append-only archive of
// completed stays. The doctor's name is snapshotted at discharge time so the
// archive stays readable after the staff record is deleted.
type Record struct {
	ID           uuid.UUID `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        string    `db:"phone" json:"phone"`
	BirthDate    time.Time `db:"birth_date" json:"birth_date"`
	Department   string    `db:"department" json:"department"`
	Diagnosis    string    `db:"diagnosis" json:"diagnosis"`
	Notes        string    `db:"notes" json:"notes"`
	Ward         int       `db:"ward" json:"ward"`
	Bed          int       `db:"bed" json:"bed"`
	AdmittedAt   time.Time `db:"admitted_at" json:"admitted_at"`
	DischargedAt time.Time `db:"discharged_at" json:"discharged_at"`
	DoctorID     uuid.UUID `db:"doctor_id" json:"doctor_id"`
	DoctorName   string    `db:"doctor_name" json:"doctor_name"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
