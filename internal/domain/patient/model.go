package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table. A row here means the patient is
// currently admitted; discharge moves the row into patient history.
type Patient struct {
	ID          uuid.UUID `db:"id" json:"id"`
	FullName    string    `db:"full_name" json:"full_name"`
	Phone       string    `db:"phone" json:"phone"`
	BirthDate   time.Time `db:"birth_date" json:"birth_date"`
	Department  string    `db:"department" json:"department"`
	Diagnosis   string    `db:"diagnosis" json:"diagnosis"`
	Notes       string    `db:"notes" json:"notes"`
	Ward        int       `db:"ward" json:"ward"`
	Bed         int       `db:"bed" json:"bed"`
	AdmittedAt  time.Time `db:"admitted_at" json:"admitted_at"`
	DischargeAt time.Time `db:"discharge_at" json:"discharge_at"`
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`

	// DoctorName is joined in for display, never written back.
	DoctorName string `db:"-" json:"doctor_name"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Input carries the admission form fields.
type Input struct {
	FullName    string
	Phone       string
	BirthDate   time.Time
	Department  string
	Diagnosis   string
	Notes       string
	Ward        int
	Bed         int
	AdmittedAt  time.Time
	DischargeAt time.Time
	DoctorID    uuid.UUID
}
