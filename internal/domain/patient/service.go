package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/platform/db"
	"github.com/hospreg/hospreg/internal/validation"
)

var ErrAccessDenied = errors.New("access denied")

// DoctorRef identifies a doctor a patient can be assigned to.
type DoctorRef struct {
	ID       uuid.UUID `json:"id"`
	FullName string    `json:"full_name"`
}

// DoctorDirectory answers doctor lookups. Wired in main from the staff
// service to keep this package from depending on staff storage.
type DoctorDirectory interface {
	DoctorExists(ctx context.Context, id uuid.UUID) (bool, error)
	ListDoctors(ctx context.Context) ([]DoctorRef, error)
}

// HistoryWriter archives a patient record on discharge. It must honor the
// transaction carried in ctx.
type HistoryWriter interface {
	CreateFromPatient(ctx context.Context, p *Patient) error
}

type Service struct {
	repo    Repository
	doctors DoctorDirectory
	history HistoryWriter
	tx      db.TxRunner
	log     zerolog.Logger
}

func NewService(repo Repository, doctors DoctorDirectory, history HistoryWriter, tx db.TxRunner, log zerolog.Logger) *Service {
	return &Service{repo: repo, doctors: doctors, history: history, tx: tx, log: log}
}

// Admit registers a new patient. Admission is the nurse's operation.
func (s *Service) Admit(ctx context.Context, actor *staff.Staff, in Input) (*Patient, error) {
	if !actor.CanAccessNurseArea() {
		return nil, ErrAccessDenied
	}
	if err := s.validate(ctx, in, uuid.Nil); err != nil {
		return nil, err
	}

	p := &Patient{
		FullName:    strings.TrimSpace(in.FullName),
		Phone:       strings.TrimSpace(in.Phone),
		BirthDate:   in.BirthDate,
		Department:  strings.TrimSpace(in.Department),
		Diagnosis:   strings.TrimSpace(in.Diagnosis),
		Notes:       strings.TrimSpace(in.Notes),
		Ward:        in.Ward,
		Bed:         in.Bed,
		AdmittedAt:  in.AdmittedAt,
		DischargeAt: in.DischargeAt,
		DoctorID:    in.DoctorID,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.log.Info().Str("patient_id", p.ID.String()).Str("doctor_id", p.DoctorID.String()).
		Int("ward", p.Ward).Int("bed", p.Bed).Msg("patient admitted")
	return p, nil
}

// Get fetches a patient for editing. Plain doctors only reach their own.
func (s *Service) Get(ctx context.Context, actor *staff.Staff, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManagePatient(p.DoctorID) {
		return nil, ErrAccessDenied
	}
	return p, nil
}

// Edit rewrites an admitted patient's record.
func (s *Service) Edit(ctx context.Context, actor *staff.Staff, id uuid.UUID, in Input) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManagePatient(p.DoctorID) {
		return nil, ErrAccessDenied
	}
	if err := s.validate(ctx, in, id); err != nil {
		return nil, err
	}

	p.FullName = strings.TrimSpace(in.FullName)
	p.Phone = strings.TrimSpace(in.Phone)
	p.BirthDate = in.BirthDate
	p.Department = strings.TrimSpace(in.Department)
	p.Diagnosis = strings.TrimSpace(in.Diagnosis)
	p.Notes = strings.TrimSpace(in.Notes)
	p.Ward = in.Ward
	p.Bed = in.Bed
	p.AdmittedAt = in.AdmittedAt
	p.DischargeAt = in.DischargeAt
	p.DoctorID = in.DoctorID

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// UpdateDischargeDate moves the planned discharge date of an admitted patient.
func (s *Service) UpdateDischargeDate(ctx context.Context, actor *staff.Staff, id uuid.UUID, dischargeAt time.Time) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanManagePatient(p.DoctorID) {
		return nil, ErrAccessDenied
	}

	errs := validation.FieldErrors{}
	if dischargeAt.IsZero() {
		errs.Add("appointmentDateTo", "дата виписки обов'язкова")
	} else if dischargeAt.Before(p.AdmittedAt) {
		errs.Add("appointmentDateTo", "дата виписки не може передувати даті госпіталізації")
	}
	if len(errs) > 0 {
		return nil, errs
	}
	if err := s.checkBedConflicts(ctx, errs, p.Ward, p.Bed, p.AdmittedAt, dischargeAt, id); err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, errs
	}

	p.DischargeAt = dischargeAt
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Discharge archives the patient into history and removes the admitted row,
// atomically. If the row vanished under a concurrent discharge the whole
// transaction rolls back and the history copy is not kept.
func (s *Service) Discharge(ctx context.Context, actor *staff.Staff, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.CanManagePatient(p.DoctorID) {
		return ErrAccessDenied
	}

	err = s.tx.WithinTx(ctx, func(txCtx context.Context) error {
		if err := s.history.CreateFromPatient(txCtx, p); err != nil {
			return err
		}
		return s.repo.Delete(txCtx, p.ID)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("patient_id", id.String()).Msg("patient discharged")
	return nil
}

// Search lists admitted patients matching a filter. Plain doctors are scoped
// to their own patients; the main doctor and nurses see everyone. An
// unparseable search date yields an empty list rather than an error, matching
// the form's fail-soft behavior.
func (s *Service) Search(ctx context.Context, actor *staff.Staff, rawField, rawQuery string) ([]*Patient, error) {
	var scope *uuid.UUID
	if actor.IsDoctor() {
		id := actor.ID
		scope = &id
	}
	return s.search(ctx, scope, rawField, rawQuery)
}

// Dashboard lists the patients of one doctor. A plain doctor may only open
// their own dashboard; the main doctor may open any.
func (s *Service) Dashboard(ctx context.Context, actor *staff.Staff, doctorID uuid.UUID, rawField, rawQuery string) ([]*Patient, error) {
	if !actor.CanManagePatient(doctorID) {
		return nil, ErrAccessDenied
	}
	return s.search(ctx, &doctorID, rawField, rawQuery)
}

func (s *Service) search(ctx context.Context, scope *uuid.UUID, rawField, rawQuery string) ([]*Patient, error) {
	rawQuery = strings.TrimSpace(rawQuery)
	if rawQuery == "" {
		return s.repo.List(ctx, scope)
	}

	q := SearchQuery{Field: ParseFilterField(rawField), Text: rawQuery, DoctorID: scope}
	if q.Field.IsDate() {
		from, to, err := DayRange(rawQuery)
		if err != nil {
			return []*Patient{}, nil
		}
		q.From, q.To = from, to
	} else if q.Field == FilterAll {
		// A date-shaped term under "all" searches both date fields and
		// never falls back to text.
		if from, to, err := DayRange(rawQuery); err == nil {
			q.From, q.To = from, to
		}
	}
	return s.repo.Search(ctx, q)
}

// ListDoctors exposes the assignable doctors for the admission form.
func (s *Service) ListDoctors(ctx context.Context) ([]DoctorRef, error) {
	return s.doctors.ListDoctors(ctx)
}

// CountActiveByDoctor reports admitted patients assigned to a doctor. Used by
// the personnel delete guard.
func (s *Service) CountActiveByDoctor(ctx context.Context, doctorID uuid.UUID) (int, error) {
	return s.repo.CountByDoctor(ctx, doctorID)
}

func (s *Service) validate(ctx context.Context, in Input, excludeID uuid.UUID) error {
	errs := validation.FieldErrors{}

	if strings.TrimSpace(in.FullName) == "" {
		errs.Add("fullName", "повне ім'я обов'язкове")
	}
	if strings.TrimSpace(in.Diagnosis) == "" {
		errs.Add("diagnosis", "діагноз обов'язковий")
	}
	if in.Ward <= 0 {
		errs.Add("ward", "номер палати має бути додатним")
	}
	if in.Bed <= 0 {
		errs.Add("bed", "номер ліжка має бути додатним")
	}
	if in.AdmittedAt.IsZero() {
		errs.Add("appointmentDateFrom", "дата госпіталізації обов'язкова")
	}
	if in.DischargeAt.IsZero() {
		errs.Add("appointmentDateTo", "дата виписки обов'язкова")
	}
	if !in.AdmittedAt.IsZero() && !in.DischargeAt.IsZero() && in.DischargeAt.Before(in.AdmittedAt) {
		errs.Add("appointmentDateTo", "дата виписки не може передувати даті госпіталізації")
	}
	if in.BirthDate.IsZero() {
		errs.Add("birthDate", "дата народження обов'язкова")
	} else if !in.AdmittedAt.IsZero() && in.BirthDate.After(in.AdmittedAt) {
		errs.Add("birthDate", "дата народження не може бути пізніше дати госпіталізації")
	}

	if in.DoctorID == uuid.Nil {
		errs.Add("doctor", "лікар обов'язковий")
	} else {
		ok, err := s.doctors.DoctorExists(ctx, in.DoctorID)
		if err != nil {
			return err
		}
		if !ok {
			errs.Add("doctor", "обраного лікаря не існує")
		}
	}

	if !errs.Has("ward") && !errs.Has("bed") &&
		!errs.Has("appointmentDateFrom") && !errs.Has("appointmentDateTo") {
		if err := s.checkBedConflicts(ctx, errs, in.Ward, in.Bed, in.AdmittedAt, in.DischargeAt, excludeID); err != nil {
			return err
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (s *Service) checkBedConflicts(ctx context.Context, errs validation.FieldErrors, ward, bed int, from, to time.Time, excludeID uuid.UUID) error {
	conflicts, err := s.repo.FindBedConflicts(ctx, ward, bed, from, to, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		errs.Add("bed", "ліжко зайняте в цей період")
	}
	return nil
}
