package main

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospreg/hospreg/internal/domain/history"
	"github.com/hospreg/hospreg/internal/domain/patient"
	"github.com/hospreg/hospreg/internal/domain/staff"
)

type fakeHistoryRepo struct {
	records []*history.Record
}

func (f *fakeHistoryRepo) Create(_ context.Context, rec *history.Record) error {
	cp := *rec
	f.records = append(f.records, &cp)
	return nil
}

func (f *fakeHistoryRepo) List(context.Context, *uuid.UUID) ([]*history.Record, error) {
	return f.records, nil
}

func (f *fakeHistoryRepo) Search(context.Context, patient.SearchQuery) ([]*history.Record, error) {
	return nil, nil
}

type fakeStaffRepo struct {
	byID map[uuid.UUID]*staff.Staff
}

func (f *fakeStaffRepo) Create(context.Context, *staff.Staff) error { return nil }
func (f *fakeStaffRepo) Update(context.Context, *staff.Staff) error { return nil }
func (f *fakeStaffRepo) Delete(context.Context, uuid.UUID) error    { return nil }
func (f *fakeStaffRepo) List(context.Context) ([]*staff.Staff, error) {
	return nil, nil
}
func (f *fakeStaffRepo) GetByLogin(context.Context, string) (*staff.Staff, error) {
	return nil, staff.ErrNotFound
}
func (f *fakeStaffRepo) GetByEmail(context.Context, string) (*staff.Staff, error) {
	return nil, staff.ErrNotFound
}
func (f *fakeStaffRepo) HasMainDoctor(context.Context) (bool, error) { return true, nil }
func (f *fakeStaffRepo) GetByID(_ context.Context, id uuid.UUID) (*staff.Staff, error) {
	if m, ok := f.byID[id]; ok {
		return m, nil
	}
	return nil, staff.ErrNotFound
}

type fakeCounter struct{}

func (fakeCounter) CountActiveByDoctor(context.Context, uuid.UUID) (int, error) {
	return 0, nil
}

// TestHistoryWriterAdapterCopiesEveryField pins the patient-to-archive field
// mapping so a new patient column cannot silently vanish on discharge.
func TestHistoryWriterAdapterCopiesEveryField(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeHistoryRepo{}
	staffSvc := staff.NewService(
		&fakeStaffRepo{byID: map[uuid.UUID]*staff.Staff{
			doctorID: {ID: doctorID, FullName: "Іваненко Олег", Role: staff.RoleDoctor},
		}},
		fakeCounter{}, zerolog.Nop())
	adapter := &HistoryWriterAdapter{
		histSvc:  history.NewService(repo, zerolog.Nop()),
		staffSvc: staffSvc,
	}

	p := &patient.Patient{
		ID:          uuid.New(),
		FullName:    "Петренко Іван",
		Phone:       "+380501112233",
		BirthDate:   time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC),
		Department:  "Хірургія",
		Diagnosis:   "Апендицит",
		Notes:       "Алергія на пеніцилін",
		Ward:        3,
		Bed:         2,
		AdmittedAt:  time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC),
		DischargeAt: time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC),
		DoctorID:    doctorID,
	}
	require.NoError(t, adapter.CreateFromPatient(context.Background(), p))
	require.Len(t, repo.records, 1)

	rec := repo.records[0]
	assert.Equal(t, p.FullName, rec.FullName)
	assert.Equal(t, p.Phone, rec.Phone)
	assert.Equal(t, p.BirthDate, rec.BirthDate)
	assert.Equal(t, p.Department, rec.Department)
	assert.Equal(t, p.Diagnosis, rec.Diagnosis)
	assert.Equal(t, p.Notes, rec.Notes)
	assert.Equal(t, p.Ward, rec.Ward)
	assert.Equal(t, p.Bed, rec.Bed)
	assert.Equal(t, p.AdmittedAt, rec.AdmittedAt)
	assert.Equal(t, p.DischargeAt, rec.DischargedAt)
	assert.Equal(t, p.DoctorID, rec.DoctorID)
	assert.Equal(t, "Іваненко Олег", rec.DoctorName, "name snapshot falls back to the staff record")
}

func TestCommandTree(t *testing.T) {
	admin := adminCmd()
	assert.Equal(t, "admin", admin.Use)

	names := make([]string, 0, len(admin.Commands()))
	for _, sub := range admin.Commands() {
		names = append(names, sub.Use)
	}
	assert.Contains(t, names, "ensure")

	ensure, _, err := admin.Find([]string{"ensure"})
	require.NoError(t, err)
	assert.NotNil(t, ensure.Flags().Lookup("login"))
	assert.NotNil(t, ensure.Flags().Lookup("password"))

	migrate := migrateCmd()
	subs := make([]string, 0, len(migrate.Commands()))
	for _, sub := range migrate.Commands() {
		subs = append(subs, sub.Use)
	}
	assert.Contains(t, subs, "up")
	assert.Contains(t, subs, "status")
}
