package patient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/platform/session"
)

// stubStaffRepo backs the auth middleware with the fixture's staff members.
type stubStaffRepo struct {
	byID map[uuid.UUID]*staff.Staff
}

func (r *stubStaffRepo) Create(context.Context, *staff.Staff) error { return nil }
func (r *stubStaffRepo) Update(context.Context, *staff.Staff) error { return nil }
func (r *stubStaffRepo) Delete(context.Context, uuid.UUID) error    { return nil }
func (r *stubStaffRepo) List(context.Context) ([]*staff.Staff, error) {
	return nil, nil
}
func (r *stubStaffRepo) GetByLogin(context.Context, string) (*staff.Staff, error) {
	return nil, staff.ErrNotFound
}
func (r *stubStaffRepo) GetByEmail(context.Context, string) (*staff.Staff, error) {
	return nil, staff.ErrNotFound
}
func (r *stubStaffRepo) HasMainDoctor(context.Context) (bool, error) { return true, nil }
func (r *stubStaffRepo) GetByID(_ context.Context, id uuid.UUID) (*staff.Staff, error) {
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return nil, staff.ErrNotFound
}

// newRouteServer mounts the patient routes behind real session middleware and
// returns a login helper producing a session cookie for a fixture member.
func newRouteServer(t *testing.T, f *fixture) (*echo.Echo, func(*staff.Staff) *http.Cookie) {
	t.Helper()
	staffRepo := &stubStaffRepo{byID: map[uuid.UUID]*staff.Staff{
		f.mainDoc.ID: f.mainDoc,
		f.doctor.ID:  f.doctor,
		f.nurse.ID:   f.nurse,
	}}
	sessions := session.NewManager(session.NewMemoryStore(), []byte("test-secret"), time.Hour)
	mw := staff.NewMiddleware(sessions, staffRepo)

	e := echo.New()
	NewHandler(f.svc, zerolog.Nop()).RegisterRoutes(e, mw)

	loginAs := func(m *staff.Staff) *http.Cookie {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, sessions.Issue(c, m.ID))
		return rec.Result().Cookies()[0]
	}
	return e, loginAs
}

func TestAllReviewViewByRole(t *testing.T) {
	f := newFixture()
	e, loginAs := newRouteServer(t, f)

	tests := []struct {
		name   string
		member *staff.Staff
		want   string
	}{
		{"main doctor", f.mainDoc, `"view":"main_doctor"`},
		{"doctor", f.doctor, `"view":"doctor"`},
		{"nurse", f.nurse, `"view":"nurse"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/AllReview", nil)
			req.AddCookie(loginAs(tt.member))
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestAllReviewRequiresSession(t *testing.T) {
	f := newFixture()
	e, _ := newRouteServer(t, f)

	req := httptest.NewRequest(http.MethodGet, "/AllReview", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestNurseCannotReachEditRoutes(t *testing.T) {
	f := newFixture()
	e, loginAs := newRouteServer(t, f)

	// The review page is open to nurses but the mutation routes stay closed.
	req := httptest.NewRequest(http.MethodGet, "/patients/edit/"+uuid.NewString(), nil)
	req.AddCookie(loginAs(f.nurse))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/access-denied", rec.Header().Get("Location"))
}

func TestFormInput(t *testing.T) {
	form := url.Values{
		"fullName":            {"Петренко Іван"},
		"phone":               {"+380501112233"},
		"birthDate":           {"1980-05-01"},
		"department":          {"Хірургія"},
		"diagnosis":           {"Апендицит"},
		"notes":               {"Алергія на пеніцилін"},
		"ward":                {"3"},
		"bed":                 {"2"},
		"appointmentDateFrom": {"2024-03-10T09:00"},
		"appointmentDateTo":   {"2024-03-20T12:00"},
		"doctorId":            {"1b4e28ba-2fa1-11d2-883f-0016d3cca427"},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c := e.NewContext(req, httptest.NewRecorder())

	in := formInput(c)
	assert.Equal(t, "Петренко Іван", in.FullName)
	assert.Equal(t, "Хірургія", in.Department)
	assert.Equal(t, "Алергія на пеніцилін", in.Notes)
	assert.Equal(t, 3, in.Ward)
	assert.Equal(t, 2, in.Bed)
	assert.Equal(t, time.Date(1980, 5, 1, 0, 0, 0, 0, time.UTC), in.BirthDate)
	assert.Equal(t, time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC), in.AdmittedAt)
	assert.Equal(t, time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC), in.DischargeAt)
	assert.Equal(t, "1b4e28ba-2fa1-11d2-883f-0016d3cca427", in.DoctorID.String())
}

func TestFormInputToleratesGarbage(t *testing.T) {
	form := url.Values{
		"ward":                {"three"},
		"birthDate":           {"01.05.1980"},
		"appointmentDateFrom": {"yesterday"},
		"doctorId":            {"not-a-uuid"},
	}

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	c := e.NewContext(req, httptest.NewRecorder())

	// Unparseable values come back zero; validation rejects them later.
	in := formInput(c)
	assert.Zero(t, in.Ward)
	assert.True(t, in.BirthDate.IsZero())
	assert.True(t, in.AdmittedAt.IsZero())
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", in.DoctorID.String())
}
