package staff

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hospreg/hospreg/internal/platform/session"
)

func newTestServer(t *testing.T, repo *mockRepo) (*echo.Echo, *session.Manager) {
	t.Helper()
	svc := newTestService(repo, nil)
	sessions := session.NewManager(session.NewMemoryStore(), []byte("test-secret"), time.Hour)
	mw := NewMiddleware(sessions, repo)

	e := echo.New()
	NewHandler(svc, sessions, zerolog.Nop()).RegisterRoutes(e, mw)
	return e, sessions
}

func postForm(e *echo.Echo, path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestLoginRedirectsByRole(t *testing.T) {
	tests := []struct {
		position string
		wantPath string
	}{
		{"Головний лікар", "/MainDoctorHome"},
		{"Лікар", "/DoctorHome"},
		{"Медсестра/Медбрат", "/NurseHome"},
	}

	for _, tt := range tests {
		repo := newMockRepo()
		repo.seed(t, tt.position, "user", "pw")
		e, _ := newTestServer(t, repo)

		rec := postForm(e, "/", url.Values{"login": {"user"}, "password": {"pw"}})
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, tt.wantPath, rec.Header().Get("Location"))
		require.NotEmpty(t, rec.Result().Cookies(), "login should set a session cookie")
	}
}

func TestLoginFailureRedirectsWithErrorFlag(t *testing.T) {
	repo := newMockRepo()
	repo.seed(t, "Лікар", "user", "pw")
	e, _ := newTestServer(t, repo)

	rec := postForm(e, "/", url.Values{"login": {"user"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/?error=true", rec.Header().Get("Location"))
	assert.Empty(t, rec.Result().Cookies())
}

func TestHomeRequiresSession(t *testing.T) {
	repo := newMockRepo()
	e, _ := newTestServer(t, repo)

	req := httptest.NewRequest(http.MethodGet, "/MainDoctorHome", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestHomeRejectsWrongRole(t *testing.T) {
	repo := newMockRepo()
	repo.seed(t, "Медсестра/Медбрат", "nurse", "pw")
	e, _ := newTestServer(t, repo)

	login := postForm(e, "/", url.Values{"login": {"nurse"}, "password": {"pw"}})
	cookie := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/MainDoctorHome", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/access-denied", rec.Header().Get("Location"))
}

func TestLogoutInvalidatesSession(t *testing.T) {
	repo := newMockRepo()
	repo.seed(t, "Лікар", "doc", "pw")
	e, _ := newTestServer(t, repo)

	login := postForm(e, "/", url.Values{"login": {"doc"}, "password": {"pw"}})
	cookie := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))

	// The old cookie no longer opens protected pages.
	req = httptest.NewRequest(http.MethodGet, "/DoctorHome", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestPersonnelListExcludesSelf(t *testing.T) {
	repo := newMockRepo()
	repo.seed(t, "Головний лікар", "chief", "pw")
	repo.seed(t, "Лікар", "doc", "pw")
	e, _ := newTestServer(t, repo)

	login := postForm(e, "/", url.Values{"login": {"chief"}, "password": {"pw"}})
	cookie := login.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/editPersinal", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "doc")
	assert.NotContains(t, rec.Body.String(), "chief")
}
