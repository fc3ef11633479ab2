package staff

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hospreg/hospreg/internal/platform/session"
)

const contextKey = "current_staff"

// Middleware resolves the session cookie into the current staff member. The
// record is re-fetched from the store on every request, so role and profile
// edits take effect on the next request without re-login.
type Middleware struct {
	sessions *session.Manager
	repo     Repository
}

func NewMiddleware(sessions *session.Manager, repo Repository) *Middleware {
	return &Middleware{sessions: sessions, repo: repo}
}

// CurrentStaff attaches the authenticated staff member to the context when the
// session resolves. Anonymous requests pass through; route-level guards decide
// what to do with them.
func (m *Middleware) CurrentStaff() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if userID, ok := m.sessions.UserID(c); ok {
				member, err := m.repo.GetByID(c.Request().Context(), userID)
				if err == nil {
					c.Set(contextKey, member)
				} else {
					// Session points at a deleted account; kill it.
					m.sessions.Clear(c)
				}
			}
			return next(c)
		}
	}
}

// FromContext returns the staff member attached by CurrentStaff, or nil.
func FromContext(c echo.Context) *Staff {
	member, _ := c.Get(contextKey).(*Staff)
	return member
}

// RequireAuthenticated bounces anonymous requests to the login page.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if FromContext(c) == nil {
				return c.Redirect(http.StatusSeeOther, "/")
			}
			return next(c)
		}
	}
}

// RequireRole bounces authenticated users whose role is not in the allowed set
// to the access-denied page. Anonymous requests go to the login page.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			member := FromContext(c)
			if member == nil {
				return c.Redirect(http.StatusSeeOther, "/")
			}
			for _, r := range roles {
				if member.Role == r {
					return next(c)
				}
			}
			return c.Redirect(http.StatusSeeOther, "/access-denied")
		}
	}
}
