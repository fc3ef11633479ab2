package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const CookieName = "hospreg_session"

// Manager issues and resolves session cookies. The cookie value is an
// HS256-signed token wrapping the server-side session id; the signature only
// prevents cookie forgery — the store stays authoritative, so logout and
// expiry take effect immediately regardless of what the browser still holds.
type Manager struct {
	store  Store
	secret []byte
	ttl    time.Duration
}

func NewManager(store Store, secret []byte, ttl time.Duration) *Manager {
	return &Manager{store: store, secret: secret, ttl: ttl}
}

type cookieClaims struct {
	jwt.RegisteredClaims
	SessionID string `json:"sid"`
}

// Issue creates a new session for the user and sets the session cookie.
func (m *Manager) Issue(c echo.Context, userID uuid.UUID) error {
	sid, err := m.store.Create(userID, m.ttl)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, cookieClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		SessionID: sid,
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear destroys the server-side session (if any) and expires the cookie.
func (m *Manager) Clear(c echo.Context) {
	if sid, ok := m.sessionID(c); ok {
		m.store.Delete(sid)
	}
	c.SetCookie(&http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// UserID resolves the authenticated user id for the request. A missing,
// tampered, expired, or unknown session all report the same thing: anonymous.
func (m *Manager) UserID(c echo.Context) (uuid.UUID, bool) {
	sid, ok := m.sessionID(c)
	if !ok {
		return uuid.Nil, false
	}
	return m.store.Get(sid)
}

func (m *Manager) sessionID(c echo.Context) (string, bool) {
	cookie, err := c.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}

	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", false
	}
	return claims.SessionID, true
}
