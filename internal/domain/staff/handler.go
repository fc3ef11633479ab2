package staff

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/platform/session"
	"github.com/hospreg/hospreg/internal/validation"
	"github.com/hospreg/hospreg/pkg/pagination"
)

type Handler struct {
	svc      *Service
	sessions *session.Manager
	log      zerolog.Logger
}

func NewHandler(svc *Service, sessions *session.Manager, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, sessions: sessions, log: log}
}

// RegisterRoutes mounts the authentication and personnel management routes.
// Path spellings, /editPersinal included, are kept for client compatibility.
func (h *Handler) RegisterRoutes(e *echo.Echo, mw *Middleware) {
	e.GET("/", h.LoginPage)
	e.POST("/", h.Login)
	e.GET("/logout", h.Logout)
	e.GET("/access-denied", h.AccessDenied)

	e.GET("/MainDoctorHome", h.Home, mw.CurrentStaff(), RequireRole(RoleMainDoctor))
	e.GET("/DoctorHome", h.Home, mw.CurrentStaff(), RequireRole(RoleDoctor, RoleMainDoctor))
	e.GET("/NurseHome", h.Home, mw.CurrentStaff(), RequireRole(RoleNurse))

	admin := e.Group("", mw.CurrentStaff(), RequireRole(RoleMainDoctor))
	admin.GET("/addPersonal", h.AddForm)
	admin.POST("/addPersonal", h.Add)
	admin.GET("/editPersinal", h.ListPersonnel)
	admin.POST("/personal/update", h.Update)
	admin.POST("/personal/delete", h.Delete)
}

// LoginPage renders the login view model. The error flag survives the
// redirect after a failed attempt.
func (h *Handler) LoginPage(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"page":  "login",
		"error": c.QueryParam("error") == "true",
	})
}

// Login authenticates the submitted credentials and routes the user to the
// landing page for their role. Failures land back on the login page with the
// error flag set, never distinguishing bad login from bad password.
func (h *Handler) Login(c echo.Context) error {
	login := c.FormValue("login")
	password := c.FormValue("password")

	member, err := h.svc.Authenticate(c.Request().Context(), login, password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return c.Redirect(http.StatusSeeOther, "/?error=true")
		}
		h.log.Error().Err(err).Msg("login failed")
		return c.Redirect(http.StatusSeeOther, "/error")
	}

	if err := h.sessions.Issue(c, member.ID); err != nil {
		h.log.Error().Err(err).Msg("issue session")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	return c.Redirect(http.StatusSeeOther, member.Role.HomePath())
}

func (h *Handler) Logout(c echo.Context) error {
	h.sessions.Clear(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *Handler) AccessDenied(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{
		"page":    "access-denied",
		"message": "Доступ заборонено",
	})
}

// Home renders the role landing page for the current user. The same handler
// serves all three homes; the route guard has already checked the role.
func (h *Handler) Home(c echo.Context) error {
	member := FromContext(c)
	return c.JSON(http.StatusOK, echo.Map{
		"page":  "home",
		"staff": member.Summary(),
	})
}

func (h *Handler) AddForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"page": "add-personnel"})
}

func (h *Handler) Add(c echo.Context) error {
	in := formInput(c)
	_, err := h.svc.Create(c.Request().Context(), FromContext(c), in)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/editPersinal?saved=true")
}

// ListPersonnel lists every staff member except the current one, optionally
// narrowed by searchType/search, paginated.
func (h *Handler) ListPersonnel(c echo.Context) error {
	members, err := h.svc.ListOthers(c.Request().Context(), FromContext(c))
	if err != nil {
		h.log.Error().Err(err).Msg("list personnel")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	members = h.svc.Filter(members, c.QueryParam("searchType"), c.QueryParam("search"))

	params := pagination.FromContext(c)
	total := len(members)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	page := make([]Summary, 0, end-start)
	for _, m := range members[start:end] {
		page = append(page, m.Summary())
	}

	// Flash-style outcome message carried through the redirect.
	message := ""
	switch {
	case c.QueryParam("saved") == "true":
		message = "Дані збережено"
	case c.QueryParam("deleted") == "true":
		message = "Працівника видалено"
	}

	return c.JSON(http.StatusOK, echo.Map{
		"message":   message,
		"personnel": pagination.NewResponse(page, total, params.Limit, params.Offset),
	})
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.FormValue("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	in := formInput(c)
	if _, err := h.svc.Update(c.Request().Context(), FromContext(c), id, in); err != nil {
		return h.writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/editPersinal?saved=true")
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := uuid.Parse(c.FormValue("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	if err := h.svc.Delete(c.Request().Context(), FromContext(c), id); err != nil {
		return h.writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/editPersinal?deleted=true")
}

func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return c.Redirect(http.StatusSeeOther, "/access-denied")
	case errors.Is(err, ErrNotFound):
		return c.Redirect(http.StatusSeeOther, "/error")
	case errors.Is(err, ErrSelfDeletion):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"errors": echo.Map{"id": "не можна видалити власний обліковий запис"},
		})
	case errors.Is(err, ErrHasPatients):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"errors": echo.Map{"id": "у працівника є активні пацієнти"},
		})
	}
	if fe, ok := validation.AsFieldErrors(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fe})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("personnel operation failed")
	return c.Redirect(http.StatusSeeOther, "/error")
}

func formInput(c echo.Context) Input {
	return Input{
		FullName:  c.FormValue("fullName"),
		Login:     c.FormValue("login"),
		Phone:     c.FormValue("phone"),
		Position:  c.FormValue("position"),
		Specialty: c.FormValue("specialty"),
		Email:     c.FormValue("email"),
		Password:  c.FormValue("password"),
	}
}
