package announcement

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/validation"
	"github.com/hospreg/hospreg/pkg/pagination"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, mw *staff.Middleware) {
	admin := e.Group("", mw.CurrentStaff(), staff.RequireRole(staff.RoleMainDoctor))
	admin.GET("/addAnnouncement", h.AddForm)
	admin.POST("/addAnnouncement", h.Add)

	e.GET("/listAnnouncement", h.List, mw.CurrentStaff(), staff.RequireAuthenticated())
}

func (h *Handler) AddForm(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"page": "add-announcement"})
}

func (h *Handler) Add(c echo.Context) error {
	_, err := h.svc.Publish(c.Request().Context(), staff.FromContext(c),
		c.FormValue("title"), c.FormValue("content"))
	if err != nil {
		if errors.Is(err, ErrAccessDenied) {
			return c.Redirect(http.StatusSeeOther, "/access-denied")
		}
		if fe, ok := validation.AsFieldErrors(err); ok {
			return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fe})
		}
		h.log.Error().Err(err).Msg("publish announcement")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	return c.Redirect(http.StatusSeeOther, "/listAnnouncement")
}

// List shows announcements newest-first; every signed-in role may read them.
func (h *Handler) List(c echo.Context) error {
	params := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), params.Limit, params.Offset)
	if err != nil {
		h.log.Error().Err(err).Msg("list announcements")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, params.Limit, params.Offset))
}
