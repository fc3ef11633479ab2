package history

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/staff"
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
	e.GET("/historypatients", h.List, mw.CurrentStaff(), staff.RequireAuthenticated())
}

// List renders the discharge archive, filtered by the search form and
// paginated.
func (h *Handler) List(c echo.Context) error {
	records, err := h.svc.Search(c.Request().Context(), staff.FromContext(c),
		c.QueryParam("searchType"), c.QueryParam("search"))
	if err != nil {
		h.log.Error().Err(err).Msg("search history")
		return c.Redirect(http.StatusSeeOther, "/error")
	}

	params := pagination.FromContext(c)
	total := len(records)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, pagination.NewResponse(records[start:end], total, params.Limit, params.Offset))
}
