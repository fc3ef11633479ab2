package patient

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hospreg/hospreg/internal/domain/staff"
	"github.com/hospreg/hospreg/internal/validation"
	"github.com/hospreg/hospreg/pkg/pagination"
)

// Form layouts: stay boundaries come from datetime-local inputs, birth date
// from a plain date input.
const (
	stayLayout  = "2006-01-02T15:04"
	birthLayout = "2006-01-02"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(e *echo.Echo, mw *staff.Middleware) {
	nurse := e.Group("", mw.CurrentStaff(), staff.RequireRole(staff.RoleNurse))
	nurse.GET("/patients/add", h.AdmitForm)
	nurse.POST("/patients/add", h.Admit)

	e.GET("/AllReview", h.AllReview, mw.CurrentStaff(),
		staff.RequireRole(staff.RoleNurse, staff.RoleDoctor, staff.RoleMainDoctor))

	docs := e.Group("", mw.CurrentStaff(), staff.RequireRole(staff.RoleDoctor, staff.RoleMainDoctor))
	docs.GET("/DoctorHome/dashboard/:doctorId", h.Dashboard)
	docs.GET("/patients/edit/:id", h.EditForm)
	docs.POST("/patients/edit/:id", h.Edit)
	docs.GET("/patients/discharge/:id", h.DischargeForm)
	docs.POST("/patients/discharge/update", h.UpdateDischarge)
	docs.POST("/patients/delete", h.Discharge)
}

func (h *Handler) AdmitForm(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list doctors")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "add-patient",
		"doctors": doctors,
	})
}

func (h *Handler) Admit(c echo.Context) error {
	in := formInput(c)
	if _, err := h.svc.Admit(c.Request().Context(), staff.FromContext(c), in); err != nil {
		return h.writeError(c, err)
	}
	return c.Redirect(http.StatusSeeOther, "/NurseHome")
}

// AllReview lists admitted patients for the review page, filtered by the
// search form. Plain doctors see only their own patients; nurses and the main
// doctor see everyone. The view field tells the client which variant to
// render: nurses get a read-only table without the edit and discharge links.
func (h *Handler) AllReview(c echo.Context) error {
	actor := staff.FromContext(c)
	patients, err := h.svc.Search(c.Request().Context(), actor,
		c.QueryParam("searchType"), c.QueryParam("search"))
	if err != nil {
		return h.writeError(c, err)
	}

	view := "doctor"
	switch {
	case actor.IsMainDoctor():
		view = "main_doctor"
	case actor.IsNurse():
		view = "nurse"
	}

	params := pagination.FromContext(c)
	total := len(patients)
	start := params.Offset
	if start > total {
		start = total
	}
	end := start + params.Limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, echo.Map{
		"page":     "all-review",
		"view":     view,
		"patients": pagination.NewResponse(patients[start:end], total, params.Limit, params.Offset),
	})
}

// Dashboard lists one doctor's admitted patients with the same search form.
func (h *Handler) Dashboard(c echo.Context) error {
	doctorID, err := uuid.Parse(c.Param("doctorId"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	patients, err := h.svc.Dashboard(c.Request().Context(), staff.FromContext(c), doctorID,
		c.QueryParam("searchType"), c.QueryParam("search"))
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":      "doctor-dashboard",
		"doctor_id": doctorID,
		"patients":  patients,
	})
}

func (h *Handler) EditForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	p, err := h.svc.Get(c.Request().Context(), staff.FromContext(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		h.log.Error().Err(err).Msg("list doctors")
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "edit-patient",
		"patient": p,
		"doctors": doctors,
	})
}

func (h *Handler) Edit(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	in := formInput(c)
	if _, err := h.svc.Edit(c.Request().Context(), staff.FromContext(c), id, in); err != nil {
		return h.writeError(c, err)
	}
	return h.redirectHome(c)
}

// DischargeForm renders the discharge page for one patient.
func (h *Handler) DischargeForm(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	p, err := h.svc.Get(c.Request().Context(), staff.FromContext(c), id)
	if err != nil {
		return h.writeError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":    "discharge-patient",
		"patient": p,
	})
}

// Discharge moves the patient into the history archive.
func (h *Handler) Discharge(c echo.Context) error {
	id, err := uuid.Parse(c.FormValue("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	if err := h.svc.Discharge(c.Request().Context(), staff.FromContext(c), id); err != nil {
		return h.writeError(c, err)
	}
	return h.redirectHome(c)
}

func (h *Handler) UpdateDischarge(c echo.Context) error {
	id, err := uuid.Parse(c.FormValue("id"))
	if err != nil {
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	dischargeAt, _ := time.Parse(stayLayout, c.FormValue("appointmentDateTo"))
	if _, err := h.svc.UpdateDischargeDate(c.Request().Context(), staff.FromContext(c), id, dischargeAt); err != nil {
		return h.writeError(c, err)
	}
	return h.redirectHome(c)
}

// redirectHome sends the actor back to their patient list after a mutation.
func (h *Handler) redirectHome(c echo.Context) error {
	actor := staff.FromContext(c)
	if actor.IsMainDoctor() {
		return c.Redirect(http.StatusSeeOther, "/AllReview")
	}
	return c.Redirect(http.StatusSeeOther, "/DoctorHome/dashboard/"+actor.ID.String())
}

func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrAccessDenied):
		return c.Redirect(http.StatusSeeOther, "/access-denied")
	case errors.Is(err, ErrNotFound):
		return c.Redirect(http.StatusSeeOther, "/error")
	}
	if fe, ok := validation.AsFieldErrors(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"errors": fe})
	}
	h.log.Error().Err(err).Str("path", c.Path()).Msg("patient operation failed")
	return c.Redirect(http.StatusSeeOther, "/error")
}

func formInput(c echo.Context) Input {
	ward, _ := strconv.Atoi(c.FormValue("ward"))
	bed, _ := strconv.Atoi(c.FormValue("bed"))
	birth, _ := time.Parse(birthLayout, c.FormValue("birthDate"))
	admitted, _ := time.Parse(stayLayout, c.FormValue("appointmentDateFrom"))
	discharge, _ := time.Parse(stayLayout, c.FormValue("appointmentDateTo"))
	doctorID, _ := uuid.Parse(c.FormValue("doctorId"))

	return Input{
		FullName:    c.FormValue("fullName"),
		Phone:       c.FormValue("phone"),
		BirthDate:   birth,
		Department:  c.FormValue("department"),
		Diagnosis:   c.FormValue("diagnosis"),
		Notes:       c.FormValue("notes"),
		Ward:        ward,
		Bed:         bed,
		AdmittedAt:  admitted,
		DischargeAt: discharge,
		DoctorID:    doctorID,
	}
}
