package reporting

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/pkg/civil"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/appointments/calendar", h.Calendar)
	api.GET("/appointments/attended-sessions", h.AttendedSessions)
	api.GET("/appointments/patient-report", h.PatientReport)
}

func (h *Handler) Calendar(c echo.Context) error {
	// The range narrows the feed only when both bounds parse; a lone or
	// malformed bound leaves the feed unfiltered.
	var start, end *civil.Date
	if s, e := c.QueryParam("start"), c.QueryParam("end"); s != "" && e != "" {
		sd, errS := civil.ParseDate(s)
		ed, errE := civil.ParseDate(e)
		if errS == nil && errE == nil {
			start, end = &sd, &ed
		}
	}

	var patientID *uuid.UUID
	if p := c.QueryParam("patient"); p != "" {
		pid, err := uuid.Parse(p)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid patient")
		}
		patientID = &pid
	}

	events, err := h.svc.Calendar(c.Request().Context(), start, end, patientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if events == nil {
		events = []CalendarEvent{}
	}
	return c.JSON(http.StatusOK, events)
}

func (h *Handler) AttendedSessions(c echo.Context) error {
	p, s, e := c.QueryParam("patient"), c.QueryParam("start"), c.QueryParam("end")
	if p == "" || s == "" || e == "" {
		return echo.NewHTTPError(http.StatusBadRequest,
			"patient, start and end query parameters are required")
	}
	patientID, err := uuid.Parse(p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient")
	}
	start, err := civil.ParseDate(s)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	end, err := civil.ParseDate(e)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	log, err := h.svc.Attendance(c.Request().Context(), patientID, start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, log)
}

func (h *Handler) PatientReport(c echo.Context) error {
	p := c.QueryParam("patient")
	if p == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "patient query parameter is required")
	}
	patientID, err := uuid.Parse(p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient")
	}

	var start, end *civil.Date
	if s := c.QueryParam("start"); s != "" {
		sd, err := civil.ParseDate(s)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		start = &sd
	}
	if e := c.QueryParam("end"); e != "" {
		ed, err := civil.ParseDate(e)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		end = &ed
	}

	report, err := h.svc.Report(c.Request().Context(), patientID, start, end)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, report)
}
