package teleconsult

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinicore/clinicore/internal/platform/auth"
	"github.com/clinicore/clinicore/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/teleconsult", auth.RequireRole("admin", "physician", "nurse"))

	g.GET("/sessions", h.ListSessions)
	g.GET("/sessions/stats", h.SessionStats)
	g.GET("/sessions/:id", h.GetSession)
	g.POST("/sessions", h.CreateSession)
	g.POST("/sessions/:id/assign", h.AssignDoctor)
	g.POST("/sessions/:id/connect", h.MarkConnecting)
	g.POST("/sessions/:id/start", h.StartSession)
	g.POST("/sessions/:id/wrap-up", h.BeginWrapUp)
	g.POST("/sessions/:id/end", h.EndSession)
	g.POST("/sessions/:id/no-show", h.MarkNoShow)
	g.POST("/sessions/:id/cancel", h.Cancel)

	g.GET("/doctors", h.ListDoctors)
	g.GET("/doctors/:id", h.GetDoctor)
	g.POST("/doctors", h.AddDoctor)
	g.POST("/doctors/:id/check-in", h.CheckInDoctor)
	g.POST("/doctors/:id/status", h.UpdateDoctorStatus)
}

type createSessionRequest struct {
	PatientName    string          `json:"patient_name"`
	Type           SessionType     `json:"type"`
	Priority       SessionPriority `json:"priority"`
	Specialty      string          `json:"specialty"`
	ChiefComplaint string          `json:"chief_complaint"`
	ScheduledTime  *time.Time      `json:"scheduled_time"`
}

func (h *Handler) CreateSession(c echo.Context) error {
	var req createSessionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sess, err := h.svc.CreateSession(c.Request().Context(), NewSessionInput{
		PatientName:    req.PatientName,
		Type:           req.Type,
		Priority:       req.Priority,
		Specialty:      req.Specialty,
		ChiefComplaint: req.ChiefComplaint,
		ScheduledTime:  req.ScheduledTime,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, sess)
}

func (h *Handler) GetSession(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sess, ok, err := h.svc.GetSession(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) ListSessions(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := SessionListFilter{
		Status:     SessionStatus(c.QueryParam("status")),
		Specialty:  c.QueryParam("specialty"),
		ActiveOnly: c.QueryParam("active") == "true",
	}
	sessions, total, err := h.svc.ListSessions(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(sessions, total, pg.Limit, pg.Offset))
}

func (h *Handler) SessionStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

type assignDoctorRequest struct {
	DoctorID uuid.UUID `json:"doctor_id"`
}

func (h *Handler) AssignDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req assignDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.DoctorID == uuid.Nil {
		return echo.NewHTTPError(http.StatusBadRequest, "doctor_id is required")
	}
	sess, _, err := h.svc.AssignDoctor(c.Request().Context(), id, req.DoctorID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess)
}

func (h *Handler) MarkConnecting(c echo.Context) error {
	return h.sessionAction(c, h.svc.MarkConnecting)
}

func (h *Handler) StartSession(c echo.Context) error {
	return h.sessionAction(c, h.svc.StartSession)
}

func (h *Handler) BeginWrapUp(c echo.Context) error {
	return h.sessionAction(c, h.svc.BeginWrapUp)
}

func (h *Handler) EndSession(c echo.Context) error {
	return h.sessionAction(c, h.svc.EndSession)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	return h.sessionAction(c, h.svc.MarkNoShow)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.sessionAction(c, h.svc.Cancel)
}

type sessionOp func(ctx context.Context, id uuid.UUID) (*Session, bool, error)

func (h *Handler) sessionAction(c echo.Context, op sessionOp) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	sess, _, err := op(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if sess == nil {
		return echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return c.JSON(http.StatusOK, sess)
}

type addDoctorRequest struct {
	Name          string `json:"name"`
	Specialty     string `json:"specialty"`
	ShiftStart    string `json:"shift_start"`
	ShiftEnd      string `json:"shift_end"`
	ScheduledDate string `json:"scheduled_date"`
}

func (h *Handler) AddDoctor(c echo.Context) error {
	var req addDoctorRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, err := h.svc.AddDoctor(c.Request().Context(), &Doctor{
		Name:          req.Name,
		Specialty:     req.Specialty,
		ShiftStart:    req.ShiftStart,
		ShiftEnd:      req.ShiftEnd,
		ScheduledDate: req.ScheduledDate,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, doc)
}

func (h *Handler) GetDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, ok, err := h.svc.GetDoctor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) ListDoctors(c echo.Context) error {
	doctors, err := h.svc.ListDoctors(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, doctors)
}

func (h *Handler) CheckInDoctor(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	doc, _, err := h.svc.CheckInDoctor(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doc)
}

type doctorStatusRequest struct {
	Status   DoctorStatus `json:"status"`
	Activity *string      `json:"activity"`
}

func (h *Handler) UpdateDoctorStatus(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req doctorStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	doc, _, err := h.svc.UpdateDoctorStatus(c.Request().Context(), id, req.Status, req.Activity)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if doc == nil {
		return echo.NewHTTPError(http.StatusNotFound, "doctor not found")
	}
	return c.JSON(http.StatusOK, doc)
}
