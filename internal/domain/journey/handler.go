package journey

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
	read := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	read.GET("/queue", h.ListPatients)
	read.GET("/queue/stats", h.QueueStats)
	read.GET("/queue/:id", h.GetPatient)

	write := api.Group("", auth.RequireRole("admin", "physician", "nurse", "registrar"))
	write.POST("/queue/check-in", h.CheckIn)
	write.POST("/queue/call-next", h.CallNext)
	write.POST("/queue/:id/transfer", h.Transfer)
	write.POST("/queue/:id/start", h.StartPatient)
	write.POST("/queue/:id/complete", h.Complete)
	write.POST("/queue/:id/no-show", h.MarkNoShow)
	write.POST("/queue/:id/skip", h.Skip)
	write.POST("/queue/:id/pause", h.Pause)
	write.POST("/queue/:id/resume", h.Resume)
	write.POST("/queue/:id/orders", h.AddOrders)
	write.POST("/queue/:id/orders/complete-current", h.CompleteCurrentOrder)
	write.POST("/queue/:id/orders/:orderID/start", h.StartOrder)
	write.POST("/queue/:id/orders/:orderID/complete", h.CompleteOrder)
	write.POST("/queue/:id/orders/:orderID/defer", h.DeferOrder)
}

type checkInRequest struct {
	Name           string   `json:"name"`
	ChiefComplaint string   `json:"chief_complaint"`
	Priority       Priority `json:"priority"`
}

func (h *Handler) CheckIn(c echo.Context) error {
	var req checkInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CheckIn(c.Request().Context(), req.Name, req.ChiefComplaint, req.Priority)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, ok, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		Station:    Station(c.QueryParam("station")),
		Status:     Status(c.QueryParam("status")),
		ActiveOnly: c.QueryParam("active") == "true",
	}
	patients, total, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(patients, total, pg.Limit, pg.Offset))
}

func (h *Handler) QueueStats(c echo.Context) error {
	stats, err := h.svc.Stats(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

type transferRequest struct {
	Station  Station `json:"station"`
	RoomID   string  `json:"room_id"`
	RoomName string  `json:"room_name"`
	Doctor   string  `json:"doctor"`
}

func (h *Handler) Transfer(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req transferRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	var room *RoomAssignment
	if req.RoomID != "" || req.RoomName != "" || req.Doctor != "" {
		room = &RoomAssignment{RoomID: req.RoomID, RoomName: req.RoomName, Doctor: req.Doctor}
	}
	p, _, err := h.svc.Transfer(c.Request().Context(), id, req.Station, room)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

type callNextRequest struct {
	Station   Station    `json:"station"`
	PatientID *uuid.UUID `json:"patient_id"`
}

type callNextResponse struct {
	Called  bool          `json:"called"`
	Patient *QueuePatient `json:"patient,omitempty"`
}

func (h *Handler) CallNext(c echo.Context) error {
	var req callNextRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, applied, err := h.svc.CallNext(c.Request().Context(), req.Station, req.PatientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, callNextResponse{Called: applied, Patient: p})
}

type pauseRequest struct {
	Reason     string     `json:"reason"`
	Notes      *string    `json:"notes"`
	ResumeDate *time.Time `json:"resume_date"`
}

func (h *Handler) Pause(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req pauseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, _, err := h.svc.Pause(c.Request().Context(), id, req.Reason, req.Notes, req.ResumeDate)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

type addOrdersRequest struct {
	Types []OrderType `json:"types"`
	Mode  OrderMode   `json:"mode"`
}

func (h *Handler) AddOrders(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req addOrdersRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, _, err := h.svc.AddOrders(c.Request().Context(), id, req.Types, req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) StartPatient(c echo.Context) error {
	return h.patientAction(c, h.svc.StartPatient)
}

func (h *Handler) Complete(c echo.Context) error {
	return h.patientAction(c, h.svc.Complete)
}

func (h *Handler) MarkNoShow(c echo.Context) error {
	return h.patientAction(c, h.svc.MarkNoShow)
}

func (h *Handler) Skip(c echo.Context) error {
	return h.patientAction(c, h.svc.Skip)
}

func (h *Handler) Resume(c echo.Context) error {
	return h.patientAction(c, h.svc.Resume)
}

func (h *Handler) CompleteCurrentOrder(c echo.Context) error {
	return h.patientAction(c, h.svc.CompleteCurrentOrder)
}

func (h *Handler) StartOrder(c echo.Context) error {
	return h.orderAction(c, h.svc.StartOrder)
}

func (h *Handler) CompleteOrder(c echo.Context) error {
	return h.orderAction(c, h.svc.CompleteOrder)
}

func (h *Handler) DeferOrder(c echo.Context) error {
	return h.orderAction(c, h.svc.DeferOrder)
}

type patientOp func(ctx context.Context, id uuid.UUID) (*QueuePatient, bool, error)

func (h *Handler) patientAction(c echo.Context, op patientOp) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, _, err := op(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

type orderOp func(ctx context.Context, id, orderID uuid.UUID) (*QueuePatient, bool, error)

func (h *Handler) orderAction(c echo.Context, op orderOp) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	orderID, err := uuid.Parse(c.Param("orderID"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid order id")
	}
	p, _, err := op(c.Request().Context(), id, orderID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if p == nil {
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}
