package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetdesk/service-reservation/internal/application"
	"github.com/vetdesk/service-reservation/internal/platform/auth"
	"github.com/vetdesk/service-reservation/internal/platform/middleware"
	"github.com/vetdesk/service-reservation/internal/platform/response"
)

// ReservationHandler handles HTTP requests for reservation operations.
type ReservationHandler struct {
	service *application.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(service *application.ReservationService) *ReservationHandler {
	return &ReservationHandler{service: service}
}

// RegisterRoutes registers all reservation routes on the given router group.
func (h *ReservationHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	reservations := r.Group("/api/v1/reservations")
	reservations.Use(authMW)
	{
		reservations.POST("", h.CreateReservation)
		reservations.GET("", h.ListReservations)
		reservations.GET("/slots", h.GetFreeSlots)
		reservations.GET("/number/:number", h.GetByNumber)
		reservations.GET("/:id", h.GetReservation)
		reservations.PATCH("/:id", h.UpdateReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
		reservations.DELETE("/:id", middleware.RequireRole(auth.RoleStaff, auth.RoleAdmin), h.DeleteReservation)
	}
}

// CreateReservation handles POST /api/v1/reservations.
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	// Clients always book for themselves; staff may book on a client's behalf.
	role, _ := middleware.GetUserRole(c)
	if role == auth.RoleClient {
		req.ClientID = userID
	}

	result, err := h.service.CreateReservation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// ListReservations handles GET /api/v1/reservations. Each call runs the
// stale-reservation sweep before returning results. Clients see only their
// own reservations.
func (h *ReservationHandler) ListReservations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var filter application.ListReservationsFilter
	if statuses, ok := c.GetQueryArray("status"); ok {
		filter.Statuses = statuses
	}
	if raw := c.Query("pet_id"); raw != "" {
		petID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid pet_id")
			return
		}
		filter.PetID = &petID
	}
	if raw := c.Query("client_id"); raw != "" {
		clientID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid client_id")
			return
		}
		filter.ClientID = &clientID
	}
	if raw := c.Query("date"); raw != "" {
		filter.Date = &raw
	}

	role, _ := middleware.GetUserRole(c)
	if role == auth.RoleClient {
		filter.ClientID = &userID
	}

	result, err := h.service.ListReservations(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetFreeSlots handles GET /api/v1/reservations/slots.
func (h *ReservationHandler) GetFreeSlots(c *gin.Context) {
	req := application.SlotsRequest{Date: c.Query("date")}
	if req.Date == "" {
		response.BadRequest(c, "date query parameter is required")
		return
	}

	var err error
	if req.StartHour, err = optionalIntQuery(c, "start_hour"); err != nil {
		response.BadRequest(c, "invalid start_hour")
		return
	}
	if req.EndHour, err = optionalIntQuery(c, "end_hour"); err != nil {
		response.BadRequest(c, "invalid end_hour")
		return
	}
	if req.SlotMinutes, err = optionalIntQuery(c, "slot_minutes"); err != nil {
		response.BadRequest(c, "invalid slot_minutes")
		return
	}
	if raw := c.Query("assignee_id"); raw != "" {
		assigneeID, err := uuid.Parse(raw)
		if err != nil {
			response.BadRequest(c, "invalid assignee_id")
			return
		}
		req.AssigneeID = &assigneeID
	}

	slots, err := h.service.GenerateFreeSlots(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, slots)
}

// GetReservation handles GET /api/v1/reservations/:id.
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	result, err := h.service.GetReservation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetByNumber handles GET /api/v1/reservations/number/:number.
func (h *ReservationHandler) GetByNumber(c *gin.Context) {
	result, err := h.service.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdateReservation handles PATCH /api/v1/reservations/:id.
func (h *ReservationHandler) UpdateReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	var req application.UpdateReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateReservation(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// CancelReservation handles POST /api/v1/reservations/:id/cancel.
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	result, err := h.service.CancelReservation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// DeleteReservation handles DELETE /api/v1/reservations/:id (staff/admin).
func (h *ReservationHandler) DeleteReservation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid reservation ID")
		return
	}

	result, err := h.service.DeleteReservation(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func optionalIntQuery(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
