package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetdesk/service-reservation/internal/application"
	"github.com/vetdesk/service-reservation/internal/platform/auth"
	"github.com/vetdesk/service-reservation/internal/platform/middleware"
	"github.com/vetdesk/service-reservation/internal/platform/response"
)

// PetHandler handles HTTP requests for pet profile operations.
type PetHandler struct {
	service      *application.PetService
	reservations *application.ReservationService
}

// NewPetHandler creates a new PetHandler.
func NewPetHandler(service *application.PetService, reservations *application.ReservationService) *PetHandler {
	return &PetHandler{service: service, reservations: reservations}
}

// RegisterRoutes registers all pet profile routes.
func (h *PetHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	pets := r.Group("/api/v1/pets")
	pets.Use(authMW)
	{
		pets.POST("", h.CreatePet)
		pets.GET("", h.GetMyPets)
		pets.GET("/:id", h.GetPet)
		pets.PUT("/:id", h.UpdatePet)
		pets.DELETE("/:id", h.ArchivePet)
		pets.GET("/:id/history", h.ReservationHistory)
	}
}

// CreatePet handles POST /api/v1/pets.
func (h *PetHandler) CreatePet(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreatePet(c.Request.Context(), ownerID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// GetMyPets handles GET /api/v1/pets.
func (h *PetHandler) GetMyPets(c *gin.Context) {
	ownerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	result, err := h.service.ListPetsByOwner(c.Request.Context(), ownerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// GetPet handles GET /api/v1/pets/:id.
func (h *PetHandler) GetPet(c *gin.Context) {
	callerID, isAdmin, ok := callerIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pet ID")
		return
	}

	result, err := h.service.GetPet(c.Request.Context(), id, callerID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// UpdatePet handles PUT /api/v1/pets/:id.
func (h *PetHandler) UpdatePet(c *gin.Context) {
	callerID, isAdmin, ok := callerIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pet ID")
		return
	}

	var req application.UpdatePetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdatePet(c.Request.Context(), id, callerID, isAdmin, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ArchivePet handles DELETE /api/v1/pets/:id. Profiles are archived rather
// than removed so reservation history stays intact.
func (h *PetHandler) ArchivePet(c *gin.Context) {
	callerID, isAdmin, ok := callerIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pet ID")
		return
	}

	result, err := h.service.ArchivePet(c.Request.Context(), id, callerID, isAdmin)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// ReservationHistory handles GET /api/v1/pets/:id/history.
func (h *PetHandler) ReservationHistory(c *gin.Context) {
	callerID, isAdmin, ok := callerIdentity(c)
	if !ok {
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid pet ID")
		return
	}

	// Ownership gate reuses the profile read rules.
	if _, err := h.service.GetPet(c.Request.Context(), id, callerID, isAdmin); err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.reservations.ReservationHistory(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

func callerIdentity(c *gin.Context) (uuid.UUID, bool, bool) {
	callerID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return uuid.Nil, false, false
	}
	role, _ := middleware.GetUserRole(c)
	isAdmin := role == auth.RoleAdmin || role == auth.RoleStaff
	return callerID, isAdmin, true
}
