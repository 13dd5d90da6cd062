package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/pkg/errors"
	"aulanet/pkg/validation"
)

// CalendarUsersHandler manages the event-participant association rows.
type CalendarUsersHandler struct {
	calendarService *services.CalendarService
	authService     services.AuthService
}

func NewCalendarUsersHandler(calendarService *services.CalendarService, authService services.AuthService) *CalendarUsersHandler {
	return &CalendarUsersHandler{
		calendarService: calendarService,
		authService:     authService,
	}
}

func (h *CalendarUsersHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/calendar-users")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.GET("/:eventId", h.List)
		api.POST("/:eventId", h.Add)
		api.DELETE("/:eventId/:userId", h.Remove)
	}
}

func (h *CalendarUsersHandler) List(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}

	participants, err := h.calendarService.Participants(c.Request.Context(), eventID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, participants)
}

func (h *CalendarUsersHandler) Add(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}

	var req ParticipantRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}
	if err := validation.ValidateRole(req.Role); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	p := domain.EventParticipant{
		UserID: domain.UserID(req.UserID),
		Role:   domain.Role(req.Role),
	}
	if err := h.calendarService.AddParticipant(c.Request.Context(), eventID, p); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (h *CalendarUsersHandler) Remove(c *gin.Context) {
	eventID, err := strconv.ParseInt(c.Param("eventId"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}
	userID, err := strconv.ParseInt(c.Param("userId"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid user id"))
		return
	}

	if err := h.calendarService.RemoveParticipant(c.Request.Context(), eventID, domain.UserID(userID)); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": userID})
}
