package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/pkg/errors"
)

type CalendarHandler struct {
	calendarService *services.CalendarService
	authService     services.AuthService
}

func NewCalendarHandler(calendarService *services.CalendarService, authService services.AuthService) *CalendarHandler {
	return &CalendarHandler{
		calendarService: calendarService,
		authService:     authService,
	}
}

func (h *CalendarHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/calendar")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.POST("", h.Create)
		api.GET("", h.List)
		api.GET("/:id", h.Get)
		api.PUT("/:id", h.Update)
		api.DELETE("/:id", h.Delete)
	}
}

type ParticipantRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	Role   string `json:"role" binding:"required"`
}

type CreateEventRequest struct {
	StartTime    time.Time            `json:"start_time" binding:"required"`
	EndTime      time.Time            `json:"end_time" binding:"required"`
	Title        string               `json:"title" binding:"required,max=200"`
	Comment      string               `json:"comment" binding:"max=2000"`
	Participants []ParticipantRequest `json:"participants" binding:"required"`
	RepeatWeekly bool                 `json:"repeatWeekly"`
	RepeatCount  int                  `json:"repeatCount"`
	RepeatUntil  *time.Time           `json:"repeatUntil"`
}

func (h *CalendarHandler) Create(c *gin.Context) {
	var req CreateEventRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	participants := make([]domain.EventParticipant, 0, len(req.Participants))
	for _, p := range req.Participants {
		participants = append(participants, domain.EventParticipant{
			UserID: domain.UserID(p.UserID),
			Role:   domain.Role(p.Role),
		})
	}

	events, err := h.calendarService.CreateEvents(c.Request.Context(), services.CreateEventInput{
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Title:        strings.TrimSpace(req.Title),
		Comment:      strings.TrimSpace(req.Comment),
		Participants: participants,
		RepeatWeekly: req.RepeatWeekly,
		RepeatCount:  req.RepeatCount,
		RepeatUntil:  req.RepeatUntil,
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, events)
}

func (h *CalendarHandler) List(c *gin.Context) {
	var user domain.UserID
	if raw := c.Query("user_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.Error(errors.NewInvalidInputError("invalid user_id filter"))
			return
		}
		user = domain.UserID(id)
	}

	events, err := h.calendarService.List(c.Request.Context(), user)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *CalendarHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}

	event, err := h.calendarService.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, event)
}

type UpdateEventRequest struct {
	StartTime time.Time `json:"start_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
	Title     string    `json:"title" binding:"required,max=200"`
	Comment   string    `json:"comment" binding:"max=2000"`
}

func (h *CalendarHandler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}

	var req UpdateEventRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	event, err := h.calendarService.Update(c.Request.Context(), id,
		req.StartTime, req.EndTime, strings.TrimSpace(req.Title), strings.TrimSpace(req.Comment))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *CalendarHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid event id"))
		return
	}

	if err := h.calendarService.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}
