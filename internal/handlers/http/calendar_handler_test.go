package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/email"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/internal/infrastructure/repositories/memory"
	"aulanet/internal/infrastructure/storage"
)

type calendarFixture struct {
	router  *gin.Engine
	token   string
	teacher domain.User
	student domain.User
}

func newCalendarFixture(t *testing.T) *calendarFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t).Sugar()
	auth := services.NewAuthService("test-secret", time.Hour)
	userRepo := memory.NewUserRepository()
	users := services.NewUserService(userRepo, auth, storage.NewMemoryStorage(), "user-images", logger)
	calendar := services.NewCalendarService(memory.NewCalendarRepository(), userRepo, email.NewConsoleMailer(logger), logger)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	NewUserHandler(users, auth).SetupRoutes(router)
	NewCalendarHandler(calendar, auth).SetupRoutes(router)
	NewCalendarUsersHandler(calendar, auth).SetupRoutes(router)

	f := &calendarFixture{router: router}
	f.teacher, f.token = registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Pablo", Email: "pablo@academy.test", Password: "secreto", Role: "student",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &f.student))
	return f
}

func (f *calendarFixture) lessonRequest(start time.Time) CreateEventRequest {
	return CreateEventRequest{
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		Title:     "Clase de guitarra",
		Participants: []ParticipantRequest{
			{UserID: int64(f.teacher.ID), Role: "teacher"},
			{UserID: int64(f.student.ID), Role: "student"},
		},
	}
}

func TestCalendarHandler_CreateAndGet(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, f.lessonRequest(start))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var events []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 1)
	assert.NotEmpty(t, events[0].CallKey)

	w = doJSON(t, f.router, http.MethodGet, fmt.Sprintf("/api/calendar/%d", events[0].ID), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Filtered listing by participant.
	w = doJSON(t, f.router, http.MethodGet, fmt.Sprintf("/api/calendar?user_id=%d", f.student.ID), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var listed []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)
}

func TestCalendarHandler_OverlapIsConflict(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, f.lessonRequest(start))
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, f.lessonRequest(start.Add(30*time.Minute)))
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestCalendarHandler_RoleCompositionRejected(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	req := f.lessonRequest(start)
	req.Participants = req.Participants[:1] // teacher only
	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, req)
	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestCalendarHandler_WeeklyRepeat(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	req := f.lessonRequest(start)
	req.RepeatWeekly = true
	req.RepeatCount = 3
	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var events []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	require.Len(t, events, 3)
	for i, ev := range events {
		assert.Equal(t, start.AddDate(0, 0, 7*i), ev.StartTime.UTC())
	}
}

func TestCalendarHandler_UpdateAndDelete(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, f.lessonRequest(start))
	require.Equal(t, http.StatusCreated, w.Code)
	var events []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	id := events[0].ID

	w = doJSON(t, f.router, http.MethodPut, fmt.Sprintf("/api/calendar/%d", id), f.token, UpdateEventRequest{
		StartTime: start.Add(2 * time.Hour),
		EndTime:   start.Add(3 * time.Hour),
		Title:     "Clase movida",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, f.router, http.MethodDelete, fmt.Sprintf("/api/calendar/%d", id), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.router, http.MethodGet, fmt.Sprintf("/api/calendar/%d", id), f.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCalendarUsersHandler_ParticipantLifecycle(t *testing.T) {
	f := newCalendarFixture(t)
	start := time.Date(2026, 9, 7, 10, 0, 0, 0, time.UTC)

	w := doJSON(t, f.router, http.MethodPost, "/api/calendar", f.token, f.lessonRequest(start))
	require.Equal(t, http.StatusCreated, w.Code)
	var events []domain.CalendarEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &events))
	id := events[0].ID

	// Third user joins the event.
	w = doJSON(t, f.router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Lucía", Email: "lucia@academy.test", Password: "secreto", Role: "student",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var lucia domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lucia))

	w = doJSON(t, f.router, http.MethodPost, fmt.Sprintf("/api/calendar-users/%d", id), f.token, ParticipantRequest{
		UserID: int64(lucia.ID), Role: "student",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, f.router, http.MethodGet, fmt.Sprintf("/api/calendar-users/%d", id), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var participants []domain.EventParticipant
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &participants))
	assert.Len(t, participants, 3)

	w = doJSON(t, f.router, http.MethodDelete, fmt.Sprintf("/api/calendar-users/%d/%d", id, lucia.ID), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, f.router, http.MethodGet, fmt.Sprintf("/api/calendar-users/%d", id), f.token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	participants = nil
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &participants))
	assert.Len(t, participants, 2)
}
