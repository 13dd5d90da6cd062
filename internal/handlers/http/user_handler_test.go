package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/internal/infrastructure/repositories/memory"
	"aulanet/internal/infrastructure/storage"
)

func newUserRouter(t *testing.T) (*gin.Engine, services.AuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := zaptest.NewLogger(t).Sugar()
	auth := services.NewAuthService("test-secret", time.Hour)
	users := services.NewUserService(memory.NewUserRepository(), auth, storage.NewMemoryStorage(), "user-images", logger)

	router := gin.New()
	router.Use(middleware.RecoveryMiddleware(logger))
	router.Use(middleware.ErrorHandlerMiddleware(logger))
	NewUserHandler(users, auth).SetupRoutes(router)
	return router, auth
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndLogin(t *testing.T, router *gin.Engine, email string) (domain.User, string) {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Marta", Email: email, Password: "secreto", Role: "teacher", IsAdmin: true,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodPost, "/api/users/login", "", LoginRequest{
		Email: email, Password: "secreto",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		User  domain.User `json:"user"`
		Token string      `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.User, resp.Token
}

func TestUserHandler_RegisterAndLogin(t *testing.T) {
	router, _ := newUserRouter(t)

	user, token := registerAndLogin(t, router, "marta@academy.test")
	assert.Equal(t, "Marta", user.Name)
	assert.Equal(t, domain.RoleTeacher, user.Role)
	assert.NotEmpty(t, token)

	// Wrong password is a 401.
	w := doJSON(t, router, http.MethodPost, "/api/users/login", "", LoginRequest{
		Email: "marta@academy.test", Password: "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_RegisterValidation(t *testing.T) {
	router, _ := newUserRouter(t)

	tests := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Name: "A", Password: "secreto"}},
		{"bad email", RegisterRequest{Name: "A", Email: "not-an-email", Password: "secreto"}},
		{"short password", RegisterRequest{Name: "A", Email: "a@b.co", Password: "123"}},
		{"bad role", RegisterRequest{Name: "A", Email: "a@b.co", Password: "secreto", Role: "janitor"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, router, http.MethodPost, "/api/users", "", tt.req)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
}

func TestUserHandler_DuplicateEmailConflict(t *testing.T) {
	router, _ := newUserRouter(t)
	registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Otra", Email: "MARTA@academy.test", Password: "secreto",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
}

func TestUserHandler_ProtectedRoutesRequireToken(t *testing.T) {
	router, _ := newUserRouter(t)
	registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestUserHandler_DeleteRequiresAdmin(t *testing.T) {
	router, _ := newUserRouter(t)
	registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Pablo", Email: "pablo@academy.test", Password: "secreto", Role: "student",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var pablo domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pablo))

	w = doJSON(t, router, http.MethodPost, "/api/users/login", "", LoginRequest{
		Email: "pablo@academy.test", Password: "secreto",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d", pablo.ID), resp.Token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestUserHandler_GetUpdateDelete(t *testing.T) {
	router, _ := newUserRouter(t)
	user, token := registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	newName := "Marta Pérez"
	w = doJSON(t, router, http.MethodPut, fmt.Sprintf("/api/users/%d", user.ID), token, UpdateUserRequest{Name: &newName})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, newName, updated.Name)

	w = doJSON(t, router, http.MethodDelete, fmt.Sprintf("/api/users/%d", user.ID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, fmt.Sprintf("/api/users/%d", user.ID), token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUserHandler_Teachers(t *testing.T) {
	router, _ := newUserRouter(t)
	_, token := registerAndLogin(t, router, "marta@academy.test")

	w := doJSON(t, router, http.MethodPost, "/api/users", "", RegisterRequest{
		Name: "Pablo", Email: "pablo@academy.test", Password: "secreto", Role: "student",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/users/teachers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var teachers []domain.TeacherProfile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &teachers))
	require.Len(t, teachers, 1)
	assert.Equal(t, "Marta", teachers[0].Name)
}
