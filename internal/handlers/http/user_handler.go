package http

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/pkg/errors"
	"aulanet/pkg/utils"
	"aulanet/pkg/validation"
)

type UserHandler struct {
	userService *services.UserService
	authService services.AuthService
}

func NewUserHandler(userService *services.UserService, authService services.AuthService) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
	}
}

func (h *UserHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/users")
	{
		api.POST("", h.Register)
		api.POST("/login", h.Login)
	}

	protected := router.Group("/api/users")
	protected.Use(middleware.AuthMiddleware(h.authService))
	{
		protected.GET("", h.List)
		protected.GET("/teachers", h.Teachers)
		protected.GET("/:id", h.Get)
		protected.PUT("/:id", h.Update)
		protected.DELETE("/:id", middleware.AdminMiddleware(), h.Delete)
	}
}

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     string `json:"role"`
	IsAdmin  bool   `json:"is_admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,max=254"`
	Password string `json:"password" binding:"required,max=128"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = utils.NormalizeEmail(req.Email)

	if err := validation.ValidateName(req.Name); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	role := domain.Role(req.Role)
	if req.Role == "" {
		role = domain.RoleStudent
	} else if err := validation.ValidateRole(req.Role); err != nil {
		c.Error(errors.NewInvalidInputError(err.Error()))
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password, role, req.IsAdmin)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	user, token, err := h.userService.Login(c.Request.Context(), utils.NormalizeEmail(req.Email), req.Password)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  user,
		"token": token,
	})
}

func (h *UserHandler) List(c *gin.Context) {
	users, err := h.userService.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *UserHandler) Teachers(c *gin.Context) {
	teachers, err := h.userService.Teachers(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, teachers)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid user id"))
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

type UpdateUserRequest struct {
	Name      *string `json:"name"`
	Email     *string `json:"email"`
	Password  *string `json:"password"`
	Role      *string `json:"role"`
	IsAdmin   *bool   `json:"is_admin"`
	Image     *string `json:"image"`
	ImageName *string `json:"image_name"`
	ImageType *string `json:"image_type"`
}

func (h *UserHandler) Update(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid user id"))
		return
	}

	var req UpdateUserRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	in := services.UpdateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		IsAdmin:  req.IsAdmin,
	}
	if req.Role != nil {
		if err := validation.ValidateRole(*req.Role); err != nil {
			c.Error(errors.NewInvalidInputError(err.Error()))
			return
		}
		role := domain.Role(*req.Role)
		in.Role = &role
	}
	if req.Image != nil {
		data, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(*req.Image, dataURIPrefix(*req.Image)))
		if err != nil {
			c.Error(errors.NewInvalidInputError("invalid image encoding"))
			return
		}
		upload := services.ImageUpload{Data: data}
		if req.ImageName != nil {
			upload.FileName = *req.ImageName
		}
		if req.ImageType != nil {
			upload.MimeType = *req.ImageType
		}
		in.Image = &upload
	}

	user, err := h.userService.Update(c.Request.Context(), id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid user id"))
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func parseUserID(raw string) (domain.UserID, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return domain.UserID(id), nil
}

// dataURIPrefix returns the "data:...;base64," prefix when present so
// callers can strip it before decoding.
func dataURIPrefix(s string) string {
	if !strings.HasPrefix(s, "data:") {
		return ""
	}
	idx := strings.Index(s, ";base64,")
	if idx < 0 {
		return ""
	}
	return s[:idx+len(";base64,")]
}
