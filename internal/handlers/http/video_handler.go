package http

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"aulanet/internal/core/domain"
	"aulanet/internal/core/services"
	"aulanet/internal/infrastructure/middleware"
	"aulanet/pkg/errors"
	"aulanet/pkg/utils"
)

type VideoHandler struct {
	videoService *services.VideoService
	authService  services.AuthService
}

func NewVideoHandler(videoService *services.VideoService, authService services.AuthService) *VideoHandler {
	return &VideoHandler{
		videoService: videoService,
		authService:  authService,
	}
}

func (h *VideoHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/videos")
	api.Use(middleware.AuthMiddleware(h.authService))
	{
		api.POST("", h.Create)
		api.GET("", h.List)
		api.GET("/:id", h.Get)
		api.PUT("/:id", h.Update)
		api.DELETE("/:id", h.Delete)
		api.POST("/:id/view", h.RegisterView)
		api.POST("/:id/like", h.RegisterLike)
		api.GET("/:id/comments", h.ListComments)
		api.POST("/:id/comments", h.AddComment)
	}
}

func (h *VideoHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	title := strings.TrimSpace(c.PostForm("title"))
	if title == "" {
		c.Error(errors.NewInvalidInputError("title is required"))
		return
	}

	videoFile, err := c.FormFile("video")
	if err != nil {
		c.Error(errors.NewInvalidInputError("video file is required"))
		return
	}
	video, err := readUpload(videoFile)
	if err != nil {
		c.Error(errors.NewInvalidInputError("failed to read video file"))
		return
	}

	in := services.VideoUploadInput{
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(c.PostForm("description")),
		Video:       video,
	}
	if thumbFile, err := c.FormFile("thumbnail"); err == nil {
		thumb, err := readUpload(thumbFile)
		if err != nil {
			c.Error(errors.NewInvalidInputError("failed to read thumbnail file"))
			return
		}
		in.Thumbnail = &thumb
	}

	created, err := h.videoService.Create(c.Request.Context(), in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *VideoHandler) List(c *gin.Context) {
	videos, err := h.videoService.List(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, videos)
}

func (h *VideoHandler) Get(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) Update(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	var in services.VideoUpdateInput
	if title := strings.TrimSpace(c.PostForm("title")); title != "" {
		in.Title = &title
	}
	if desc, ok := c.GetPostForm("description"); ok {
		desc = strings.TrimSpace(desc)
		in.Description = &desc
	}
	if videoFile, err := c.FormFile("video"); err == nil {
		video, err := readUpload(videoFile)
		if err != nil {
			c.Error(errors.NewInvalidInputError("failed to read video file"))
			return
		}
		in.Video = &video
	}
	if thumbFile, err := c.FormFile("thumbnail"); err == nil {
		thumb, err := readUpload(thumbFile)
		if err != nil {
			c.Error(errors.NewInvalidInputError("failed to read thumbnail file"))
			return
		}
		in.Thumbnail = &thumb
	}

	video, err := h.videoService.Update(c.Request.Context(), id, in)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video)
}

func (h *VideoHandler) Delete(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	if err := h.videoService.Delete(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (h *VideoHandler) RegisterView(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	views, err := h.videoService.RegisterView(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"views": views})
}

func (h *VideoHandler) RegisterLike(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	likes, err := h.videoService.RegisterLike(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

func (h *VideoHandler) ListComments(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	video, err := h.videoService.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, video.Comments)
}

type AddCommentRequest struct {
	Name string `json:"name" binding:"required,max=100"`
	Text string `json:"text" binding:"required,max=2000"`
}

func (h *VideoHandler) AddComment(c *gin.Context) {
	id, err := parseVideoID(c.Param("id"))
	if err != nil {
		c.Error(errors.NewInvalidInputError("invalid video id"))
		return
	}

	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.Error(errors.NewUnauthorizedError("authentication required"))
		return
	}

	var req AddCommentRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInputError("invalid request format"))
		return
	}

	video, err := h.videoService.AddComment(c.Request.Context(), id, domain.VideoComment{
		UserID:    userID,
		Name:      strings.TrimSpace(req.Name),
		Text:      strings.TrimSpace(req.Text),
		CreatedAt: utils.Now(),
	})
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, video.Comments)
}

func parseVideoID(raw string) (int64, error) {
	return strconv.ParseInt(raw, 10, 64)
}

func readUpload(header *multipart.FileHeader) (services.ImageUpload, error) {
	file, err := header.Open()
	if err != nil {
		return services.ImageUpload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return services.ImageUpload{}, err
	}
	return services.ImageUpload{
		Data:     data,
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}
