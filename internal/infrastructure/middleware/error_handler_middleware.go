package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aulanet/internal/core/domain"
	apperrors "aulanet/pkg/errors"
)

// ErrorHandlerMiddleware turns errors attached to the gin context into
// structured JSON responses.
func ErrorHandlerMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err

		if appErr := apperrors.GetAppError(err); appErr != nil {
			logger.Errorw("application error",
				"code", appErr.Code,
				"message", appErr.Message,
				"status", appErr.HTTPStatus,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
			)
			c.JSON(appErr.HTTPStatus, gin.H{
				"error":   string(appErr.Code),
				"message": appErr.Message,
			})
			return
		}

		status, code := mapDomainError(err)
		if status != http.StatusInternalServerError {
			c.JSON(status, gin.H{"error": code, "message": err.Error()})
			return
		}

		logger.Errorw("unhandled error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   string(apperrors.ErrCodeInternal),
			"message": "Internal server error",
		})
	}
}

func mapDomainError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrChatNotFound),
		errors.Is(err, domain.ErrEventNotFound),
		errors.Is(err, domain.ErrVideoNotFound):
		return http.StatusNotFound, string(apperrors.ErrCodeNotFound)
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrScheduleOverlap):
		return http.StatusConflict, string(apperrors.ErrCodeConflict)
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, string(apperrors.ErrCodeUnauthorized)
	case errors.Is(err, domain.ErrRoleComposition),
		errors.Is(err, domain.ErrInvalidTimeRange),
		errors.Is(err, domain.ErrFileTypeNotAllowed),
		errors.Is(err, domain.ErrFileTooLarge):
		return http.StatusBadRequest, string(apperrors.ErrCodeInvalidInput)
	}
	return http.StatusInternalServerError, string(apperrors.ErrCodeInternal)
}

// RecoveryMiddleware recovers from panics and returns a JSON 500.
func RecoveryMiddleware(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Errorw("panic recovered",
					"error", err,
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   string(apperrors.ErrCodeInternal),
					"message": "Internal server error",
				})
				c.Abort()
			}
		}()

		c.Next()
	}
}
