package handler

import (
	"errors"
	"net/http"

	"story-server/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const msgInvalidJSON = "invalid JSON body"

type validatable interface {
	Validate() error
}

// bindJSON разбирает тело и проверяет его. При ошибке ответ уже отправлен.
func bindJSON(c *gin.Context, req validatable) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Fail(msgInvalidJSON))
		return false
	}
	if err := req.Validate(); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, models.Fail(err.Error()))
		return false
	}
	return true
}

// handleServiceError переводит ошибку сервиса в HTTP-ответ. fallback - сообщение для 500.
func (h *Handler) handleServiceError(c *gin.Context, err error, fallback string) {
	var (
		statusCode int
		message    string
		verrs      validation.Errors
	)

	switch {
	case errors.As(err, &verrs):
		statusCode = http.StatusBadRequest
		message = verrs.Error()
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, models.ErrInvalidEmail):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrCharacterLimitReached):
		statusCode = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, models.ErrUserNotFound):
		statusCode = http.StatusNotFound
		message = models.ErrUserNotFound.Error()
	case errors.Is(err, models.ErrCharacterNotFound):
		statusCode = http.StatusNotFound
		message = models.ErrCharacterNotFound.Error()
	case errors.Is(err, models.ErrStoryNotFound), errors.Is(err, models.ErrSharedStoryNotFound):
		statusCode = http.StatusNotFound
		message = models.ErrStoryNotFound.Error()
	case errors.Is(err, models.ErrNotFound):
		statusCode = http.StatusNotFound
		message = models.ErrNotFound.Error()
	case errors.Is(err, models.ErrFeedbackUnparseable):
		statusCode = http.StatusUnprocessableEntity
		message = models.ErrFeedbackUnparseable.Error()
	case errors.Is(err, models.ErrAIUnavailable):
		h.logger.Warn("AI provider unavailable", zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusServiceUnavailable
		message = models.ErrAIUnavailable.Error()
	default:
		h.logger.Error("Unhandled internal error", zap.String("path", c.FullPath()), zap.Error(err))
		statusCode = http.StatusInternalServerError
		message = fallback
	}

	c.AbortWithStatusJSON(statusCode, models.Fail(message))
}
