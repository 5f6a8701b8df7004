package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/artistapp-backend/internal/logger"
	"github.com/ignatzorin/artistapp-backend/internal/pkg/apperror"
	"github.com/ignatzorin/artistapp-backend/internal/repository"
)

// ErrorHandler обрабатывает ошибки централизованно.
// Маскирует внутренние ошибки и возвращает понятные сообщения клиенту.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()

		if logger.Log != nil {
			logger.Log.WithFields(logrus.Fields{
				"error":  err.Error(),
				"path":   c.Request.URL.Path,
				"method": c.Request.Method,
			}).Error("Request error")
		}

		statusCode := http.StatusInternalServerError
		message := "Internal server error"

		var appErr *apperror.AppError
		switch {
		case errors.As(err.Err, &appErr):
			statusCode = appErr.HTTPStatus
			message = appErr.Message
		case errors.Is(err.Err, repository.ErrBookingNotFound):
			statusCode = http.StatusNotFound
			message = "Booking not found"
		case errors.Is(err.Err, repository.ErrArtistNotFound):
			statusCode = http.StatusNotFound
			message = "Artist not found"
		case errors.Is(err.Err, repository.ErrUserNotFound):
			statusCode = http.StatusNotFound
			message = "User not found"
		case errors.Is(err.Err, repository.ErrPaymentNotFound):
			statusCode = http.StatusNotFound
			message = "Payment not found"
		}

		c.JSON(statusCode, gin.H{"error": message})
	}
}
