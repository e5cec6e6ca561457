package middlewares

import (
	"errors"
	"net/http"

	"CommClinic/services"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"
)

// RespondJSON writes a JSON response to the client.
func RespondJSON(c *gin.Context, data interface{}, status int) {
	c.JSON(status, data)
}

// HttpError maps err onto a status code and writes it. Errors outside the
// service error types are logged and reported as a generic 500.
func HttpError(c *gin.Context, log *zap.Logger, err error) {
	var (
		validationErr *services.ValidationError
		fieldErrs     validation.Errors
		forbidden     *services.ForbiddenError
		denied        *services.AccessDeniedError
		notFound      *services.NotFoundError
		domainErr     *services.DomainError
	)

	switch {
	case errors.As(err, &validationErr):
		body := gin.H{"error": validationErr.Error()}
		if validationErr.Field != "" {
			body["fields"] = gin.H{validationErr.Field: validationErr.Message}
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &fieldErrs):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
	case errors.Is(err, services.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.As(err, &forbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error(), "field": forbidden.Field})
	case errors.As(err, &denied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &domainErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": domainErr.Message})
	default:
		if log != nil {
			log.Error("unhandled request error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
