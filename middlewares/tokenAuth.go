package middlewares

import (
	"context"
	"net/http"

	"CommClinic/models"
	"CommClinic/utils"

	"github.com/gin-gonic/gin"
)

type contextKey string

const callerKey contextKey = "caller"

// TokenAuthMiddleware validates the access token and stores the resolved
// caller on the gin and request contexts. The token is read from the
// Authorization header, falling back to the accessToken query parameter.
func TokenAuthMiddleware(key []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			token = c.Query("accessToken")
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing access token"})
			return
		}

		claims, err := utils.ValidateToken(key, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		caller, err := claims.Caller()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set(string(callerKey), caller)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), callerKey, caller))
		c.Next()
	}
}

// RequireKind restricts a route group to one kind of caller.
func RequireKind(kind models.UserKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := CallerFromContext(c)
		if caller == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if caller.Kind() != kind {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// CallerFromContext returns the caller set by TokenAuthMiddleware, or nil.
func CallerFromContext(c *gin.Context) models.Caller {
	if v, ok := c.Get(string(callerKey)); ok {
		if caller, ok := v.(models.Caller); ok {
			return caller
		}
	}
	return CallerFrom(c.Request.Context())
}

// CallerFrom retrieves the caller from a request context.
func CallerFrom(ctx context.Context) models.Caller {
	caller, _ := ctx.Value(callerKey).(models.Caller)
	return caller
}
