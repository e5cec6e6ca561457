package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func rootHandler(c *gin.Context) {
	c.String(http.StatusOK, "Welcome to the clinic scheduling API!")
}

// SetupRootRoute registers the unauthenticated health and metrics routes.
func SetupRootRoute(router *gin.Engine, metricsHandler http.Handler) {
	router.GET("/", rootHandler)
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
	}
}
