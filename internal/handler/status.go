package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthChecker reports whether the ML service is reachable.
type HealthChecker interface {
	HealthCheck(ctx context.Context) bool
}

type StatusHandler interface {
	Ping(c *gin.Context)
	Status(c *gin.Context)
}

type statusHandler struct {
	ml HealthChecker
}

func NewStatusHandler(ml HealthChecker) StatusHandler {
	return &statusHandler{ml: ml}
}

func (h *statusHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

func (h *statusHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":             "ok",
		"ml_service_healthy": h.ml.HealthCheck(c.Request.Context()),
	})
}
