package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/middleware"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
)

type HistoryHandler interface {
	List(c *gin.Context)
}

type historyHandler struct {
	repo   repository.PredictionRepository
	logger *zap.Logger
}

func NewHistoryHandler(repo repository.PredictionRepository, logger *zap.Logger) HistoryHandler {
	return &historyHandler{repo: repo, logger: logger}
}

// List returns the caller's predictions, most recent first.
func (h *historyHandler) List(c *gin.Context) {
	records, err := h.repo.ListByUser(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		h.logger.Error("Failed to list prediction history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load history"})
		return
	}
	c.JSON(http.StatusOK, records)
}
