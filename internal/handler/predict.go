package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/middleware"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/service"
)

// multipartOverhead leaves room for boundaries and part headers on top of the
// file size limit.
const multipartOverhead = 64 << 10

type PredictHandler interface {
	PredictText(c *gin.Context)
	PredictImage(c *gin.Context)
}

type predictHandler struct {
	predictions    service.PredictionService
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewPredictHandler(predictions service.PredictionService, maxUploadBytes int64, logger *zap.Logger) PredictHandler {
	return &predictHandler{predictions: predictions, maxUploadBytes: maxUploadBytes, logger: logger}
}

type TextRequest struct {
	Text string `json:"text"`
}

func (h *predictHandler) PredictText(c *gin.Context) {
	var req TextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required."})
		return
	}

	outcome, err := h.predictions.PredictText(c.Request.Context(), middleware.UserID(c), req.Text)
	h.respond(c, outcome, err)
}

func (h *predictHandler) PredictImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image exceeds the upload size limit."})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required."})
		return
	}
	if fileHeader.Size > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image exceeds the upload size limit."})
		return
	}
	if fileHeader.Size == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required."})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unable to read uploaded file."})
		return
	}
	defer file.Close()

	outcome, err := h.predictions.PredictImage(c.Request.Context(), middleware.UserID(c), file, fileHeader.Filename, fileHeader.Size)
	h.respond(c, outcome, err)
}

func (h *predictHandler) respond(c *gin.Context, outcome *service.PredictionOutcome, err error) {
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTextRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Text is required."})
		case errors.Is(err, service.ErrImageRequired):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Image file is required."})
		case errors.Is(err, service.ErrUserRequired):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		default:
			h.logger.Error("Prediction failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process prediction"})
		}
		return
	}

	if outcome.Record != nil {
		h.logger.Debug("Prediction served",
			zap.Int64("prediction_id", outcome.Record.ID),
			zap.String("content_type", string(outcome.Record.ContentType)),
			zap.Bool("available", outcome.Available))
	}

	if !outcome.Available {
		c.JSON(http.StatusServiceUnavailable, outcome.Result)
		return
	}
	c.JSON(http.StatusOK, outcome.Result)
}
