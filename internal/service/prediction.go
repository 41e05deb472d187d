package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/ml_client"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/repository"
)

var (
	ErrTextRequired  = errors.New("text is required")
	ErrImageRequired = errors.New("image file is required")
	ErrUserRequired  = errors.New("user identity is required")
)

const (
	maxTextSnippetRunes     = 128
	maxFilenameSnippetRunes = 255

	healthCheckFailedLabel = "ServiceUnavailable: ML health check failed"

	persistTimeout = 5 * time.Second
)

// InferenceClient is what the orchestrator needs from the ML service.
// *ml_client.Client satisfies it.
type InferenceClient interface {
	HealthCheck(ctx context.Context) bool
	PredictText(ctx context.Context, text string) (models.InferenceResult, error)
	PredictImage(ctx context.Context, image io.Reader, filename string) (models.InferenceResult, error)
}

// PredictionOutcome is the resolved result of one prediction request.
// Available is false when the ML service could not produce a result; Result
// then carries a synthesized "ServiceUnavailable: ..." label.
type PredictionOutcome struct {
	Result    models.InferenceResult
	Available bool
	Record    *models.Prediction
}

type PredictionService interface {
	PredictText(ctx context.Context, userID, text string) (*PredictionOutcome, error)
	PredictImage(ctx context.Context, userID string, image io.Reader, filename string, size int64) (*PredictionOutcome, error)
}

type PredictionOptions struct {
	// PreflightHealthCheck probes the ML service before every prediction and
	// fails fast when it is down.
	PreflightHealthCheck bool
}

type predictionService struct {
	client    InferenceClient
	repo      repository.PredictionRepository
	preflight bool
	logger    *zap.Logger
	now       func() time.Time
}

func NewPredictionService(client InferenceClient, repo repository.PredictionRepository, opts PredictionOptions, logger *zap.Logger) PredictionService {
	return &predictionService{
		client:    client,
		repo:      repo,
		preflight: opts.PreflightHealthCheck,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *predictionService) PredictText(ctx context.Context, userID, text string) (*PredictionOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrTextRequired
	}

	snippet := truncateRunes(text, maxTextSnippetRunes)
	return s.run(ctx, userID, models.ContentTypeText, &snippet, func(ctx context.Context) (models.InferenceResult, error) {
		return s.client.PredictText(ctx, text)
	})
}

func (s *predictionService) PredictImage(ctx context.Context, userID string, image io.Reader, filename string, size int64) (*PredictionOutcome, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrUserRequired
	}
	if image == nil || size <= 0 {
		return nil, ErrImageRequired
	}

	var snippet *string
	if name := strings.TrimSpace(filename); name != "" {
		name = truncateRunes(name, maxFilenameSnippetRunes)
		snippet = &name
	}
	return s.run(ctx, userID, models.ContentTypeImage, snippet, func(ctx context.Context) (models.InferenceResult, error) {
		return s.client.PredictImage(ctx, image, filename)
	})
}

// run performs pre-flight, invoke and persist. Every attempt that gets this
// far is recorded, including the unavailable ones.
func (s *predictionService) run(
	ctx context.Context,
	userID string,
	contentType models.ContentType,
	snippet *string,
	invoke func(ctx context.Context) (models.InferenceResult, error),
) (*PredictionOutcome, error) {
	outcome := &PredictionOutcome{Available: true}

	if s.preflight && !s.client.HealthCheck(ctx) {
		s.logger.Warn("ML service failed pre-flight health check",
			zap.String("content_type", string(contentType)))
		outcome.Available = false
		outcome.Result = models.InferenceResult{Label: healthCheckFailedLabel, Confidence: 0}
	} else if result, err := invoke(ctx); err != nil {
		s.logger.Warn("ML prediction failed",
			zap.String("content_type", string(contentType)),
			zap.String("category", ml_client.ErrorCategory(err)),
			zap.Error(err))
		outcome.Available = false
		outcome.Result = unavailableResult(err)
	} else {
		outcome.Result = result
	}

	record := &models.Prediction{
		UserID:       userID,
		ContentType:  contentType,
		InputSnippet: snippet,
		Result:       outcome.Result.Label,
		Confidence:   outcome.Result.Confidence,
		Timestamp:    s.now().UTC(),
	}
	// The request may already be gone after a long ML call; the record is
	// still written.
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.repo.Append(persistCtx, record); err != nil {
		s.logger.Error("Failed to save prediction", zap.String("content_type", string(contentType)), zap.Error(err))
		return nil, fmt.Errorf("failed to save prediction: %w", err)
	}
	outcome.Record = record

	s.logger.Info("Prediction recorded",
		zap.Int64("prediction_id", record.ID),
		zap.String("content_type", string(contentType)),
		zap.String("label", record.Result),
		zap.Float64("confidence", record.Confidence),
		zap.Bool("available", outcome.Available))
	return outcome, nil
}

// unavailableResult embeds the failure category and message in the label so
// operators can tell a dead service from a misbehaving one.
func unavailableResult(err error) models.InferenceResult {
	msg := strings.TrimSpace(err.Error())
	category := ml_client.ErrorCategory(err)
	if msg == "" {
		return models.InferenceResult{Label: "ServiceUnavailable: " + category, Confidence: 0}
	}
	return models.InferenceResult{Label: fmt.Sprintf("ServiceUnavailable: %s: %s", category, msg), Confidence: 0}
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
