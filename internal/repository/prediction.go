package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

// PredictionRepository is the append-only history of prediction attempts.
type PredictionRepository interface {
	Append(ctx context.Context, prediction *models.Prediction) error
	ListByUser(ctx context.Context, userID string) ([]*models.Prediction, error)
}

type predictionRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewPredictionRepository(db *sqlx.DB, logger *zap.Logger) PredictionRepository {
	return &predictionRepository{db: db, logger: logger}
}

// Append inserts a new record and fills in its storage-assigned id. A zero
// Timestamp is replaced with the current UTC time.
func (r *predictionRepository) Append(ctx context.Context, prediction *models.Prediction) error {
	if prediction.Timestamp.IsZero() {
		prediction.Timestamp = time.Now().UTC()
	}
	query := r.db.Rebind(`INSERT INTO predictions (user_id, content_type, input_snippet, result, confidence, timestamp)
	          VALUES (?, ?, ?, ?, ?, ?) RETURNING id`)
	return r.db.QueryRowxContext(ctx, query,
		prediction.UserID,
		string(prediction.ContentType),
		prediction.InputSnippet,
		prediction.Result,
		prediction.Confidence,
		prediction.Timestamp,
	).Scan(&prediction.ID)
}

// ListByUser returns every record owned by userID, most recent first.
func (r *predictionRepository) ListByUser(ctx context.Context, userID string) ([]*models.Prediction, error) {
	predictions := []*models.Prediction{}
	query := r.db.Rebind(`
		SELECT id, user_id, content_type, input_snippet, result, confidence, timestamp
		FROM predictions
		WHERE user_id = ?
		ORDER BY timestamp DESC, id DESC
	`)
	if err := r.db.SelectContext(ctx, &predictions, query, userID); err != nil {
		return nil, err
	}
	return predictions, nil
}
