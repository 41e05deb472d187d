package repository

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

func strPtr(s string) *string { return &s }

func TestPredictionRepositoryRoundTrip(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	p := &models.Prediction{
		UserID:       "user-a",
		ContentType:  models.ContentTypeText,
		InputSnippet: strPtr("breaking: moon made of cheese"),
		Result:       models.LabelFake,
		Confidence:   0.87,
		Timestamp:    time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
	if err := repo.Append(ctx, p); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if p.ID == 0 {
		t.Fatalf("expected storage-assigned id")
	}

	rows, err := repo.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	got := rows[0]
	if got.ID != p.ID || got.Result != models.LabelFake || got.ContentType != models.ContentTypeText {
		t.Fatalf("unexpected row: %+v", got)
	}
	if math.Abs(got.Confidence-0.87) > 1e-9 {
		t.Fatalf("confidence: got %v want 0.87", got.Confidence)
	}
	if got.InputSnippet == nil || *got.InputSnippet != *p.InputSnippet {
		t.Fatalf("snippet mismatch: %v", got.InputSnippet)
	}
	if !got.Timestamp.Equal(p.Timestamp) {
		t.Fatalf("timestamp: got %v want %v", got.Timestamp, p.Timestamp)
	}
}

func TestPredictionRepositoryOrdersMostRecentFirst(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	// inserted out of order on purpose
	for _, offset := range []time.Duration{2 * time.Minute, 0, 5 * time.Minute} {
		p := &models.Prediction{
			UserID:      "user-a",
			ContentType: models.ContentTypeImage,
			Result:      models.LabelReal,
			Confidence:  0.6,
			Timestamp:   base.Add(offset),
		}
		if err := repo.Append(ctx, p); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows, err := repo.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	want := []time.Time{base.Add(5 * time.Minute), base.Add(2 * time.Minute), base}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if !rows[i].Timestamp.Equal(want[i]) {
			t.Fatalf("row %d: got %v want %v", i, rows[i].Timestamp, want[i])
		}
	}
}

func TestPredictionRepositoryScopesByUser(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	for _, user := range []string{"user-a", "user-b", "user-b"} {
		if err := repo.Append(ctx, &models.Prediction{
			UserID:      user,
			ContentType: models.ContentTypeText,
			Result:      models.LabelReal,
			Confidence:  0.5,
		}); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rows, err := repo.ListByUser(ctx, "user-a")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("user-a sees %d rows, want 1", len(rows))
	}
	for _, r := range rows {
		if r.UserID != "user-a" {
			t.Fatalf("leaked record of %q", r.UserID)
		}
	}

	rows, err = repo.ListByUser(ctx, "nobody")
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if rows == nil || len(rows) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", rows)
	}
}

func TestPredictionRepositoryRejectsOutOfRangeConfidence(t *testing.T) {
	repo := NewPredictionRepository(newTestDB(t), zap.NewNop())
	err := repo.Append(context.Background(), &models.Prediction{
		UserID:      "user-a",
		ContentType: models.ContentTypeText,
		Result:      models.LabelReal,
		Confidence:  1.5,
	})
	if err == nil {
		t.Fatalf("expected check constraint violation")
	}
}
