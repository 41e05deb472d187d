package ml_client

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

// predictResponse mirrors the ML service body. encoding/json matches keys
// case-insensitively, so "Label" and "CONFIDENCE" decode as well.
type predictResponse struct {
	Label      string   `json:"label"`
	Confidence *float64 `json:"confidence"`
}

func unknownResult() models.InferenceResult {
	return models.InferenceResult{Label: models.LabelUnknown, Confidence: 0}
}

// decodeResult turns a success body into a normalized result. Anything
// unusable degrades to ("Unknown", 0) instead of failing the caller.
func decodeResult(raw []byte) models.InferenceResult {
	var resp predictResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return unknownResult()
	}
	label := normalizeLabel(resp.Label)
	if label == "" {
		return unknownResult()
	}
	var confidence float64
	if resp.Confidence != nil {
		confidence = clampConfidence(*resp.Confidence)
	}
	return models.InferenceResult{Label: label, Confidence: confidence}
}

func normalizeLabel(label string) string {
	label = strings.TrimSpace(label)
	switch {
	case strings.EqualFold(label, models.LabelReal):
		return models.LabelReal
	case strings.EqualFold(label, models.LabelFake):
		return models.LabelFake
	case strings.EqualFold(label, models.LabelUnknown):
		return models.LabelUnknown
	}
	return label
}

func clampConfidence(v float64) float64 {
	switch {
	case math.IsNaN(v), math.IsInf(v, 0), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
