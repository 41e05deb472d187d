package ml_client

import (
	"testing"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

func TestDecodeResult(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want models.InferenceResult
	}{
		{"canonical", `{"label":"Fake","confidence":0.87}`, models.InferenceResult{Label: "Fake", Confidence: 0.87}},
		{"mixed case keys and label", `{"LABEL":"real","Confidence":0.55}`, models.InferenceResult{Label: "Real", Confidence: 0.55}},
		{"unknown label passes through", `{"label":"Unknown","confidence":0}`, models.InferenceResult{Label: "Unknown", Confidence: 0}},
		{"confidence above range", `{"label":"Fake","confidence":87}`, models.InferenceResult{Label: "Fake", Confidence: 1}},
		{"negative confidence", `{"label":"Real","confidence":-0.2}`, models.InferenceResult{Label: "Real", Confidence: 0}},
		{"missing confidence", `{"label":"Real"}`, models.InferenceResult{Label: "Real", Confidence: 0}},
		{"missing label", `{"confidence":0.9}`, models.InferenceResult{Label: "Unknown", Confidence: 0}},
		{"null", `null`, models.InferenceResult{Label: "Unknown", Confidence: 0}},
		{"empty", ``, models.InferenceResult{Label: "Unknown", Confidence: 0}},
		{"not json", `Internal Server Error`, models.InferenceResult{Label: "Unknown", Confidence: 0}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := decodeResult([]byte(tt.body)); got != tt.want {
				t.Fatalf("decodeResult(%q) = %+v, want %+v", tt.body, got, tt.want)
			}
		})
	}
}
