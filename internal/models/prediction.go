package models

import "time"

// ContentType tags what kind of input a prediction was made on.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
)

const (
	LabelReal    = "Real"
	LabelFake    = "Fake"
	LabelUnknown = "Unknown"
)

// Prediction represents one row of the 'predictions' history table.
type Prediction struct {
	ID           int64       `db:"id" json:"id"`
	UserID       string      `db:"user_id" json:"-"`
	ContentType  ContentType `db:"content_type" json:"contentType"`
	InputSnippet *string     `db:"input_snippet" json:"inputSnippet"`
	Result       string      `db:"result" json:"result"`
	Confidence   float64     `db:"confidence" json:"confidence"`
	Timestamp    time.Time   `db:"timestamp" json:"timestamp"`
}

// InferenceResult is the label/confidence pair returned by the ML service or
// synthesized when it could not be reached.
type InferenceResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}
