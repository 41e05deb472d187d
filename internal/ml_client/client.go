package ml_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/models"
)

const (
	healthPath       = "/health"
	predictTextPath  = "/predict-text"
	predictImagePath = "/predict-image"

	maxResponseBytes = 1 << 20
	maxErrorBody     = 1 << 10
)

var tracer = otel.Tracer("github.com/husnain-lab-solutions/deepfakenews-detectionapp/internal/ml_client")

// Options configures a Client. Zero values fall back to the defaults below.
type Options struct {
	BaseURL string

	// RequestTimeout bounds a single prediction attempt. Inference on a cold
	// service can take minutes.
	RequestTimeout time.Duration
	// HealthTimeout bounds HealthCheck.
	HealthTimeout time.Duration
	// ProbeTimeout bounds the diagnostic probe issued between retries.
	ProbeTimeout time.Duration

	MaxAttempts int
	BackoffBase time.Duration

	HTTPClient *http.Client
}

// Client is a client for the ML inference service.
type Client struct {
	baseURL        string
	requestTimeout time.Duration
	healthTimeout  time.Duration
	probeTimeout   time.Duration
	maxAttempts    int
	backoffBase    time.Duration
	httpClient     *http.Client
	logger         *zap.Logger
}

// TextRequest is the body of POST /predict-text.
type TextRequest struct {
	Text string `json:"text"`
}

// NewClient creates a new ML service client. A blank BaseURL is allowed: the
// client then reports unhealthy and fails predictions without network calls.
func NewClient(opts Options, logger *zap.Logger) *Client {
	c := &Client{
		baseURL:        strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		requestTimeout: opts.RequestTimeout,
		healthTimeout:  opts.HealthTimeout,
		probeTimeout:   opts.ProbeTimeout,
		maxAttempts:    opts.MaxAttempts,
		backoffBase:    opts.BackoffBase,
		httpClient:     opts.HTTPClient,
		logger:         logger,
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = 180 * time.Second
	}
	if c.healthTimeout <= 0 {
		c.healthTimeout = 3 * time.Second
	}
	if c.probeTimeout <= 0 {
		c.probeTimeout = 2 * time.Second
	}
	if c.maxAttempts < 1 {
		c.maxAttempts = 5
	}
	if c.backoffBase < 0 {
		c.backoffBase = 0
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{}
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	return c
}

// HealthCheck reports whether GET /health answers with a 2xx status within
// the health timeout. It never fails; every problem reads as unhealthy.
func (c *Client) HealthCheck(ctx context.Context) bool {
	return c.probe(ctx, c.healthTimeout)
}

// PredictText classifies a piece of text.
func (c *Client) PredictText(ctx context.Context, text string) (models.InferenceResult, error) {
	payload, err := json.Marshal(TextRequest{Text: text})
	if err != nil {
		return models.InferenceResult{}, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.predict(ctx, predictTextPath, func() (io.Reader, string, error) {
		return bytes.NewReader(payload), "application/json", nil
	})
}

// PredictImage uploads an image as multipart field "file". The stream is
// read once so every retry can resend the same bytes.
func (c *Client) PredictImage(ctx context.Context, image io.Reader, filename string) (models.InferenceResult, error) {
	data, err := io.ReadAll(image)
	if err != nil {
		return models.InferenceResult{}, fmt.Errorf("failed to read image: %w", err)
	}
	if strings.TrimSpace(filename) == "" {
		filename = "upload"
	}
	contentType := mimetype.Detect(data).String()

	return c.predict(ctx, predictImagePath, func() (io.Reader, string, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(filename)))
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, "", fmt.Errorf("failed to create multipart part: %w", err)
		}
		if _, err := part.Write(data); err != nil {
			return nil, "", fmt.Errorf("failed to write multipart part: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
		}
		return &buf, writer.FormDataContentType(), nil
	})
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func (c *Client) predict(ctx context.Context, endpoint string, newBody func() (io.Reader, string, error)) (models.InferenceResult, error) {
	ctx, span := tracer.Start(ctx, "ml_client.predict", trace.WithAttributes(
		attribute.String("ml.endpoint", endpoint),
		attribute.Int("ml.max_attempts", c.maxAttempts),
	))
	defer span.End()

	result, attempts, err := c.postWithRetries(ctx, endpoint, newBody)
	span.SetAttributes(attribute.Int("ml.attempts", attempts))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, ErrorCategory(err))
		return models.InferenceResult{}, err
	}
	span.SetAttributes(
		attribute.String("ml.label", result.Label),
		attribute.Float64("ml.confidence", result.Confidence),
	)
	return result, nil
}

// postWithRetries sends the request up to maxAttempts times with linear
// backoff (backoffBase * attempt). Only transport failures are retried; any
// HTTP response, successful or not, ends the loop.
func (c *Client) postWithRetries(ctx context.Context, endpoint string, newBody func() (io.Reader, string, error)) (models.InferenceResult, int, error) {
	if c.baseURL == "" {
		return models.InferenceResult{}, 0, &ConnectivityError{Endpoint: endpoint, Err: ErrBaseURLNotConfigured}
	}

	var lastErr error
	attempt := 0
	for attempt < c.maxAttempts {
		attempt++

		body, contentType, err := newBody()
		if err != nil {
			return models.InferenceResult{}, attempt, err
		}

		status, raw, err := c.send(ctx, endpoint, body, contentType)
		if err == nil {
			if status < 200 || status >= 300 {
				return models.InferenceResult{}, attempt, &StatusError{StatusCode: status, Body: truncate(raw, maxErrorBody)}
			}
			return decodeResult(raw), attempt, nil
		}

		lastErr = err
		c.logger.Warn("ML service request failed",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.maxAttempts),
			zap.Error(err),
		)
		if !retryable(ctx, err) || attempt >= c.maxAttempts {
			break
		}

		healthy := c.probe(ctx, c.probeTimeout)
		c.logger.Debug("ML service probe between attempts",
			zap.String("endpoint", endpoint),
			zap.Int("attempt", attempt),
			zap.Bool("healthy", healthy),
		)

		delay := c.backoffBase * time.Duration(attempt)
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return models.InferenceResult{}, attempt, &ConnectivityError{Endpoint: endpoint, Attempts: attempt, Err: ctx.Err()}
		case <-timer.C:
		}
	}

	if lastErr == nil {
		lastErr = errors.New("unknown connection failure")
	}
	return models.InferenceResult{}, attempt, &ConnectivityError{Endpoint: endpoint, Attempts: attempt, Err: lastErr}
}

// send performs one attempt bounded by requestTimeout and returns the status
// and (size-limited) body.
func (c *Client) send(ctx context.Context, endpoint string, body io.Reader, contentType string) (int, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return resp.StatusCode, raw, nil
}

func (c *Client) probe(ctx context.Context, timeout time.Duration) bool {
	if c.baseURL == "" {
		return false
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return false
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// retryable reports whether a transport error means "service not reachable
// yet". Timeouts and caller cancellation are final.
func retryable(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return false
	}
	return true
}

func truncate(raw []byte, n int) string {
	if len(raw) > n {
		raw = raw[:n]
	}
	return string(raw)
}
