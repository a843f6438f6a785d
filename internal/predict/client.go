package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Predictor is the opaque inference collaborator: it takes a normalized
// 30×5 sequence and returns the normalized (temperature, O₂) pair for the
// last timestep.
type Predictor interface {
	Predict(ctx context.Context, sequence [][]float64) ([NumOutputs]float64, error)
}

// ErrBadSequence is returned for sequences that do not match the model's
// fixed input shape.
var ErrBadSequence = errors.New("sequence must be 30 timesteps of 5 features")

// StatusError is a non-200 response from the sidecar.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("sidecar returned %d: %s", e.Status, e.Body)
}

// Retryable reports whether the response indicates a transient server
// fault. 4xx means the request itself is wrong and will not improve.
func (e *StatusError) Retryable() bool { return e.Status >= 500 }

// Config holds configuration for the inference sidecar client.
type Config struct {
	// BaseURL of the ONNX sidecar (e.g., "http://127.0.0.1:8601").
	BaseURL string

	// MaxRetries is the maximum number of retry attempts for retryable
	// errors. Defaults to 3 if zero.
	MaxRetries int

	// BaseRetryDelay is the initial delay before the first retry.
	// Defaults to 500ms if zero.
	BaseRetryDelay time.Duration

	// MaxRetryDelay caps the exponential backoff delay.
	// Defaults to 5 seconds if zero.
	MaxRetryDelay time.Duration

	// HTTPClient allows injecting a custom HTTP client (useful for
	// testing). Defaults to a client with 10s timeout.
	HTTPClient *http.Client
}

// Client calls an inference sidecar over HTTP JSON. It implements
// Predictor.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient creates an inference client with the given configuration.
func NewClient(cfg Config) *Client {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BaseRetryDelay == 0 {
		cfg.BaseRetryDelay = 500 * time.Millisecond
	}
	if cfg.MaxRetryDelay == 0 {
		cfg.MaxRetryDelay = 5 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{config: cfg, http: httpClient}
}

type predictRequest struct {
	Input [][]float64 `json:"input"`
}

type predictResponse struct {
	// Output is one (temp, o2) pair per timestep; only the last is used.
	Output [][]float64 `json:"output"`
}

// Predict posts the sequence to the sidecar and returns the last
// timestep's normalized outputs. Network errors and 5xx responses are
// retried with exponential backoff.
func (c *Client) Predict(ctx context.Context, sequence [][]float64) ([NumOutputs]float64, error) {
	var out [NumOutputs]float64

	if len(sequence) != WindowLength {
		return out, ErrBadSequence
	}
	for _, row := range sequence {
		if len(row) != NumFeatures {
			return out, ErrBadSequence
		}
	}

	body, err := json.Marshal(predictRequest{Input: sequence})
	if err != nil {
		return out, fmt.Errorf("encode request: %w", err)
	}

	var lastErr error
	delay := c.config.BaseRetryDelay
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.config.MaxRetryDelay {
				delay = c.config.MaxRetryDelay
			}
		}

		resp, err := c.post(ctx, body)
		if err != nil {
			var se *StatusError
			if errors.As(err, &se) && !se.Retryable() {
				return out, fmt.Errorf("predict failed: %w", err)
			}
			lastErr = err
			continue
		}
		return resp, nil
	}
	return out, fmt.Errorf("predict failed after %d attempts: %w", c.config.MaxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) ([NumOutputs]float64, error) {
	var out [NumOutputs]float64

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.BaseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return out, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return out, &StatusError{Status: resp.StatusCode, Body: string(payload)}
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	if len(pr.Output) == 0 {
		return out, fmt.Errorf("sidecar returned empty output")
	}
	last := pr.Output[len(pr.Output)-1]
	if len(last) != NumOutputs {
		return out, fmt.Errorf("sidecar returned %d outputs per timestep, want %d", len(last), NumOutputs)
	}

	out[0] = last[0]
	out[1] = last[1]
	return out, nil
}
