package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"conveyor/internal/config"
	"conveyor/internal/queue"
	"conveyor/internal/services"
)

const (
	defaultHTTPTimeout   = 60 * time.Second
	defaultRetryAttempts = 3
	retryBaseDelay       = 1 * time.Second
	retryMaxDelay        = 15 * time.Second
)

// Client wraps a speech-to-text HTTP API that accepts an uploaded media file
// and returns time-aligned segments.
type Client struct {
	cfg        config.Transcriber
	httpClient *http.Client
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithRetryBackoff overrides the retry backoff delays (useful for tests).
func WithRetryBackoff(base, max time.Duration) Option {
	return func(c *Client) {
		c.baseDelay = base
		c.maxDelay = max
	}
}

// NewClient constructs a transcription client from configuration.
func NewClient(cfg config.Transcriber, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		baseDelay:  retryBaseDelay,
		maxDelay:   retryMaxDelay,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

type httpStatusError struct {
	StatusCode int
	Body       string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("transcribe request: http %d: %s", e.StatusCode, strings.TrimSpace(e.Body))
}

type verboseResponse struct {
	Language string  `json:"language"`
	Duration float64 `json:"duration"`
	Text     string  `json:"text"`
	Segments []struct {
		ID    int     `json:"id"`
		Start float64 `json:"start"`
		End   float64 `json:"end"`
		Text  string  `json:"text"`
	} `json:"segments"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the source file and returns the ordered transcript.
// Transient failures retry with exponential backoff up to the configured
// attempt count; 4xx responses other than 408/429 fail immediately.
func (c *Client) Transcribe(ctx context.Context, sourcePath string) (*queue.Transcript, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "transcribe", "transcribe", "Transcriber API key is not configured", nil)
	}
	if strings.TrimSpace(sourcePath) == "" {
		return nil, errors.New("transcribe: source path required")
	}

	attempts := c.cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultRetryAttempts
	}

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = c.baseDelay
	expo.MaxInterval = c.maxDelay
	expo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(expo, uint64(attempts-1)), ctx)
	transcript, err := backoff.RetryWithData(func() (*queue.Transcript, error) {
		result, err := c.transcribeOnce(ctx, sourcePath)
		if err != nil && !retryableTransport(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	}, policy)
	if err != nil {
		// A rejected upload (4xx other than 408/429) failed on its first
		// attempt; surfacing it as a validation failure keeps the item's
		// failure reason from claiming the attempts were exhausted.
		var statusErr *httpStatusError
		if errors.As(err, &statusErr) && !retryableTransport(statusErr) {
			return nil, services.Wrap(services.ErrValidation, "transcribe", "transcribe source",
				fmt.Sprintf("Transcriber rejected %s (http %d)", filepath.Base(sourcePath), statusErr.StatusCode), err)
		}
		return nil, fmt.Errorf("transcribe %s: %w", filepath.Base(sourcePath), err)
	}
	return transcript, nil
}

func (c *Client) transcribeOnce(ctx context.Context, sourcePath string) (*queue.Transcript, error) {
	file, err := os.Open(sourcePath)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("open source: %w", err))
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filepath.Base(sourcePath))
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("copy source: %w", err)
	}
	fields := map[string]string{
		"model":           c.cfg.Model,
		"language":        c.cfg.Language,
		"response_format": "verbose_json",
	}
	for name, value := range fields {
		if value == "" {
			continue
		}
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write field %s: %w", name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http error: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &httpStatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded verboseResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("api error: %s", strings.TrimSpace(decoded.Error.Message))
	}
	if len(decoded.Segments) == 0 {
		return nil, errors.New("response contained no segments")
	}

	transcript := &queue.Transcript{Language: strings.TrimSpace(decoded.Language)}
	if transcript.Language == "" {
		transcript.Language = c.cfg.Language
	}
	for _, seg := range decoded.Segments {
		text := strings.TrimSpace(seg.Text)
		if text == "" {
			continue
		}
		transcript.Segments = append(transcript.Segments, queue.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  text,
		})
	}
	if len(transcript.Segments) == 0 {
		return nil, errors.New("response contained only empty segments")
	}
	return transcript, nil
}

// HealthCheck verifies the endpoint and credentials are usable without
// uploading media.
func (c *Client) HealthCheck(ctx context.Context) error {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return errors.New("transcribe health: api key required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.cfg.BaseURL, nil)
	if err != nil {
		return fmt.Errorf("transcribe health: new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("transcribe health: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("transcribe health: http %d", resp.StatusCode)
	}
	return nil
}

// retryableTransport reports whether the failure is worth another upload.
func retryableTransport(err error) bool {
	var statusErr *httpStatusError
	if errors.As(err, &statusErr) {
		switch {
		case statusErr.StatusCode == http.StatusRequestTimeout,
			statusErr.StatusCode == http.StatusTooManyRequests,
			statusErr.StatusCode >= http.StatusInternalServerError:
			return true
		default:
			return false
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return true
}
