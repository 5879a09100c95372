package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"conveyor/internal/config"
)

const userAgent = "Conveyor/0.1.0"

// Service is the notification surface used by the workflow manager. Failures
// to notify are logged and dropped; a push outage never affects the queue.
type Service interface {
	NotifyPipelineStarted(ctx context.Context, workers int) error
	NotifyItemPublished(ctx context.Context, title string, platforms int) error
	NotifyItemFailed(ctx context.Context, title, reason string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when a topic is
// configured, and a noop implementation otherwise.
func NewService(cfg *config.Config) Service {
	topic := ""
	timeout := 10 * time.Second
	if cfg != nil {
		topic = strings.TrimSpace(cfg.Notifications.NtfyTopic)
		if cfg.Notifications.TimeoutSeconds > 0 {
			timeout = time.Duration(cfg.Notifications.TimeoutSeconds) * time.Second
		}
	}
	if topic == "" {
		return noopService{}
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyPipelineStarted(ctx context.Context, workers int) error {
	return n.send(ctx, payload{
		title:   "Conveyor - Daemon Started",
		message: fmt.Sprintf("Pipeline running with %d worker(s)", workers),
		tags:    []string{"conveyor", "daemon"},
	})
}

func (n *ntfyService) NotifyItemPublished(ctx context.Context, title string, platforms int) error {
	return n.send(ctx, payload{
		title:   "Conveyor - Published",
		message: fmt.Sprintf("%s is live on %d platform(s)", strings.TrimSpace(title), platforms),
		tags:    []string{"conveyor", "published"},
	})
}

func (n *ntfyService) NotifyItemFailed(ctx context.Context, title, reason string) error {
	message := strings.TrimSpace(title) + " failed"
	if reason = strings.TrimSpace(reason); reason != "" {
		message += ": " + reason
	}
	return n.send(ctx, payload{
		title:    "Conveyor - Item Failed",
		message:  message,
		tags:     []string{"conveyor", "failed"},
		priority: "high",
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.send(ctx, payload{
		title:   "Conveyor - Test",
		message: "Notification delivery works",
		tags:    []string{"conveyor", "test"},
	})
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyPipelineStarted(context.Context, int) error       { return nil }
func (noopService) NotifyItemPublished(context.Context, string, int) error { return nil }
func (noopService) NotifyItemFailed(context.Context, string, string) error { return nil }
func (noopService) TestNotification(context.Context) error                 { return nil }
