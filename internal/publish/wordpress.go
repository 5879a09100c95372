package publish

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"conveyor/internal/config"
)

// WordPressAdapter publishes drafts as posts through the WordPress REST API.
// Posts land in draft status so a human can review before they go live.
type WordPressAdapter struct {
	cfg        config.WordPress
	httpClient *http.Client
}

// NewWordPress constructs the WordPress adapter.
func NewWordPress(cfg config.WordPress, timeoutSeconds int) *WordPressAdapter {
	return &WordPressAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(timeoutSeconds),
	}
}

// Name identifies the adapter in publication records.
func (a *WordPressAdapter) Name() string { return "wordpress" }

type wordpressPost struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Excerpt    string   `json:"excerpt,omitempty"`
	Status     string   `json:"status"`
	Tags       []string `json:"tags,omitempty"`
	Categories []string `json:"categories,omitempty"`
}

type wordpressPostResponse struct {
	ID   int64  `json:"id"`
	Link string `json:"link"`
}

// Publish creates a draft post and returns its post id.
func (a *WordPressAdapter) Publish(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(a.cfg.APIURL) == "" {
		return "", errors.New("wordpress: api_url not configured")
	}

	payload := wordpressPost{
		Title:      input.Title,
		Content:    input.Body,
		Excerpt:    input.Summary,
		Status:     "draft",
		Tags:       input.Tags,
		Categories: input.Categories,
	}
	var decoded wordpressPostResponse
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/wp/v2/posts"
	if err := doJSON(ctx, a.httpClient, http.MethodPost, url, a.headers(), payload, &decoded); err != nil {
		return "", fmt.Errorf("wordpress publish: %w", err)
	}
	if decoded.ID == 0 {
		return "", errors.New("wordpress publish: response missing post id")
	}
	return strconv.FormatInt(decoded.ID, 10), nil
}

type wordpressStats struct {
	Views    int64 `json:"views"`
	Comments int64 `json:"comments"`
	Likes    int64 `json:"likes"`
}

// FetchMetrics reads the per-post stats endpoint.
func (a *WordPressAdapter) FetchMetrics(ctx context.Context, externalRef string) (*Metrics, error) {
	var decoded wordpressStats
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/wp/v2/posts/" + externalRef + "/stats"
	if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &decoded); err != nil {
		return nil, fmt.Errorf("wordpress metrics: %w", err)
	}

	metrics := &Metrics{Views: decoded.Views}
	if decoded.Views > 0 {
		metrics.Engagement = float64(decoded.Comments+decoded.Likes) / float64(decoded.Views)
	}
	metrics.RawJSON = fmt.Sprintf(`{"views":%d,"comments":%d,"likes":%d}`,
		decoded.Views, decoded.Comments, decoded.Likes)
	return metrics, nil
}

func (a *WordPressAdapter) headers() map[string]string {
	credentials := base64.StdEncoding.EncodeToString([]byte(a.cfg.Username + ":" + a.cfg.Password))
	return map[string]string{"Authorization": "Basic " + credentials}
}
