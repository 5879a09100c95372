package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"conveyor/internal/config"
)

// NaverBlogAdapter publishes drafts as blog posts through the Naver open
// API, authenticated with the application client id and secret.
type NaverBlogAdapter struct {
	cfg        config.NaverBlog
	httpClient *http.Client
}

// NewNaverBlog constructs the Naver Blog adapter.
func NewNaverBlog(cfg config.NaverBlog, timeoutSeconds int) *NaverBlogAdapter {
	return &NaverBlogAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(timeoutSeconds),
	}
}

// Name identifies the adapter in publication records.
func (a *NaverBlogAdapter) Name() string { return "naverblog" }

type naverBlogPost struct {
	BlogID   string `json:"blogId"`
	Title    string `json:"title"`
	Contents string `json:"contents"`
	Tag      string `json:"tag,omitempty"`
	Category string `json:"category,omitempty"`
}

type naverBlogResponse struct {
	PostID  string `json:"postId"`
	Message string `json:"message"`
}

// Publish writes the post and returns the platform post id.
func (a *NaverBlogAdapter) Publish(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(a.cfg.APIURL) == "" {
		return "", errors.New("naverblog: api_url not configured")
	}

	payload := naverBlogPost{
		BlogID:   a.cfg.BlogID,
		Title:    input.Title,
		Contents: input.Body,
		Tag:      strings.Join(input.Tags, ","),
	}
	if len(input.Categories) > 0 {
		payload.Category = input.Categories[0]
	}

	var decoded naverBlogResponse
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/blog/writePost"
	if err := doJSON(ctx, a.httpClient, http.MethodPost, url, a.headers(), payload, &decoded); err != nil {
		return "", fmt.Errorf("naverblog publish: %w", err)
	}
	if decoded.PostID == "" {
		return "", fmt.Errorf("naverblog publish: response missing post id: %s", decoded.Message)
	}
	return decoded.PostID, nil
}

type naverBlogStats struct {
	ViewCount     int64 `json:"viewCount"`
	CommentCount  int64 `json:"commentCount"`
	SympathyCount int64 `json:"sympathyCount"`
}

// FetchMetrics reads per-post view and reaction counts.
func (a *NaverBlogAdapter) FetchMetrics(ctx context.Context, externalRef string) (*Metrics, error) {
	var decoded naverBlogStats
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/blog/stats?postId=" + externalRef
	if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &decoded); err != nil {
		return nil, fmt.Errorf("naverblog metrics: %w", err)
	}

	metrics := &Metrics{Views: decoded.ViewCount}
	if decoded.ViewCount > 0 {
		metrics.Engagement = float64(decoded.CommentCount+decoded.SympathyCount) / float64(decoded.ViewCount)
	}
	metrics.RawJSON = fmt.Sprintf(`{"viewCount":%d,"commentCount":%d,"sympathyCount":%d}`,
		decoded.ViewCount, decoded.CommentCount, decoded.SympathyCount)
	return metrics, nil
}

func (a *NaverBlogAdapter) headers() map[string]string {
	return map[string]string{
		"X-Naver-Client-Id":     a.cfg.ClientID,
		"X-Naver-Client-Secret": a.cfg.ClientSecret,
	}
}
