package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"conveyor/internal/config"
)

// People & Blogs in the platform's category taxonomy.
const youtubeDefaultCategory = "22"

// YouTubeAdapter registers rendered shorts through a Data-API-shaped
// videos endpoint. The media upload itself references the rendered
// artifact path; the adapter sends metadata and the artifact location.
type YouTubeAdapter struct {
	cfg        config.YouTube
	httpClient *http.Client
}

// NewYouTube constructs the YouTube adapter.
func NewYouTube(cfg config.YouTube, timeoutSeconds int) *YouTubeAdapter {
	return &YouTubeAdapter{
		cfg:        cfg,
		httpClient: newHTTPClient(timeoutSeconds),
	}
}

// Name identifies the adapter in publication records.
func (a *YouTubeAdapter) Name() string { return "youtube" }

type youtubeSnippet struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	CategoryID  string   `json:"categoryId"`
}

type youtubeStatus struct {
	PrivacyStatus string `json:"privacyStatus"`
}

type youtubeInsert struct {
	Snippet  youtubeSnippet `json:"snippet"`
	Status   youtubeStatus  `json:"status"`
	MediaRef string         `json:"mediaRef,omitempty"`
}

type youtubeInsertResponse struct {
	ID string `json:"id"`
}

// Publish registers the video and returns the platform video id. Items
// without a rendered clip cannot be published here.
func (a *YouTubeAdapter) Publish(ctx context.Context, input Input) (string, error) {
	if strings.TrimSpace(a.cfg.APIURL) == "" {
		return "", errors.New("youtube: api_url not configured")
	}
	if strings.TrimSpace(input.ArtifactPath) == "" {
		return "", errors.New("youtube: no rendered clip to upload")
	}

	privacy := strings.TrimSpace(a.cfg.Privacy)
	if privacy == "" {
		privacy = "private"
	}
	description := input.Summary
	if input.CallToAction != "" {
		description += "\n\n" + input.CallToAction
	}

	payload := youtubeInsert{
		Snippet: youtubeSnippet{
			Title:       input.Title,
			Description: strings.TrimSpace(description),
			Tags:        input.Tags,
			CategoryID:  youtubeDefaultCategory,
		},
		Status:   youtubeStatus{PrivacyStatus: privacy},
		MediaRef: input.ArtifactPath,
	}
	var decoded youtubeInsertResponse
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/videos?part=snippet,status"
	if err := doJSON(ctx, a.httpClient, http.MethodPost, url, a.headers(), payload, &decoded); err != nil {
		return "", fmt.Errorf("youtube publish: %w", err)
	}
	if decoded.ID == "" {
		return "", errors.New("youtube publish: response missing video id")
	}
	return decoded.ID, nil
}

type youtubeStatsResponse struct {
	Items []struct {
		Statistics struct {
			ViewCount    string `json:"viewCount"`
			LikeCount    string `json:"likeCount"`
			CommentCount string `json:"commentCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// FetchMetrics reads the video statistics part.
func (a *YouTubeAdapter) FetchMetrics(ctx context.Context, externalRef string) (*Metrics, error) {
	var decoded youtubeStatsResponse
	url := strings.TrimRight(a.cfg.APIURL, "/") + "/videos?part=statistics&id=" + externalRef
	if err := doJSON(ctx, a.httpClient, http.MethodGet, url, a.headers(), nil, &decoded); err != nil {
		return nil, fmt.Errorf("youtube metrics: %w", err)
	}
	if len(decoded.Items) == 0 {
		return nil, fmt.Errorf("youtube metrics: video %s not found", externalRef)
	}

	stats := decoded.Items[0].Statistics
	views, _ := strconv.ParseInt(stats.ViewCount, 10, 64)
	likes, _ := strconv.ParseInt(stats.LikeCount, 10, 64)
	comments, _ := strconv.ParseInt(stats.CommentCount, 10, 64)

	metrics := &Metrics{Views: views}
	if views > 0 {
		metrics.Engagement = float64(likes+comments) / float64(views)
	}
	metrics.RawJSON = fmt.Sprintf(`{"viewCount":%d,"likeCount":%d,"commentCount":%d}`, views, likes, comments)
	return metrics, nil
}

func (a *YouTubeAdapter) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + a.cfg.AccessToken}
}
