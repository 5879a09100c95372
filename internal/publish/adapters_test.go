package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"conveyor/internal/config"
)

func TestWordPressPublishCreatesDraftPost(t *testing.T) {
	var gotPath, gotAuth string
	var gotPayload wordpressPost
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id": 4821, "link": "https://blog.example/p/4821"}`))
	}))
	defer server.Close()

	adapter := NewWordPress(config.WordPress{
		APIURL:   server.URL,
		Username: "editor",
		Password: "secret",
	}, 5)

	ref, err := adapter.Publish(context.Background(), Input{
		Title:   "Release notes",
		Body:    "Everything that shipped.",
		Summary: "Summary.",
		Tags:    []string{"release"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ref != "4821" {
		t.Fatalf("external ref = %s, want 4821", ref)
	}
	if gotPath != "/wp/v2/posts" {
		t.Fatalf("path = %s", gotPath)
	}
	if !strings.HasPrefix(gotAuth, "Basic ") {
		t.Fatalf("authorization = %q, want basic auth", gotAuth)
	}
	if gotPayload.Status != "draft" {
		t.Fatalf("post status = %s, want draft for human review", gotPayload.Status)
	}
	if gotPayload.Title != "Release notes" {
		t.Fatalf("post title = %s", gotPayload.Title)
	}
}

func TestWordPressFetchMetricsComputesEngagement(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/wp/v2/posts/4821/stats") {
			t.Errorf("path = %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"views": 200, "comments": 8, "likes": 12}`))
	}))
	defer server.Close()

	adapter := NewWordPress(config.WordPress{APIURL: server.URL}, 5)
	metrics, err := adapter.FetchMetrics(context.Background(), "4821")
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if metrics.Views != 200 {
		t.Fatalf("views = %d", metrics.Views)
	}
	if metrics.Engagement != 0.1 {
		t.Fatalf("engagement = %.3f, want 0.1", metrics.Engagement)
	}
}

func TestYouTubePublishRequiresArtifact(t *testing.T) {
	adapter := NewYouTube(config.YouTube{APIURL: "http://unused.invalid"}, 5)
	if _, err := adapter.Publish(context.Background(), Input{Title: "t", Body: "b"}); err == nil {
		t.Fatal("expected error for missing rendered clip")
	}
}

func TestYouTubePublishSendsSnippetAndPrivacy(t *testing.T) {
	var gotPayload youtubeInsert
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"id": "vid-123"}`))
	}))
	defer server.Close()

	adapter := NewYouTube(config.YouTube{
		APIURL:      server.URL,
		AccessToken: "token",
		Privacy:     "unlisted",
	}, 5)

	ref, err := adapter.Publish(context.Background(), Input{
		Title:        "Short",
		Summary:      "A clip.",
		CallToAction: "Subscribe.",
		ArtifactPath: "/artifacts/item/youtube_short.mp4",
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ref != "vid-123" {
		t.Fatalf("external ref = %s", ref)
	}
	if gotAuth != "Bearer token" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotPayload.Status.PrivacyStatus != "unlisted" {
		t.Fatalf("privacy = %s", gotPayload.Status.PrivacyStatus)
	}
	if !strings.Contains(gotPayload.Snippet.Description, "Subscribe.") {
		t.Fatalf("description = %q, want call to action appended", gotPayload.Snippet.Description)
	}
}

func TestYouTubeFetchMetricsParsesStatistics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items":[{"statistics":{"viewCount":"1000","likeCount":"40","commentCount":"10"}}]}`))
	}))
	defer server.Close()

	adapter := NewYouTube(config.YouTube{APIURL: server.URL}, 5)
	metrics, err := adapter.FetchMetrics(context.Background(), "vid-123")
	if err != nil {
		t.Fatalf("FetchMetrics: %v", err)
	}
	if metrics.Views != 1000 {
		t.Fatalf("views = %d", metrics.Views)
	}
	if metrics.Engagement != 0.05 {
		t.Fatalf("engagement = %.3f, want 0.05", metrics.Engagement)
	}
}

func TestNaverBlogPublishSendsClientCredentials(t *testing.T) {
	var gotID, gotSecret string
	var gotPayload naverBlogPost
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Naver-Client-Id")
		gotSecret = r.Header.Get("X-Naver-Client-Secret")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"postId": "np-77"}`))
	}))
	defer server.Close()

	adapter := NewNaverBlog(config.NaverBlog{
		APIURL:       server.URL,
		ClientID:     "cid",
		ClientSecret: "csecret",
		BlogID:       "myblog",
	}, 5)

	ref, err := adapter.Publish(context.Background(), Input{
		Title:      "Post",
		Body:       "Body",
		Tags:       []string{"one", "two"},
		Categories: []string{"tech"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if ref != "np-77" {
		t.Fatalf("external ref = %s", ref)
	}
	if gotID != "cid" || gotSecret != "csecret" {
		t.Fatalf("credential headers = %q / %q", gotID, gotSecret)
	}
	if gotPayload.Tag != "one,two" {
		t.Fatalf("tag = %s", gotPayload.Tag)
	}
	if gotPayload.Category != "tech" {
		t.Fatalf("category = %s", gotPayload.Category)
	}
}

func TestAdapterSurfacesHTTPStatusErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer server.Close()

	adapter := NewWordPress(config.WordPress{APIURL: server.URL}, 5)
	_, err := adapter.Publish(context.Background(), Input{Title: "t", Body: "b"})
	if err == nil {
		t.Fatal("expected error")
	}
	if retryablePublish(err) {
		t.Fatalf("401 should not be retryable: %v", err)
	}
}

func TestRegistryBuildsEnabledAdaptersOnly(t *testing.T) {
	registry := NewRegistry(config.Publishers{
		WordPress: config.WordPress{Enabled: true, APIURL: "http://wp.invalid"},
		YouTube:   config.YouTube{Enabled: false},
		NaverBlog: config.NaverBlog{Enabled: true, APIURL: "http://naver.invalid"},
	})

	names := registry.Names()
	if len(names) != 2 || names[0] != "naverblog" || names[1] != "wordpress" {
		t.Fatalf("names = %v", names)
	}
	if _, ok := registry.Adapter("youtube"); ok {
		t.Fatal("disabled platform should have no adapter")
	}
}
