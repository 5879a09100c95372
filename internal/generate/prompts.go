package generate

import (
	"fmt"
	"strings"

	"conveyor/internal/queue"
)

// transcriptExcerptRunes bounds how much transcript text goes into a prompt.
const transcriptExcerptRunes = 500

var platformInstructions = map[string]string{
	"wordpress": "Write it as a long-form blog post. Include a title, full body, tags, and categories.",
	"youtube":   "Write it as a YouTube video description. Include chapter timestamps, related links, and hashtags.",
	"naverblog": "Write it as a Naver blog post using natural, conversational Korean phrasing.",
	"instagram": "Write it as an Instagram caption. Use short sentences, hashtags, and emoji.",
	"facebook":  "Write it as a Facebook post. Include a question that invites engagement.",
	"tiktok":    "Write it as TikTok copy. Keep sentences short and punchy and include hashtags.",
}

// KnownPlatforms returns the platforms with dedicated prompt instructions.
func KnownPlatforms() []string {
	platforms := make([]string, 0, len(platformInstructions))
	for platform := range platformInstructions {
		platforms = append(platforms, platform)
	}
	return platforms
}

// draftPayload is the JSON shape the model is asked to return.
type draftPayload struct {
	Title        string   `json:"title"`
	Body         string   `json:"body"`
	Tags         []string `json:"tags"`
	Categories   []string `json:"categories"`
	Summary      string   `json:"summary"`
	CallToAction string   `json:"call_to_action"`
}

// SystemPrompt returns the platform-scoped system role text.
func SystemPrompt(platform string) string {
	return fmt.Sprintf("You are a professional content creator specializing in the %s platform. You must respond with JSON only.", platform)
}

// UserPrompt builds the per-platform generation request from the item's
// title and transcript.
func UserPrompt(platform, title string, transcript *queue.Transcript) string {
	instruction, ok := platformInstructions[platform]
	if !ok {
		instruction = "Write content appropriate for the platform."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create %s content from the following video transcript.\n\n", platform)
	fmt.Fprintf(&b, "Video information:\n")
	fmt.Fprintf(&b, "- Title: %s\n", title)
	fmt.Fprintf(&b, "- Transcript excerpt: %s\n", excerpt(transcript.Text()))
	fmt.Fprintf(&b, "- Word count: %d\n", transcript.WordCount())
	fmt.Fprintf(&b, "- Chapters: %d\n\n", len(transcript.Chapters))
	fmt.Fprintf(&b, "Requirements:\n%s\n\n", instruction)
	b.WriteString("Weave relevant keywords in naturally for search optimization.\n\n")
	b.WriteString(`Return JSON in this exact shape:
{
  "title": "the title",
  "body": "the body text",
  "tags": ["tag1", "tag2", "tag3"],
  "categories": ["category1"],
  "summary": "a short summary",
  "call_to_action": "a call to action"
}`)
	return b.String()
}

func excerpt(text string) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= transcriptExcerptRunes {
		return string(runes)
	}
	return strings.TrimSpace(string(runes[:transcriptExcerptRunes])) + "..."
}
