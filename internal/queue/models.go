package queue

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle stage of a content item.
type Status string

const (
	StatusIngested     Status = "ingested"
	StatusTranscribing Status = "transcribing"
	StatusTranscribed  Status = "transcribed"
	StatusGenerating   Status = "generating"
	StatusGenerated    Status = "generated"
	StatusValidating   Status = "validating"
	StatusValidated    Status = "validated"
	StatusRendering    Status = "rendering"
	StatusRendered     Status = "rendered"
	StatusPublishing   Status = "publishing"
	StatusPublished    Status = "published"
	StatusFailed       Status = "failed"
)

// Item-fatal failure reasons recorded in the audit log.
const (
	ReasonTranscriptionExhausted = "TranscriptionExhausted"
	ReasonGenerationFailedAll    = "GenerationFailedAll"
	ReasonPublishFailedAll       = "PublishFailedAll"
	ReasonDaemonStopped          = "DaemonStopped"
)

// Per-draft outcomes surfaced via the audit log; never item-fatal.
const (
	ReasonValidationRejected    = "ValidationRejected"
	ReasonRenderFailed          = "RenderFailed"
	ReasonPublishPartialFailure = "PublishPartialFailure"
)

var allStatuses = []Status{
	StatusIngested,
	StatusTranscribing,
	StatusTranscribed,
	StatusGenerating,
	StatusGenerated,
	StatusValidating,
	StatusValidated,
	StatusRendering,
	StatusRendered,
	StatusPublishing,
	StatusPublished,
	StatusFailed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTranscribing: {},
	StatusGenerating:   {},
	StatusValidating:   {},
	StatusRendering:    {},
	StatusPublishing:   {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsProcessingStatus reports whether a status reflects an in-flight stage.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether no further automated transition occurs.
func IsTerminal(status Status) bool {
	return status == StatusPublished || status == StatusFailed
}

// Segment is one time-aligned span of transcript text.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Chapter marks a coarse-grained section of the transcript.
type Chapter struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Title   string  `json:"title"`
	Summary string  `json:"summary"`
}

// Transcript is the ordered, time-aligned text produced by the transcriber.
// Immutable once stored; re-transcription creates a new item.
type Transcript struct {
	Language string    `json:"language"`
	Segments []Segment `json:"segments"`
	Chapters []Chapter `json:"chapters,omitempty"`
}

// Text joins all segment text into a single string.
func (t *Transcript) Text() string {
	if t == nil || len(t.Segments) == 0 {
		return ""
	}
	parts := make([]string, 0, len(t.Segments))
	for _, seg := range t.Segments {
		if trimmed := strings.TrimSpace(seg.Text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, " ")
}

// WordCount counts whitespace-delimited words across all segments.
func (t *Transcript) WordCount() int {
	return len(strings.Fields(t.Text()))
}

// MediaMetadata holds best-effort attributes probed from the source file.
// A zero value is valid: probe failures degrade to empty metadata.
type MediaMetadata struct {
	DurationSeconds float64   `json:"duration_seconds,omitempty"`
	Format          string    `json:"format,omitempty"`
	Codec           string    `json:"codec,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	CaptureTime     time.Time `json:"capture_time,omitzero"`
	MediaKind       string    `json:"media_kind,omitempty"`
}

// Item represents a content item persisted in SQLite.
type Item struct {
	ID              string
	Fingerprint     string
	SourcePath      string
	Title           string
	MetadataJSON    string
	TranscriptJSON  string
	Status          Status
	ErrorMessage    string
	ProgressStage   string
	ProgressPercent float64
	ProgressMessage string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastHeartbeat   *time.Time
}

// IsProcessing returns true when the status reflects an in-flight stage.
func (i Item) IsProcessing() bool {
	return IsProcessingStatus(i.Status)
}

// SetProgress updates all three progress fields together.
func (i *Item) SetProgress(stage, message string, percent float64) {
	i.ProgressStage = stage
	i.ProgressMessage = message
	i.ProgressPercent = percent
}

// SetFailed marks the item as failed with the given error message.
func (i *Item) SetFailed(message string) {
	i.Status = StatusFailed
	i.ErrorMessage = message
	i.ProgressStage = "Failed"
	i.ProgressMessage = message
	i.ProgressPercent = 0
	i.LastHeartbeat = nil
}

// Transcript decodes the stored transcript, or returns nil when the item has
// not been transcribed yet.
func (i *Item) Transcript() (*Transcript, error) {
	if i.TranscriptJSON == "" {
		return nil, nil
	}
	var transcript Transcript
	if err := json.Unmarshal([]byte(i.TranscriptJSON), &transcript); err != nil {
		return nil, fmt.Errorf("decode transcript: %w", err)
	}
	return &transcript, nil
}

// SetTranscript stores the transcript as the item's canonical copy.
func (i *Item) SetTranscript(transcript *Transcript) error {
	encoded, err := json.Marshal(transcript)
	if err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	i.TranscriptJSON = string(encoded)
	return nil
}

// Metadata decodes the probed media metadata, degrading to a zero value when
// none was stored.
func (i *Item) Metadata() (MediaMetadata, error) {
	if i.MetadataJSON == "" {
		return MediaMetadata{}, nil
	}
	var meta MediaMetadata
	if err := json.Unmarshal([]byte(i.MetadataJSON), &meta); err != nil {
		return MediaMetadata{}, fmt.Errorf("decode media metadata: %w", err)
	}
	return meta, nil
}

// SetMetadata stores probed media attributes on the item.
func (i *Item) SetMetadata(meta MediaMetadata) error {
	encoded, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode media metadata: %w", err)
	}
	i.MetadataJSON = string(encoded)
	return nil
}

// Outcome is a draft's validation decision.
type Outcome string

const (
	OutcomePending  Outcome = "pending"
	OutcomeAccepted Outcome = "accepted"
	OutcomeRejected Outcome = "rejected"
)

// Render states for a draft's short-form artifact.
const (
	RenderPending = "pending"
	RenderDone    = "rendered"
	RenderSkipped = "skipped"
	RenderFailed  = "failed"
)

// Draft is one platform-specific content candidate derived from an item.
// Drafts for different platforms are independently mutable.
type Draft struct {
	ItemID       string
	Platform     string
	Title        string
	Body         string
	Tags         []string
	Categories   []string
	Summary      string
	CallToAction string
	Scores       map[string]float64
	Outcome      Outcome
	RejectReason string
	ArtifactPath string
	RenderState  string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// AggregateScore returns the arithmetic mean of the dimension scores.
func (d *Draft) AggregateScore() float64 {
	if len(d.Scores) == 0 {
		return 0
	}
	var sum float64
	for _, score := range d.Scores {
		sum += score
	}
	return sum / float64(len(d.Scores))
}

// PublicationStatus tracks the terminal state of one platform dispatch.
type PublicationStatus string

const (
	PublicationSucceeded PublicationStatus = "succeeded"
	PublicationFailed    PublicationStatus = "failed"
	PublicationRetrying  PublicationStatus = "retrying"
)

// PublicationResult records the outcome of publishing one draft to one platform.
type PublicationResult struct {
	ItemID      string
	Platform    string
	Status      PublicationStatus
	ExternalRef string
	Attempts    int
	LastError   string
	UpdatedAt   time.Time
}

// AuditRecord is one append-only stage-transition entry.
type AuditRecord struct {
	ID        int64
	ItemID    string
	Stage     Status
	Outcome   string
	Reason    string
	CreatedAt time.Time
}

// MetricsSnapshot is one post-publication performance reading for a platform.
type MetricsSnapshot struct {
	ID         int64
	ItemID     string
	Platform   string
	Views      int64
	Engagement float64
	RawJSON    string
	FetchedAt  time.Time
}

// HealthSummary describes aggregated queue counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Waiting    int
	Processing int
	Published  int
	Failed     int
}
