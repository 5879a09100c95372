package workflow

import "conveyor/internal/queue"

// RestartStatus picks where a failed item resumes when retried. Items that
// already carry a transcript skip straight to generation input; everything
// else replays from ingestion. Stage handlers tolerate reruns, so a coarse
// restart point only costs repeated work, never duplicate records.
func RestartStatus(item *queue.Item) queue.Status {
	if item != nil && item.TranscriptJSON != "" {
		return queue.StatusTranscribed
	}
	return queue.StatusIngested
}
