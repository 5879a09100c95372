package stage

import (
	"conveyor/internal/queue"
	"conveyor/internal/services"
)

// RequireTranscript decodes the item's stored transcript for stages that
// cannot proceed without one. On a missing or corrupt transcript it returns a
// services.ErrValidation suitable for stage Execute methods.
func RequireTranscript(item *queue.Item) (*queue.Transcript, error) {
	transcript, err := item.Transcript()
	if err != nil {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "decode transcript",
			"Stored transcript is corrupt; retry from transcription", err)
	}
	if transcript == nil || len(transcript.Segments) == 0 {
		return nil, services.Wrap(
			services.ErrValidation, "stage", "decode transcript",
			"Transcript missing or empty; rerun transcription", nil)
	}
	return transcript, nil
}
