// Package render selects highlight spans from the transcript and cuts a
// vertical short clip per accepted draft with ffmpeg. Rejected drafts are
// skipped, and a failed render marks only its own draft.
package render
