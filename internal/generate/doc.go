// Package generate produces per-platform content drafts from a transcript
// via a JSON-only chat completion API. Each enabled platform gets its own
// prompt and its own request; platform failures are independent, and the
// stage fails only when no platform yields a draft.
package generate
