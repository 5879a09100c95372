package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalService = errors.New("external service error")
	ErrValidation      = errors.New("validation error")
	ErrConfiguration   = errors.New("configuration error")
	ErrNotFound        = errors.New("not found")
	ErrTimeout         = errors.New("timeout")
	ErrTransient       = errors.New("transient failure")
	ErrContentPolicy   = errors.New("content policy rejection")
	ErrRateLimited     = errors.New("rate limited")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an external-service failure is worth another
// attempt. Timeouts, rate limits, and transient failures retry; validation,
// configuration, and content-policy failures do not.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrConfiguration),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrContentPolicy):
		return false
	default:
		return true
	}
}

// Details captures the surfaced portion of a stage error.
type Details struct {
	Message string
	Cause   error
}

// Detail extracts the human-readable message from a wrapped service error.
func Detail(err error) Details {
	if err == nil {
		return Details{}
	}
	message := err.Error()
	for _, marker := range []error{
		ErrExternalService, ErrValidation, ErrConfiguration,
		ErrNotFound, ErrTimeout, ErrTransient, ErrContentPolicy, ErrRateLimited,
	} {
		prefix := marker.Error() + ": "
		if strings.HasPrefix(message, prefix) {
			message = strings.TrimPrefix(message, prefix)
			break
		}
	}
	return Details{Message: strings.TrimSpace(message), Cause: errors.Unwrap(err)}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
