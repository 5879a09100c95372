package queue

import (
	"errors"
	"fmt"
)

// ErrDuplicateContent marks a register attempt whose fingerprint is already
// claimed by another item. An expected outcome, not a pipeline failure.
var ErrDuplicateContent = errors.New("duplicate content")

// DuplicateContentError carries the original item behind a rejected register.
type DuplicateContentError struct {
	Fingerprint string
	OriginalID  string
}

func (e *DuplicateContentError) Error() string {
	return fmt.Sprintf("duplicate content: fingerprint %s already registered to item %s", e.Fingerprint, e.OriginalID)
}

func (e *DuplicateContentError) Unwrap() error { return ErrDuplicateContent }
