package paste

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("paste not found")
	ErrExpired        = errors.New("paste expired")
	ErrConflict       = errors.New("paste already exists")
	ErrCommitFailed   = errors.New("paste commit failed")
	ErrMalformedLink  = errors.New("malformed link")
	ErrEmptyPayload   = errors.New("empty payload")
	ErrUnknownPayload = errors.New("unknown payload kind")
	ErrInvalidAlias   = errors.New("alias must not be an id")
)

// ConflictError is returned by Create when the new record's id, short
// code or alias is already taken by a live record.
type ConflictError struct {
	Namespace Namespace
	Existing  *Record
}

func (e *ConflictError) Error() string {
	if e.Existing == nil {
		return fmt.Sprintf("paste already exists: %s taken", e.Namespace)
	}

	return fmt.Sprintf("paste already exists: %s taken by %s", e.Namespace, e.Existing.ID)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
