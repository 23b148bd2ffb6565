package util

import (
	"errors"
	"fmt"
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionNotFound    = errors.New("session not found")
	ErrStoreUnavailable   = errors.New("store unavailable")
)

// StoreError tags a transport-level failure of the ephemeral or durable
// store. The session buffer is never cleared on this path, so the caller
// may safely retry the whole operation.
func StoreError(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// PartialArchiveError reports an archive where one durable half committed
// and the other did not. Stage names the half that failed. Re-driving the
// whole archive duplicates chat records when Stage is "keywords"; the
// keyword write alone is add-if-absent and safe to re-drive.
type PartialArchiveError struct {
	Stage string
	Err   error
}

func (e *PartialArchiveError) Error() string {
	return fmt.Sprintf("partial archive failure at %s: %v", e.Stage, e.Err)
}

func (e *PartialArchiveError) Unwrap() error {
	return e.Err
}
