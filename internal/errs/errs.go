// Package errs contains the error taxonomy shared by the storage, service and
// transport layers. Callers classify errors with errors.Is against the
// sentinels; the typed errors carry the extra data some replies need.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput marks malformed or missing request fields.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorised marks an operation attempted without an acting user.
	ErrUnauthorised = errors.New("unauthorised")

	// ErrUnknownReference marks a write against a book that is not in the catalog.
	ErrUnknownReference = errors.New("unknown reference")

	// ErrNotFound marks a read or delete against a key or content that does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a write superseded by a newer server record.
	ErrConflict = errors.New("conflict")

	// ErrSizeMismatch marks an upload whose byte count differs from the claim.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrChecksumMismatch marks an upload whose SHA-256 differs from the claim.
	ErrChecksumMismatch = errors.New("checksum mismatch")

	// ErrTooLarge marks an upload above the configured size cap.
	ErrTooLarge = errors.New("too large")

	// ErrStorage marks an I/O failure of the relational store or the blob store.
	ErrStorage = errors.New("storage failure")
)

// ConflictError reports the effective server timestamp that beat the client.
type ConflictError struct {
	ServerTimestamp int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: server record at %d is newer", e.ServerTimestamp)
}

func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// Conflict returns a ConflictError for the given server timestamp.
func Conflict(serverTimestamp int64) error {
	return &ConflictError{ServerTimestamp: serverTimestamp}
}

// InputError is a validation failure with a client-facing reason.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "invalid input: " + e.Reason
}

func (e *InputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Invalid returns an InputError with the given reason.
func Invalid(reason string) error {
	return &InputError{Reason: reason}
}

// StorageError wraps an underlying store failure with the operation name.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure (%s): %v", e.Op, e.Err)
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Storage wraps err as a StorageError. A nil err stays nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// ServerTimestamp extracts the conflicting server timestamp from err.
func ServerTimestamp(err error) (int64, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce.ServerTimestamp, true
	}
	return 0, false
}

// Reason extracts the validation reason from err, if any.
func Reason(err error) string {
	var ie *InputError
	if errors.As(err, &ie) {
		return ie.Reason
	}
	return ""
}
