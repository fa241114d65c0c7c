package target

import "errors"

var (
	// ErrNotFound indicates the object does not exist in the target store.
	ErrNotFound = errors.New("target: object not found")

	// ErrConflict indicates the object's revision advanced since it was read.
	// Retryable: the next sweep re-reads and re-applies.
	ErrConflict = errors.New("target: revision conflict")

	// ErrAlreadyExists indicates a create hit an existing object. Callers
	// doing create-if-absent treat this as success.
	ErrAlreadyExists = errors.New("target: object already exists")
)

// IsRetryable reports whether the error self-heals on the next sweep.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConflict)
}

func isNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func isAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
