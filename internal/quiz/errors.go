package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrInvalidState    = errors.New("invalid session state")
	ErrNotFound        = errors.New("not found")

	// ErrStale is delivered to a generate caller whose request was
	// overtaken by a reset or a newer request. Its result was dropped.
	ErrStale = errors.New("generation result discarded")
)

// GenerationError reports content that cannot be turned into questions.
// The session goes back to idle and the caller may retry.
type GenerationError struct {
	Reason string
	Err    error
}

func (e *GenerationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("generate questions: %s: %v", e.Reason, e.Err)
	}
	return "generate questions: " + e.Reason
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError wraps any failure of the history backend.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("history %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

func IsGenerationError(err error) bool {
	var ge *GenerationError
	return errors.As(err, &ge)
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
