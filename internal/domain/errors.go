package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration signals an out-of-range recommender option.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrInvalidInput signals a malformed document set or snapshot.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotTrained signals an operation that needs a trained index.
	ErrNotTrained = errors.New("index not trained")
	// ErrSnapshotNotFound signals a missing persisted snapshot.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// ConfigurationError wraps ErrInvalidConfiguration with the offending option.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfiguration.Error(), e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error { return ErrInvalidConfiguration }

// NewConfigurationError creates a configuration error for field.
func NewConfigurationError(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// InputShapeError wraps ErrInvalidInput with the position of the bad record.
// Index is -1 when the error concerns the payload as a whole.
type InputShapeError struct {
	Index  int
	Field  string
	Reason string
}

func (e *InputShapeError) Error() string {
	switch {
	case e.Index < 0 && e.Field == "":
		return fmt.Sprintf("%s: %s", ErrInvalidInput.Error(), e.Reason)
	case e.Index < 0:
		return fmt.Sprintf("%s: %s %s", ErrInvalidInput.Error(), e.Field, e.Reason)
	case e.Field == "":
		return fmt.Sprintf("%s: document %d: %s", ErrInvalidInput.Error(), e.Index, e.Reason)
	default:
		return fmt.Sprintf("%s: document %d: %s %s", ErrInvalidInput.Error(), e.Index, e.Field, e.Reason)
	}
}

func (e *InputShapeError) Unwrap() error { return ErrInvalidInput }

// NewInputShapeError creates an input shape error for the record at index.
func NewInputShapeError(index int, field, reason string) error {
	return &InputShapeError{Index: index, Field: field, Reason: reason}
}
