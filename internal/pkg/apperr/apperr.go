// Package apperr defines the error taxonomy shared by the scheduling core.
//
// Domain packages declare their own sentinels wrapping one of the kinds below,
// so callers can branch either on the specific error or on its kind:
//
//	errors.Is(err, booking.ErrSlotTaken)   // specific
//	errors.Is(err, apperr.ErrSlotConflict) // kind
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrSlotConflict       = errors.New("slot conflict")
	ErrDuplicateSelection = errors.New("duplicate selection")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrImmutableState     = errors.New("immutable state")
	ErrStorage            = errors.New("storage unavailable")
)

// New declares a domain sentinel of the given kind.
func New(kind error, msg string) error {
	return fmt.Errorf("%s: %w", msg, kind)
}

// ValidationErrors maps a field name to a human readable message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+v[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

// Invalid builds a single-field validation error.
func Invalid(field, msg string) error {
	return ValidationErrors{field: msg}
}

// StorageError wraps a failure of the persistence layer.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}

// Storage wraps err as a StorageError. Errors that already carry a taxonomy
// kind are returned unchanged.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	if Kind(err) != nil {
		return err
	}
	return &StorageError{Op: op, Err: err}
}

var kinds = []error{
	ErrNotFound,
	ErrValidation,
	ErrSlotConflict,
	ErrDuplicateSelection,
	ErrInvalidTransition,
	ErrImmutableState,
	ErrStorage,
}

// Kind returns the taxonomy kind of err, or nil when err is unclassified.
func Kind(err error) error {
	for _, k := range kinds {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}

// Retryable reports whether the caller may retry with a different choice.
// Only slot conflicts qualify: the caller picks another slot.
func Retryable(err error) bool {
	return errors.Is(err, ErrSlotConflict)
}
