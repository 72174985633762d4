package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for resolution and validation failures.
var (
	ErrNoMakes  = errors.New("no makes found")
	ErrNoModels = errors.New("no specific models found")
	ErrFetch    = errors.New("registry fetch failed")

	ErrYearOutOfRange      = errors.New("year out of range")
	ErrUnsupportedMake     = errors.New("unsupported make")
	ErrUnknownModel        = errors.New("model not offered for make and year")
	ErrIncompleteSelection = errors.New("incomplete selection")
)

// Level names which list a resolution produces.
type Level string

const (
	LevelMakes  Level = "makes"
	LevelModels Level = "models"
)

// FetchError reports a failed category call. Any one failure fails the
// whole resolution step.
type FetchError struct {
	Level    Level
	Category Category
	Err      error
}

func (e *FetchError) Error() string {
	if e.Category == "" {
		return fmt.Sprintf("fetch %s: %v", e.Level, e.Err)
	}
	return fmt.Sprintf("fetch %s (%s): %v", e.Level, e.Category, e.Err)
}

func (e *FetchError) Unwrap() []error { return []error{ErrFetch, e.Err} }

// NewFetchError creates a FetchError.
func NewFetchError(level Level, cat Category, err error) *FetchError {
	return &FetchError{Level: level, Category: cat, Err: err}
}

// ValidationError wraps a sentinel with context.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s (value=%q)", e.Wrapped, e.Field, e.Value)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError creates a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

// User-visible resolution messages.
const (
	MsgNoMakes      = "No vehicle makes found for the selected year"
	MsgMakesFailed  = "Failed to load vehicle makes"
	MsgNoModels     = "No specific models found for the selected make and year"
	MsgModelsFailed = "Failed to load vehicle models"
)

// UserMessage maps a resolution error to the text shown to end users.
// Raw error detail never leaks through; unknown errors map to the
// failure message of the given level.
func UserMessage(level Level, err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoMakes):
		return MsgNoMakes
	case errors.Is(err, ErrNoModels):
		return MsgNoModels
	case level == LevelModels:
		return MsgModelsFailed
	default:
		return MsgMakesFailed
	}
}
