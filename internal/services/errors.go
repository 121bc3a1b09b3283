package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Outcome errors for expected conditions. Handlers translate these to status
// codes; anything else is treated as a storage failure.
var (
	// ErrUnauthorized means the caller is anonymous or references no known user.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is authenticated but not the organizer
	// of the event in question.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports rejected input with per-field detail.
// It is returned before any write happens.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid input"
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid input: %s", strings.Join(names, ", "))
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}
