// Package errors provides custom error types for product-related operations.
package errors

import (
	"sort"
	"strings"
)

// ValidationError reports a create payload that failed its preconditions.
// Fields maps the offending field to the rule it broke.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid data format"
	}
	parts := make([]string, 0, len(e.Fields))
	for field, rule := range e.Fields {
		parts = append(parts, field+": "+rule)
	}
	sort.Strings(parts)
	return "invalid data format: " + strings.Join(parts, ", ")
}

// StorageError reports that the persistence medium could not complete Op.
// Error returns the message of the underlying failure unchanged.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return e.Err.Error()
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
