// Package model holds the domain types shared by the ingest pipeline:
// the chronicler's raw game documents, the parser's entry kinds, the
// folder's materialized rows, and the writer's storage shapes.
package model

import "fmt"

// NotFoundError indicates a lookup for a specific resource found nothing.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError builds a NotFoundError for the given resource and id.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
