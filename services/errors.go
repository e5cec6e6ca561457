package services

import (
	"errors"
	"fmt"
)

// ErrAuthenticationRequired is returned when no caller identity was resolved.
var ErrAuthenticationRequired = errors.New("authentication required")

// ValidationError reports malformed or inconsistent input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// AccessDeniedError is returned when the caller may not see a resource.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return "access denied: " + e.Reason
}

// ForbiddenError is returned when the caller may not write Field.
type ForbiddenError struct {
	Field string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("forbidden: a provider with a recognized role is required to set %s", e.Field)
}

// NotFoundError is returned when the referenced record does not exist.
type NotFoundError struct {
	Resource string
	ID       interface{}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %v not found", e.Resource, e.ID)
}

// DomainError reports a violated cross-entity invariant.
type DomainError struct {
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}
