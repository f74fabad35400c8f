package models

import (
	"errors"
	"fmt"
)

type ErrorNotFound struct {
	Resource string
	ID       string
}

func (e ErrorNotFound) Error() string {
	if e.ID == "" {
		return e.Resource + " not found"
	}
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// ErrorStoreFailure wraps anything the database reported that is not a
// missing row or a cancellation.
type ErrorStoreFailure struct {
	Op  string
	Err error
}

func (e ErrorStoreFailure) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e ErrorStoreFailure) Unwrap() error {
	return e.Err
}

// ErrorInvariantViolation means a write succeeded but its read-back did not
// observe the row.
type ErrorInvariantViolation struct {
	Message string
}

func (e ErrorInvariantViolation) Error() string {
	return "invariant violation: " + e.Message
}

type ErrorCanceled struct {
	Op  string
	Err error
}

func (e ErrorCanceled) Error() string {
	return fmt.Sprintf("%s: canceled: %v", e.Op, e.Err)
}

func (e ErrorCanceled) Unwrap() error {
	return e.Err
}

type ErrorUnauthorized struct {
	Message string
}

func (e ErrorUnauthorized) Error() string {
	return e.Message
}

type ErrorForbidden struct {
	Message string
}

func (e ErrorForbidden) Error() string {
	return e.Message
}

type ErrorConflict struct {
	Message string
	Err     error
}

func (e ErrorConflict) Error() string {
	return e.Message
}

func (e ErrorConflict) Unwrap() error {
	return e.Err
}

// ErrorValidation carries field errors from ozzo-validation.
type ErrorValidation struct {
	Err error
}

func (e ErrorValidation) Error() string {
	return e.Err.Error()
}

func (e ErrorValidation) Unwrap() error {
	return e.Err
}

func IsNotFound(err error) bool {
	var target ErrorNotFound
	return errors.As(err, &target)
}

func IsCanceled(err error) bool {
	var target ErrorCanceled
	return errors.As(err, &target)
}
