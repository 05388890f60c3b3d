package errx

import (
	"errors"
	"fmt"
)

const (
	// SystemErrorMessage is a user-facing fallback when internal errors occur.
	SystemErrorMessage = "internal server error"
	// RedisErrorMessage describes Redis related failures.
	RedisErrorMessage = "redis operation failed"
	// RedisNotFoundMessage describes a missing key.
	RedisNotFoundMessage = "redis key not found"
)

// Error wraps an underlying error with the workflow stage it occurred in and a
// safe message for the hosting layer to display.
type Error struct {
	Err     error
	Stage   string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Stage != "" && e.Err != nil:
		return fmt.Sprintf("stage %s: %s: %v", e.Stage, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Stage != "":
		return fmt.Sprintf("stage %s: %s", e.Stage, e.Message)
	default:
		return e.Message
	}
}

// Unwrap exposes the underlying error for errors.Is / errors.As support.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error with the provided information.
func New(err error, message string) *Error {
	return &Error{Err: err, Message: message}
}

// WrapStage attaches a workflow stage name to an error so the hosting layer
// can report which stage aborted the session.
func WrapStage(stage string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) && e.Stage == "" {
		return &Error{Err: e.Err, Stage: stage, Message: e.Message}
	}
	return &Error{Err: err, Stage: stage, Message: "stage failed"}
}

// Is reports whether the target matches the underlying error or the Error itself.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// As allows casting to Error or the wrapped error in a chain.
func (e *Error) As(target any) bool {
	if errors.As(e.Err, target) {
		return true
	}
	if t, ok := target.(**Error); ok {
		*t = e
		return true
	}
	return false
}

// EmptyResponseError reports that a model call succeeded but returned blank
// content. No safe default text exists, so it must propagate to the caller.
type EmptyResponseError struct {
	Model string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("model %s returned an empty response", e.Model)
}

// NewEmptyResponse creates an EmptyResponseError for the given model.
func NewEmptyResponse(model string) error {
	return &EmptyResponseError{Model: model}
}

// IsEmptyResponse reports whether err is (or wraps) an EmptyResponseError.
func IsEmptyResponse(err error) bool {
	var e *EmptyResponseError
	return errors.As(err, &e)
}

// InvocationError wraps a transport or model failure, keeping the original
// cause and the model that was being invoked.
type InvocationError struct {
	Model string
	Err   error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("error invoking model %s: %v", e.Model, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// NewInvocation creates an InvocationError for the given model and cause.
func NewInvocation(model string, err error) error {
	return &InvocationError{Model: model, Err: err}
}
