package action

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("invalid action request")
	ErrPrecondition = errors.New("action precondition failed")
)

const (
	CodeBadRequest    = "bad_request"
	CodeInvalidParams = "invalid_params"
)

type ValidationError struct {
	Field   string
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return ErrValidation.Error() + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation, e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Code: CodeBadRequest, Message: message}
}

type PreconditionCode string

const (
	CodeAlreadyQueued         PreconditionCode = "already_queued"
	CodeNoActiveQueue         PreconditionCode = "no_active_queue"
	CodeInsufficientResources PreconditionCode = "insufficient_resources"
	CodeNotFound              PreconditionCode = "not_found"
	CodeStillActive           PreconditionCode = "still_active"
	CodeLevelTooLow           PreconditionCode = "level_too_low"
	CodeLockedOut             PreconditionCode = "locked_out"
	CodeWrongLocation         PreconditionCode = "wrong_location"
	CodeQueueActive           PreconditionCode = "queue_active"
)

type PreconditionError struct {
	Code    PreconditionCode
	Message string
}

func (e *PreconditionError) Error() string {
	return string(e.Code) + ": " + e.Message
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

func precondition(code PreconditionCode, format string, args ...any) *PreconditionError {
	return &PreconditionError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsExpected reports whether err is a validation or precondition outcome rather than a fault.
func IsExpected(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrPrecondition)
}
