package session

import (
	"errors"
	"fmt"
)

type ErrorType int

const (
	ErrUpload ErrorType = iota
	ErrPoll
	ErrJobFailed
	ErrValidation
	ErrExport
	ErrNetwork
	ErrUnknown
)

// StudioError is the application error surfaced to the user. Network-origin
// errors are converted into these at the session boundary; none propagate
// as uncaught failures.
type StudioError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func NewError(errorType ErrorType, message string) *StudioError {
	return &StudioError{
		Type:    errorType,
		Message: message,
	}
}

func NewErrorWithCause(errorType ErrorType, message string, cause error) *StudioError {
	return &StudioError{
		Type:    errorType,
		Message: message,
		Cause:   cause,
	}
}

func (e *StudioError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s | cause: %v", e.Type.String(), e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type.String(), e.Message)
}

func (e *StudioError) Unwrap() error {
	return e.Cause
}

func (t ErrorType) String() string {
	switch t {
	case ErrUpload:
		return "Upload"
	case ErrPoll:
		return "Poll"
	case ErrJobFailed:
		return "JobFailed"
	case ErrValidation:
		return "Validation"
	case ErrExport:
		return "Export"
	case ErrNetwork:
		return "Network"
	default:
		return "Unknown"
	}
}

func IsErrorType(err error, errorType ErrorType) bool {
	var studioErr *StudioError
	if errors.As(err, &studioErr) {
		return studioErr.Type == errorType
	}
	return false
}

func WrapError(err error, errorType ErrorType, message string) *StudioError {
	return NewErrorWithCause(errorType, message, err)
}
