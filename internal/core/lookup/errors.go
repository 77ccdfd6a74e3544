package lookup

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline failures. Each kind has exactly one
// user-facing message.
type ErrorKind string

const (
	KindInvalidInput      ErrorKind = "InvalidInput"
	KindHandleNotFound    ErrorKind = "HandleNotFound"
	KindUnsupportedMethod ErrorKind = "UnsupportedMethod"
	KindDIDNotFound       ErrorKind = "DidNotFound"
)

// PipelineError is the only error type returned by Service.Resolve
type PipelineError struct {
	Kind  ErrorKind
	Input string
	DID   string
	Err   error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Message returns the text shown to the user. It never includes upstream
// error details.
func (e *PipelineError) Message() string {
	switch e.Kind {
	case KindInvalidInput:
		var ce *ClassifyError
		if errors.As(e.Err, &ce) {
			return ce.Message()
		}
		return "Invalid input. Not sure what you're on about."
	case KindHandleNotFound:
		return "Handle not found. Are you sure it's correct?"
	case KindUnsupportedMethod:
		return "Only PLC & web DIDs are currently supported by this tool."
	case KindDIDNotFound:
		return fmt.Sprintf("Could not find \"%s\"", e.DID)
	default:
		return "Something went wrong. Please try again."
	}
}

// IsKind reports whether err is a PipelineError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var pe *PipelineError
	return errors.As(err, &pe) && pe.Kind == kind
}
