package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	MissingURL            ErrorKind = "MISSING_URL"
	InvalidURL            ErrorKind = "INVALID_URL"
	UnreachableResource   ErrorKind = "UNREACHABLE_RESOURCE"
	NotAnImage            ErrorKind = "NOT_AN_IMAGE"
	ProviderFailure       ErrorKind = "PROVIDER_FAILURE"
	InvalidProviderResult ErrorKind = "INVALID_PROVIDER_RESULT"
	InternalFault         ErrorKind = "INTERNAL_FAULT"
)

// PipelineFailure is the only error value that leaves the pipeline. Message is
// safe to show to callers, Cause is for diagnostics only.
type PipelineFailure struct {
	Kind    ErrorKind
	Message string
	Cause   string
}

func NewFailure(kind ErrorKind, message string) *PipelineFailure {
	return &PipelineFailure{Kind: kind, Message: message}
}

// WithCause returns a copy of f carrying cause.
func (f *PipelineFailure) WithCause(cause string) *PipelineFailure {
	c := *f
	c.Cause = cause
	return &c
}

func (f *PipelineFailure) Error() string {
	if f.Cause == "" {
		return fmt.Sprintf("%s: %s", f.Kind, f.Message)
	}

	return fmt.Sprintf("%s: %s: %s", f.Kind, f.Message, f.Cause)
}

// AsFailure classifies err. A *PipelineFailure anywhere in the chain is
// returned as is, anything else becomes an InternalFault.
func AsFailure(err error) *PipelineFailure {
	if err == nil {
		return nil
	}

	var f *PipelineFailure
	if errors.As(err, &f) {
		return f
	}

	return NewFailure(InternalFault, "internal error while enhancing image").WithCause(err.Error())
}
