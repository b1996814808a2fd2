// Package models defines the error taxonomy shared by all components.
package models

import (
	"fmt"
)

// ValidationKind classifies why a payload was rejected before any
// capability call.
type ValidationKind string

const (
	ValidationEmpty           ValidationKind = "empty"
	ValidationTooShort        ValidationKind = "too_short"
	ValidationTooLong         ValidationKind = "too_long"
	ValidationTooLarge        ValidationKind = "too_large"
	ValidationUnsupportedType ValidationKind = "unsupported_type"
)

// ValidationError reports a structural problem with the submitted content.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RateLimitedError reports that the per-client request budget is exhausted.
// RetryAfter is the number of whole seconds until a slot frees up.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limit exceeded, retry in %ds", e.RetryAfter)
}

// InvocationKind classifies why a capability call failed.
type InvocationKind string

const (
	InvocationTimeout     InvocationKind = "timeout"
	InvocationUnavailable InvocationKind = "capability_unavailable"
	InvocationMalformed   InvocationKind = "malformed_response"
)

// InvocationError reports a failed capability call. The wrapped cause is for
// server-side logging only and is never surfaced to clients.
type InvocationError struct {
	Kind InvocationKind
	Err  error
}

func (e *InvocationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capability invocation failed (%s): %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("capability invocation failed (%s)", e.Kind)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}

// NewTimeout wraps cause as a timeout invocation failure.
func NewTimeout(cause error) *InvocationError {
	return &InvocationError{Kind: InvocationTimeout, Err: cause}
}

// NewUnavailable wraps cause as a capability-unavailable failure.
func NewUnavailable(cause error) *InvocationError {
	return &InvocationError{Kind: InvocationUnavailable, Err: cause}
}

// NewMalformed wraps cause as a malformed-response failure.
func NewMalformed(cause error) *InvocationError {
	return &InvocationError{Kind: InvocationMalformed, Err: cause}
}
