package authorize

import (
	"errors"
	"fmt"
)

// Kind classifies why a document was not authorized.
type Kind string

const (
	// KindInvalidPolicy: the policy failed validation. Nothing was verified.
	KindInvalidPolicy Kind = "InvalidPolicy"
	// KindMalformedDocument: signatures could not be extracted.
	KindMalformedDocument Kind = "MalformedDocument"
	// KindValidation: the threshold of distinct trusted signers was not met.
	KindValidation Kind = "ValidationError"
	// KindProviderUnavailable: verification could not complete. Retryable.
	KindProviderUnavailable Kind = "ProviderUnavailable"
)

// Error is returned for every unauthorized document.
type Error struct {
	Kind        Kind
	Message     string
	Diagnostics *Diagnostics
	Cause       error
}

func (e *Error) Error() string {
	msg := string(e.Kind) + ": " + e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether the same request may succeed later.
func (e *Error) IsRetryable() bool {
	return e.Kind == KindProviderUnavailable
}

func newError(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// NewProviderUnavailable reports that verification could not complete.
func NewProviderUnavailable(cause error) *Error {
	return newError(KindProviderUnavailable, cause, "signature verification unavailable")
}

// NewVerificationFailed reports a verification error that is not transient.
func NewVerificationFailed(cause error) *Error {
	return newError(KindValidation, cause, "an error occurred during signature verification")
}

// KindOf returns the Kind of err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsDenied reports whether err is a threshold denial.
func IsDenied(err error) bool {
	return KindOf(err) == KindValidation
}

// IsRetryable reports whether err is a transient verification failure.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.IsRetryable()
}

// DiagnosticsOf returns the diagnostics carried by err, if any.
func DiagnosticsOf(err error) *Diagnostics {
	var e *Error
	if errors.As(err, &e) {
		return e.Diagnostics
	}
	return nil
}
