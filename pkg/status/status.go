package status

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Error is an error carrying a status code.
// Two Errors match under errors.Is when their codes are equal, so wrapped
// errors still compare against the package sentinels.
type Error struct {
	// Code classifies the failure.
	Code Code

	// Detail optionally narrows down the failure (e.g. the offending key).
	Detail string
}

// Error returns the code name, with detail when present.
func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Code.String()
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

// Is reports code equality, ignoring detail.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// New returns an Error for the given code.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Newf returns an Error for the given code with formatted detail.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Detail: fmt.Sprintf(format, args...)}
}

// Sentinel errors, one per code. Compare with errors.Is.
var (
	ErrUnknown                  = New(CodeUnknown)
	ErrNotConnected             = New(CodeNotConnected)
	ErrRuntimeVersionTooOld     = New(CodeRuntimeVersionTooOld)
	ErrNotRegistered            = New(CodeNotRegistered)
	ErrInvalidArgument          = New(CodeInvalidArgument)
	ErrMissingArgument          = New(CodeMissingArgument)
	ErrNoOutputsRequested       = New(CodeNoOutputsRequested)
	ErrOverlappingOutputs       = New(CodeOverlappingOutputs)
	ErrTimeout                  = New(CodeTimeout)
	ErrNoUpdate                 = New(CodeNoUpdate)
	ErrUncalibrated             = New(CodeUncalibrated)
	ErrUnreliable               = New(CodeUnreliable)
	ErrLowAccuracy              = New(CodeLowAccuracy)
	ErrUnreadable               = New(CodeUnreadable)
	ErrAlreadyRegistered        = New(CodeAlreadyRegistered)
	ErrOtherRendererPrioritized = New(CodeOtherRendererPrioritized)
	ErrFeatureAccessDenied      = New(CodeFeatureAccessDenied)
	ErrProfileDoesntExist       = New(CodeProfileDoesntExist)
	ErrProfileNotAvailable      = New(CodeProfileNotAvailable)
	ErrProfileInvalidName       = New(CodeProfileInvalidName)
	ErrConfigDoesntExist        = New(CodeConfigDoesntExist)
	ErrConfigTypeMismatch       = New(CodeConfigTypeMismatch)
	ErrSystemPathNotFound       = New(CodeSystemPathNotFound)
	ErrSystemAccessDenied       = New(CodeSystemAccessDenied)
	ErrSystemUnknown            = New(CodeSystemUnknown)
)

// CodeOf extracts the status code from an error.
// A nil error is CodeNone; an error that is not a status Error is CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return CodeNone
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}

// IsReliable reports whether the operation succeeded with full-quality data.
func IsReliable(err error) bool {
	return err == nil
}

// IsValid reports whether the returned data is usable: the operation
// succeeded, possibly with reduced accuracy.
func IsValid(err error) bool {
	if err == nil {
		return true
	}
	return CodeOf(err) == CodeLowAccuracy
}

// IsAcceptable reports whether the call itself succeeded, even if the data
// quality is degraded or unreliable. Callers that only need liveness rather
// than precision branch on this.
func IsAcceptable(err error) bool {
	if err == nil {
		return true
	}
	switch CodeOf(err) {
	case CodeLowAccuracy, CodeUnreliable:
		return true
	default:
		return false
	}
}

// Retryable reports whether the caller may retry the same call and expect a
// different outcome: polling conditions and timeouts. A caller must not
// retry on CodeNotRegistered; that is a programming error, not a transient.
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeNoUpdate, CodeTimeout:
		return true
	default:
		return false
	}
}

// FromSystemError maps a filesystem error onto the system error category,
// keeping path and permission failures distinguishable from logical errors.
func FromSystemError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, fs.ErrNotExist):
		return Newf(CodeSystemPathNotFound, "%v", err)
	case errors.Is(err, fs.ErrPermission), errors.Is(err, os.ErrPermission):
		return Newf(CodeSystemAccessDenied, "%v", err)
	default:
		return Newf(CodeSystemUnknown, "%v", err)
	}
}
