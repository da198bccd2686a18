// Package errext attaches remediation hints, process exit codes, and
// abort reasons to bundler errors without losing the wrapped error chain.
package errext

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/netanelgilad/funee/internal/errext/exitcodes"
)

// AbortReason classifies why the bundle run was aborted, mirroring the
// handful of distinct abort paths a funee run can take.
type AbortReason uint8

const (
	AbortReasonInternal AbortReason = iota
	AbortReasonBundlerError
	AbortReasonRuntimeError
	AbortReasonTimeout
)

// HasHint is implemented by errors carrying an operator-facing remediation
// message (e.g. "check the referrer chain", "increase
// FUNEE_MACRO_TIMEOUT_SECONDS").
type HasHint interface {
	error
	Hint() string
}

// HasExitCode is implemented by errors that should set the process exit
// status when they reach the top of the CLI.
type HasExitCode interface {
	error
	ExitCode() exitcodes.ExitCode
}

// HasAbortReason is implemented by errors that know why the run stopped.
type HasAbortReason interface {
	error
	AbortReason() AbortReason
}

// HasStackTrace is implemented by errors carrying engine-side (goja) stack
// traces, e.g. from a macro body throwing.
type HasStackTrace interface {
	error
	StackTrace() string
}

type hintedError struct {
	error
	hint string
}

func (e hintedError) Hint() string { return e.hint }
func (e hintedError) Unwrap() error { return e.error }

// WithHint wraps err with a remediation hint. If err already carries a
// hint, the new hint is prefixed and the old one kept in parentheses,
// matching the teacher's accumulation behavior so repeated wrapping reads
// as "best hint (better hint (original hint))".
func WithHint(err error, hint string) error {
	if err == nil {
		return nil
	}
	var existing HasHint
	if errors.As(err, &existing) {
		hint = fmt.Sprintf("%s (%s)", hint, existing.Hint())
	}
	return hintedError{error: err, hint: hint}
}

type exitCodeError struct {
	error
	code exitcodes.ExitCode
}

func (e exitCodeError) ExitCode() exitcodes.ExitCode { return e.code }
func (e exitCodeError) Unwrap() error                { return e.error }

// WithExitCodeIfNone wraps err with code, unless err already carries an
// exit code, in which case the existing one wins.
func WithExitCodeIfNone(err error, code exitcodes.ExitCode) error {
	if err == nil {
		return nil
	}
	var existing HasExitCode
	if errors.As(err, &existing) {
		return err
	}
	return exitCodeError{error: err, code: code}
}

// ExitCodeOf returns the exit code attached to err, or exitcodes.GenericError
// if none is attached.
func ExitCodeOf(err error) exitcodes.ExitCode {
	if err == nil {
		return 0
	}
	var withCode HasExitCode
	if errors.As(err, &withCode) {
		return withCode.ExitCode()
	}
	return exitcodes.GenericError
}

// Format renders err the way the CLI's top-level error handler does: the
// engine stack trace if present, else err.Error(), plus a field map of any
// hint attached. Returns ("", nil) for a nil error.
func Format(err error) (string, map[string]interface{}) {
	if err == nil {
		return "", nil
	}

	text := err.Error()
	var withTrace HasStackTrace
	if errors.As(err, &withTrace) {
		if trace := withTrace.StackTrace(); trace != "" {
			text = trace
		}
	}

	fields := map[string]interface{}{}
	var withHint HasHint
	if errors.As(err, &withHint) {
		fields["hint"] = withHint.Hint()
	}

	return text, fields
}

// Fprint logs err to logger at error level, in the same shape as the
// teacher's errext.Fprint.
func Fprint(logger logrus.FieldLogger, err error) {
	if err == nil {
		return
	}
	text, fields := Format(err)
	logger.WithFields(logrus.Fields(fields)).Error(text)
}
