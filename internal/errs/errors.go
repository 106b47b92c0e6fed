// Package errs implements the error taxonomy of spec.md §7: each kind
// carries structured context, a retryability bit, a severity, and a
// suggested-recovery list.
package errs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind is one of the taxonomy entries in spec.md §7.
type Kind string

const (
	PackageNotFound   Kind = "package_not_found"
	UnsupportedBackend Kind = "unsupported_backend"
	Validation        Kind = "validation"
	Configuration     Kind = "configuration"
	Permission        Kind = "permission"
	Security          Kind = "security"
	Network           Kind = "network"
	Database          Kind = "database"
	Timeout           Kind = "timeout"
	ResourceExhausted Kind = "resource_exhausted"
	InstallationFailed Kind = "installation_failed"
	RecoveryFailed    Kind = "recovery_failed"
)

// Severity orders how urgently a failure should be surfaced.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// retryable and severity are fixed per Kind, matching the table in
// spec.md §7 exactly; they are not configurable per call site.
var props = map[Kind]struct {
	retryable bool
	severity  Severity
}{
	PackageNotFound:    {false, SeverityLow},
	UnsupportedBackend: {false, SeverityLow},
	Validation:         {false, SeverityMedium},
	Configuration:      {false, SeverityMedium},
	Permission:         {false, SeverityHigh},
	Security:           {false, SeverityCritical},
	Network:            {true, SeverityMedium},
	Database:           {true, SeverityMedium},
	Timeout:            {true, SeverityLow},
	ResourceExhausted:  {true, SeverityMedium},
	InstallationFailed: {true, SeverityHigh},
	RecoveryFailed:     {false, SeverityHigh},
}

// Error is omni's structured error type. It wraps a cause with pkg/errors
// so %+v callers still get a stack trace, and attaches the taxonomy fields
// spec.md §7 requires.
type Error struct {
	Kind     Kind
	Context  map[string]string
	Recovery []string
	cause    error
}

// New builds a taxonomy error with no underlying cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, cause: errors.New(msg)}
}

// Wrap attaches kind to an existing error, preserving its cause chain.
func Wrap(kind Kind, cause error, msg string) *Error {
	return &Error{Kind: kind, cause: errors.Wrap(cause, msg)}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, cause: errors.Wrapf(cause, format, args...)}
}

func (e *Error) Error() string {
	return e.cause.Error()
}

func (e *Error) Unwrap() error { return e.cause }

// Retryable reports whether this kind of failure may be retried, per the
// fixed table in spec.md §7.
func (e *Error) Retryable() bool { return props[e.Kind].retryable }

// SeverityOf reports this error's severity, per the fixed table in
// spec.md §7.
func (e *Error) SeverityOf() Severity { return props[e.Kind].severity }

// WithContext attaches a key/value of structured context and returns e for
// chaining.
func (e *Error) WithContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// WithRecovery attaches suggested-recovery strings and returns e for
// chaining.
func (e *Error) WithRecovery(suggestions ...string) *Error {
	e.Recovery = append(e.Recovery, suggestions...)
	return e
}

// As reports whether err (or something in its chain) is an *Error of the
// given kind, mirroring the standard errors.As pattern.
func As(err error, kind Kind) (*Error, bool) {
	var e *Error
	if !errors.As(err, &e) {
		return nil, false
	}
	return e, e.Kind == kind
}

// Retryable reports whether err is a taxonomy error marked retryable.
// Non-taxonomy errors are treated as non-retryable.
func Retryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}

// Summary renders a user-facing failure: the error, its recovery
// suggestions, and (if present) the owning transaction id, per spec.md §7
// "User-visible failure prints the error, the recovery suggestions, and
// the transaction id if any."
func Summary(err error, transactionID string) string {
	var e *Error
	msg := err.Error()
	if errors.As(err, &e) && len(e.Recovery) > 0 {
		msg = fmt.Sprintf("%s\nsuggested recovery:", msg)
		for _, r := range e.Recovery {
			msg += fmt.Sprintf("\n  - %s", r)
		}
	}
	if transactionID != "" {
		msg += fmt.Sprintf("\ntransaction: %s", transactionID)
	}
	return msg
}
