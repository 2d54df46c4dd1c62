// Package dberr defines the typed error conditions dbcore surfaces to
// callers, grounded on the teacher's entity-level errors.go: a sentinel
// per failure code, wrapped with context via fmt.Errorf("%w", ...) so
// callers can errors.Is/errors.As against the sentinel while still
// getting a descriptive message.
package dberr

import (
	"errors"
	"fmt"
)

// Sentinels for the failure codes enumerated in spec.md §6. Callers
// should errors.Is against these, not compare strings.
var (
	// ErrConnectionFailed wraps a setup-time failure to establish a
	// connection (dial, auth, TLS). Context construction aborts and any
	// partially-opened resources are released.
	ErrConnectionFailed = errors.New("dbcore: connection failed")

	// ErrReadOnlyContext is returned when a write operation is attempted
	// against a context or channel opened in ReadOnly mode.
	ErrReadOnlyContext = errors.New("dbcore: context is read-only")

	// ErrAlreadyCompleted is returned by a second commit/rollback attempt
	// on a transaction that has already reached a terminal state.
	ErrAlreadyCompleted = errors.New("dbcore: transaction already completed")

	// ErrParameterNotFound is returned when a named parameter referenced
	// by set_parameter_value or a reader column lookup does not exist in
	// the container.
	ErrParameterNotFound = errors.New("dbcore: parameter not found")

	// ErrTooManyParameters is returned when a container would exceed the
	// dialect's max_parameter_limit; detected before a connection opens.
	ErrTooManyParameters = errors.New("dbcore: too many parameters")

	// ErrPoolAcquireTimeout is returned when a Read or Write channel
	// semaphore is not acquired within PoolAcquireTimeout.
	ErrPoolAcquireTimeout = errors.New("dbcore: pool acquire timed out")

	// ErrUnexpectedNull is returned when a reader plan materializes a NULL
	// into a non-nullable target type.
	ErrUnexpectedNull = errors.New("dbcore: unexpected null value")

	// ErrUnsupportedTypeBinding is returned when no coercion or binding
	// rule exists for a value's logical type on the active dialect.
	ErrUnsupportedTypeBinding = errors.New("dbcore: unsupported type binding")

	// ErrSavepointNotSupported is returned when a nested transaction is
	// requested on a dialect or isolation profile that has no savepoint
	// equivalent (also used for the isolation-profile-unsupported case
	// described in spec.md §8 scenario 6).
	ErrSavepointNotSupported = errors.New("dbcore: savepoint not supported")

	// ErrNestedTransactionRejected is returned when BeginTransaction is
	// called on a context that already has an active transaction and the
	// dialect/mode combination does not support true nesting.
	ErrNestedTransactionRejected = errors.New("dbcore: nested transaction rejected")
)

// Wrap annotates sentinel with additional context while keeping it
// discoverable via errors.Is.
func Wrap(sentinel error, format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), sentinel)
}

// Code identifies which of the above sentinels, if any, err (or a wrapped
// ancestor of err) matches. It returns "" if none match, letting callers
// build a façade-level error-code mapping without repeating errors.Is
// calls at every boundary.
func Code(err error) string {
	for _, c := range []struct {
		sentinel error
		name     string
	}{
		{ErrConnectionFailed, "ConnectionFailed"},
		{ErrReadOnlyContext, "ReadOnlyContext"},
		{ErrAlreadyCompleted, "AlreadyCompleted"},
		{ErrParameterNotFound, "ParameterNotFound"},
		{ErrTooManyParameters, "TooManyParameters"},
		{ErrPoolAcquireTimeout, "PoolAcquireTimeout"},
		{ErrUnexpectedNull, "UnexpectedNull"},
		{ErrUnsupportedTypeBinding, "UnsupportedTypeBinding"},
		{ErrSavepointNotSupported, "SavepointNotSupported"},
		{ErrNestedTransactionRejected, "NestedTransactionRejected"},
	} {
		if errors.Is(err, c.sentinel) {
			return c.name
		}
	}
	return ""
}
