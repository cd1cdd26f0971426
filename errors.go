package adaptive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Sentinel errors for common engine error conditions.
// These errors can be used with errors.Is() for error checking.
var (
	// ErrInvalidConfig indicates the provided configuration is invalid or
	// incomplete.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrUnknownStrategy indicates a strategy name outside the supported
	// set was configured. Strategy sets are fixed; an unknown name is a
	// programmer error, not a runtime condition.
	ErrUnknownStrategy = errors.New("unknown strategy")
)

// Error kinds categorize errors by their type.
const (
	// KindValidation represents errors related to input validation.
	KindValidation = "validation"

	// KindConfiguration represents errors related to configuration.
	KindConfiguration = "configuration"

	// KindStorage represents errors in snapshot persistence.
	KindStorage = "storage"

	// KindGeneration represents errors from the text-generation
	// collaborator.
	KindGeneration = "generation"

	// KindInternal represents internal engine errors.
	KindInternal = "internal"
)

// Error is a structured error type that wraps underlying errors with
// additional context about the operation that failed and the category of
// error.
//
// Error implements the error interface and supports error unwrapping,
// making it compatible with errors.Is() and errors.As().
//
// Example usage:
//
//	err := &Error{
//		Op:   "Engine.Save",
//		Kind: KindStorage,
//		Err:  writeErr,
//	}
type Error struct {
	// Op is the operation that failed (e.g., "Engine.New", "Engine.Save").
	Op string

	// Kind categorizes the error (e.g., KindConfiguration, KindStorage).
	Kind string

	// Err is the underlying error that caused this error.
	Err error

	// Context provides additional context about the error (optional).
	// This can include agent IDs, file paths, or other debugging
	// information.
	Context map[string]any
}

// Error implements the error interface, returning a formatted message that
// includes the operation, kind, and underlying error.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("adaptive: %s: %s", e.Op, e.Kind)
	}

	if len(e.Context) > 0 {
		return fmt.Sprintf("adaptive: %s (%s): %v [context: %+v]", e.Op, e.Kind, e.Err, e.Context)
	}

	return fmt.Sprintf("adaptive: %s (%s): %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error, allowing errors.Is() and errors.As()
// to work correctly with wrapped errors.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is implements error matching for Error, allowing comparison based on the
// underlying error or another Error's Op/Kind.
func (e *Error) Is(target error) bool {
	if target == nil {
		return false
	}

	if t, ok := target.(*Error); ok {
		if t.Kind != "" && e.Kind == t.Kind {
			if t.Op == "" || e.Op == t.Op {
				return true
			}
		}
	}

	return errors.Is(e.Err, target)
}

// WithContext returns a copy of the error with the provided context added.
func (e *Error) WithContext(ctx map[string]any) *Error {
	newErr := *e
	if newErr.Context == nil {
		newErr.Context = make(map[string]any)
	}
	for k, v := range ctx {
		newErr.Context[k] = v
	}
	return &newErr
}

// NewValidationError creates a new Error with KindValidation.
func NewValidationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindValidation,
		Err:  err,
	}
}

// NewConfigurationError creates a new Error with KindConfiguration.
func NewConfigurationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindConfiguration,
		Err:  err,
	}
}

// NewStorageError creates a new Error with KindStorage.
func NewStorageError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindStorage,
		Err:  err,
	}
}

// NewGenerationError creates a new Error with KindGeneration.
func NewGenerationError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindGeneration,
		Err:  err,
	}
}

// NewInternalError creates a new Error with KindInternal.
func NewInternalError(op string, err error) *Error {
	return &Error{
		Op:   op,
		Kind: KindInternal,
		Err:  err,
	}
}

// CloseWithLog attempts to close the provided resource and logs any error
// at warning level. This is intended for use in defer statements to ensure
// cleanup errors are not silently ignored.
//
// The name parameter should describe the resource being closed. If logger
// is nil, slog.Default() is used.
func CloseWithLog(closer io.Closer, logger *slog.Logger, name string) {
	if closer == nil {
		return
	}

	if logger == nil {
		logger = slog.Default()
	}

	if err := closer.Close(); err != nil {
		logger.Warn("failed to close resource",
			"resource", name,
			"error", err)
	}
}
