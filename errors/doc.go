// Package errors provides standardized error handling for cachekit.
//
// # Error Classification
//
// Errors are classified into three classes that determine how callers
// should react:
//
//   - Transient: temporary conditions that may succeed on retry
//   - Invalid: bad input or configuration; retrying will not help
//   - Fatal: unrecoverable conditions; the component should stop
//
// Classification travels with the error via ClassifiedError and is
// queried with IsTransient, IsInvalid, and IsFatal. Classify returns
// the class directly when branching on all three.
//
// # Wrapping
//
// The Wrap helpers produce errors in a uniform format:
//
//	"component.method: action failed: <cause>"
//
// Use the classified variants to attach a class while wrapping:
//
//	if err := config.Validate(); err != nil {
//		return errors.WrapInvalid(err, "cache", "New", "config validation")
//	}
//
// # Sentinel Errors
//
// The package exposes sentinel variables (ErrInvalidConfig,
// ErrKeyNotFound, ErrKeyExists, ...) for use with errors.Is. A cache
// miss is NOT an error anywhere in cachekit; lookup operations return
// a (value, ok) pair and ErrKeyNotFound is reserved for operations
// where absence genuinely violates the caller's request.
package errors
