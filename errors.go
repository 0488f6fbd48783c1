package ssl

import "errors"

// Classification errors for configuration and startup failures. Setters and
// Start wrap these with detail; check with errors.Is().
var (
	// ErrInvalidArgument reports a setter value that failed validation. The
	// builder records the first occurrence and Build returns it.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrPreconditionFailed reports a Start that cannot proceed because a
	// required collaborator is missing or lacks a needed capability.
	ErrPreconditionFailed = errors.New("precondition failed")
)
