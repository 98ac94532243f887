package app

import (
	"errors"
	"fmt"
	"io"
)

// usageError is a problem with the command line itself. It exits with 2.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{err: fmt.Errorf(format, args...)}
}

// exitError ends the run with code after its message has already been
// shown to the user.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\nRun 'portproc --help' for usage.\n", uerr)
		return 2
	}
	var eerr *exitError
	if errors.As(err, &eerr) {
		return eerr.code
	}

	fmt.Fprintf(stderr, "Error: %v\n", err)
	return 1
}
