package cmd

import (
	"errors"

	"github.com/fulmenhq/mappack/pkg/diag"
	"github.com/fulmenhq/mappack/pkg/exitcode"
	"github.com/fulmenhq/mappack/pkg/tools"
)

// codedError carries the process exit code chosen by a command.
type codedError struct {
	code int
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// exitCodeFor maps an error returned by a command to a process exit code.
func exitCodeFor(err error) int {
	var ce *codedError
	switch {
	case err == nil:
		return exitcode.Success
	case errors.As(err, &ce):
		return ce.code
	case errors.Is(err, diag.ErrMissingInput):
		return exitcode.MissingInput
	case errors.Is(err, tools.ErrToolNotFound):
		return exitcode.ToolNotFound
	}
	return exitcode.GeneralError
}
