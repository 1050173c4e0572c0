package cmd

import (
	"errors"
	"strconv"
)

// Exit codes for rorschach CLI
const (
	// ExitSuccess indicates all tests passed
	ExitSuccess = 0

	// ExitTestFailure indicates one or more requests failed
	ExitTestFailure = 1

	// ExitParseError indicates a file parsing error
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitAborted indicates a pre-request stopped a suite
	ExitAborted = 5

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// ExitError carries the process exit code for a failed command. Silent
// errors have already been reported and are not printed again.
type ExitError struct {
	Code   int
	Err    error
	Silent bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return "exit status " + strconv.Itoa(e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitErr(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

func silentExit(code int) *ExitError {
	return &ExitError{Code: code, Silent: true}
}

// ExitCode maps a command error to the process exit code. Errors that carry
// no code come from cobra's own flag and argument checks.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exit *ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	return ExitUsageError
}
