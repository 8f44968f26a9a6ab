package main

import (
	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

type cliError struct {
	code int
	err  error
}

func (e *cliError) Error() string {
	return e.err.Error()
}

func (e *cliError) Unwrap() error {
	return e.err
}

const (
	exitOK         = 0
	exitValidation = 2
	exitUsage      = 3
	exitDB         = 4
	exitDBWrite    = 5
)

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &cliError{code: code, err: err}
}

// importExitCode maps a failed reload onto the exit code contract.
func importExitCode(err error) int {
	var fatal *domain.FatalImportError
	if !gerrors.As(err, &fatal) {
		return exitDB
	}
	switch fatal.Kind {
	case domain.KindStructural, domain.KindEmptyResult:
		return exitValidation
	case domain.KindConstraint:
		return exitDBWrite
	default:
		return exitDB
	}
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ce *cliError
	if gerrors.As(err, &ce) {
		return ce.code
	}
	return 1
}
