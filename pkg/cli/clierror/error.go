// Copyright 2026 The Cockroach Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// Package clierror attaches exit codes to the errors of CLI commands.
package clierror

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/cli/exit"
)

// Error wraps an error with the exit code the process should terminate
// with.
type Error struct {
	exitCode exit.Code
	cause    error
}

// NewError wraps err with exitCode. A nil err yields nil.
func NewError(err error, exitCode exit.Code) error {
	if err == nil {
		return nil
	}
	return &Error{exitCode: exitCode, cause: err}
}

// GetExitCode returns the exit code of the outermost *Error in the chain
// of err, UnspecifiedError if there is none, and Success for a nil err.
func GetExitCode(err error) exit.Code {
	if err == nil {
		return exit.Success()
	}
	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr.exitCode
	}
	return exit.UnspecifiedError()
}

// Error implements the error interface.
func (e *Error) Error() string { return e.cause.Error() }

// Cause implements causer.
func (e *Error) Cause() error { return e.cause }

// Unwrap implements the Go 1.13 wrapper interface.
func (e *Error) Unwrap() error { return e.cause }

// Format implements fmt.Formatter.
func (e *Error) Format(s fmt.State, verb rune) { errors.FormatError(e, s, verb) }

// FormatError implements errors.Formatter.
func (e *Error) FormatError(p errors.Printer) error {
	if p.Detail() {
		p.Printf("error with %s", e.exitCode)
	}
	return e.cause
}
