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

package exit

import "fmt"

// Code represents an exit code.
type Code struct {
	code int
}

// Int returns the numeric value of the code.
func (c Code) Int() int { return c.code }

// String implements fmt.Stringer.
func (c Code) String() string { return fmt.Sprintf("exit code %d", c.code) }

// Success (0) represents a normal process termination.
func Success() Code { return Code{0} }

// UnspecifiedError (1) indicates the process has terminated with an
// error condition. The specific cause of the error can be found in
// the logging output.
func UnspecifiedError() Code { return Code{1} }

// Interrupted (3) indicates the process was interrupted with
// Ctrl+C / SIGINT.
func Interrupted() Code { return Code{3} }

// CommandLineFlagError (4) indicates there was an error in the
// command-line parameters or the configuration file.
func CommandLineFlagError() Code { return Code{4} }

// Command-specific exit codes are allocated down from 125.

// 'watch' exit codes.

// KafkaUnavailable indicates that the 'watch' command could not connect
// to any of the configured brokers.
func KafkaUnavailable() Code { return Code{125} }
