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

package log

import (
	"bytes"
	stdLog "log"
	"strconv"
	"strings"

	"github.com/cockroachdb/redact"
)

// NewStdLogger creates a *stdLog.Logger that forwards messages to this
// package's output with the specified severity. It is meant for libraries
// that log through the standard library, such as sarama.
//
// The prefix should name the library for which this logger is used. The
// prefix will be concatenated directly with the name of the file that
// triggered the logging.
func NewStdLogger(severity Severity, prefix string) *stdLog.Logger {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return stdLog.New(logBridge(severity), prefix, stdLog.Lshortfile)
}

// logBridge provides the Write method that connects a standard logger to
// the logs provided by this package.
type logBridge Severity

// Write parses the standard logging line and passes its components to the
// logger for Severity(lb). Messages are treated as unsafe for redaction.
func (lb logBridge) Write(b []byte) (n int, err error) {
	e := Entry{
		Severity: Severity(lb),
		Time:     timeNow(),
		File:     "???",
		Line:     1,
	}
	// Split "d.go:23: message" into "d.go", "23", and "message".
	if parts := bytes.SplitN(b, []byte{':'}, 3); len(parts) != 3 || len(parts[0]) < 1 || len(parts[2]) < 1 {
		e.Message = redact.Sprintf("bad log format: %s", string(b))
	} else {
		// The "(gostd)" prefix marks lines that do not point into this
		// module's source.
		e.File = "(gostd) " + string(parts[0])
		lineno, err := strconv.Atoi(string(parts[1]))
		if err != nil {
			e.Message = redact.Sprintf("bad line number: %s", string(b))
		} else {
			e.Line = lineno
			payload := bytes.TrimSuffix(bytes.TrimPrefix(parts[2], []byte{' '}), []byte{'\n'})
			e.Message = redact.Sprintf("%s", string(payload))
		}
	}
	logging.outputLogEntry(e)
	return len(b), nil
}
