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

// Package log implements leveled, context-aware logging in the style used
// throughout CockroachDB.
//
// Every logging call takes a context.Context. Tags attached to the context
// with github.com/cockroachdb/logtags are rendered in front of the message,
// which makes it easy to tell which component emitted a line:
//
//	ctx = logtags.AddTag(ctx, "watcher", "kafka")
//	log.Infof(ctx, "tracking %d metrics", n)
//	// I261018 15:04:05.000000 watcher.go:88  [watcher=kafka] tracking 12 metrics
//
// Messages are assembled with github.com/cockroachdb/redact. Arguments that
// do not implement redact.SafeFormatter (or are not wrapped with
// redact.Safe) are considered sensitive and are enclosed in redaction markers
// when redactable output is enabled with SetRedactable. By default the
// markers are stripped.
//
// Verbose events (VEventf) are only emitted when the configured verbosity is
// at least the level of the event.
package log

import (
	"context"
	"sync/atomic"
)

// Severity identifies the sort of log: info, warning etc.
type Severity int32

// These constants identify the log levels in order of increasing Severity.
const (
	InfoLog Severity = iota
	WarningLog
	ErrorLog
	NumSeverity
)

const severityChar = "IWE"

var severityName = []string{
	InfoLog:    "INFO",
	WarningLog: "WARNING",
	ErrorLog:   "ERROR",
}

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s < 0 || s >= NumSeverity {
		return "UNKNOWN"
	}
	return severityName[s]
}

// Level is the verbosity level of a VEventf call.
type Level int32

var verbosity int32

// SetVerbosity sets the global verbosity level and returns the previous one.
func SetVerbosity(l Level) Level {
	return Level(atomic.SwapInt32(&verbosity, int32(l)))
}

// V returns true if the logging verbosity is set to the specified level or
// higher.
func V(level Level) bool {
	return int32(level) <= atomic.LoadInt32(&verbosity)
}

// Infof logs to the INFO log.
// It extracts log tags from the context and logs them along with the given
// message. Arguments are handled in the manner of fmt.Printf.
func Infof(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, InfoLog, format, args)
}

// InfofDepth logs to the INFO log, offsetting the caller's stack frame by
// 'depth'.
func InfofDepth(ctx context.Context, depth int, format string, args ...interface{}) {
	logDepth(ctx, depth+1, InfoLog, format, args)
}

// Warningf logs to the WARNING and INFO logs.
func Warningf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, WarningLog, format, args)
}

// Errorf logs to the ERROR, WARNING, and INFO logs.
func Errorf(ctx context.Context, format string, args ...interface{}) {
	logDepth(ctx, 1, ErrorLog, format, args)
}

// VEventf logs to the INFO log if the verbosity is at least the given level.
func VEventf(ctx context.Context, level Level, format string, args ...interface{}) {
	if V(level) {
		logDepth(ctx, 1, InfoLog, format, args)
	}
}

func logDepth(ctx context.Context, depth int, sev Severity, format string, args []interface{}) {
	if ctx == nil {
		panic("nil context")
	}
	logging.outputLogEntry(makeEntry(ctx, sev, depth+1, format, args))
}
