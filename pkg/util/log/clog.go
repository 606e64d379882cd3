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
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	"github.com/cockroachdb/logtags"
	"github.com/cockroachdb/redact"
)

// Entry is a single log entry, as handed to interceptors.
type Entry struct {
	Severity Severity
	Time     time.Time
	File     string
	Line     int
	// Tags is the rendered form of the context tags, without brackets.
	Tags    string
	Message redact.RedactableString
}

// Format renders the entry as a single log line, terminated by a newline.
// If redactable is false, redaction markers are removed from the message.
func (e Entry) Format(redactable bool) string {
	var buf strings.Builder
	buf.WriteByte(severityChar[e.Severity])
	buf.WriteString(e.Time.UTC().Format("060102 15:04:05.000000"))
	fmt.Fprintf(&buf, " %s:%d  ", e.File, e.Line)
	if e.Tags != "" {
		buf.WriteByte('[')
		buf.WriteString(e.Tags)
		buf.WriteString("] ")
	}
	if redactable {
		buf.WriteString(string(e.Message))
	} else {
		buf.WriteString(e.Message.StripMarkers())
	}
	buf.WriteByte('\n')
	return buf.String()
}

// makeEntry creates an Entry for the caller 'depth' frames up the stack.
func makeEntry(
	ctx context.Context, sev Severity, depth int, format string, args []interface{},
) Entry {
	e := Entry{
		Severity: sev,
		Time:     timeNow(),
		File:     "???",
		Line:     1,
		Tags:     formatTags(ctx),
	}
	if _, file, line, ok := runtime.Caller(depth + 1); ok {
		e.File = filepath.Base(file)
		e.Line = line
	}
	if len(format) == 0 {
		e.Message = redact.Sprint(args...)
	} else {
		e.Message = redact.Sprintf(format, args...)
	}
	return e
}

// formatTags renders the logtags attached to ctx as "k1=v1,k2".
func formatTags(ctx context.Context) string {
	tags := logtags.FromContext(ctx)
	if tags == nil {
		return ""
	}
	var buf strings.Builder
	for i, t := range tags.Get() {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(t.Key())
		if t.Value() != nil {
			buf.WriteByte('=')
			buf.WriteString(t.ValueStr())
		}
	}
	return buf.String()
}

// timeNow is overridden in tests.
var timeNow = time.Now

// loggingT collects all the global state of the logging setup.
type loggingT struct {
	mu struct {
		syncutil.Mutex
		out          io.Writer
		redactable   bool
		interceptors []interceptor
	}
}

type interceptor struct {
	id int
	fn func(Entry)
}

var logging = func() *loggingT {
	l := &loggingT{}
	l.mu.out = os.Stderr
	return l
}()

var interceptorID int

func (l *loggingT) outputLogEntry(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ic := range l.mu.interceptors {
		ic.fn(e)
	}
	if l.mu.out != nil {
		_, _ = io.WriteString(l.mu.out, e.Format(l.mu.redactable))
	}
}

// SetOutput redirects the log output to w and returns a function that
// restores the previous destination. A nil writer discards output (entries
// are still delivered to interceptors).
func SetOutput(w io.Writer) (restore func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	prev := logging.mu.out
	logging.mu.out = w
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		logging.mu.out = prev
	}
}

// SetRedactable configures whether redaction markers are preserved in the
// log output.
func SetRedactable(redactable bool) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	logging.mu.redactable = redactable
}

// InterceptWith diverts a copy of every log entry to fn until the returned
// function is called. fn is invoked with the logging lock held and must not
// log itself.
func InterceptWith(fn func(Entry)) (cleanup func()) {
	logging.mu.Lock()
	defer logging.mu.Unlock()
	interceptorID++
	id := interceptorID
	logging.mu.interceptors = append(logging.mu.interceptors, interceptor{id: id, fn: fn})
	return func() {
		logging.mu.Lock()
		defer logging.mu.Unlock()
		ics := logging.mu.interceptors[:0:0]
		for _, ic := range logging.mu.interceptors {
			if ic.id != id {
				ics = append(ics, ic)
			}
		}
		logging.mu.interceptors = ics
	}
}
