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
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStdLogger(t *testing.T) {
	defer SetOutput(nil)()
	var entries []Entry
	defer InterceptWith(func(e Entry) { entries = append(entries, e) })()

	l := NewStdLogger(WarningLog, "sarama")
	l.Printf("client/metadata fetching metadata for %s", "orders")

	require.Len(t, entries, 1)
	e := entries[0]
	require.Equal(t, WarningLog, e.Severity)
	require.True(t, strings.HasPrefix(e.File, "(gostd) sarama/log_bridge_test.go"), e.File)
	require.NotEqual(t, 1, e.Line)
	require.Equal(t, "client/metadata fetching metadata for orders", e.Message.StripMarkers())
	// Library output is not known to be safe.
	require.Equal(t, "‹×›", string(e.Message.Redact()))
}

func TestLogBridgeBadFormat(t *testing.T) {
	defer SetOutput(nil)()
	var entries []Entry
	defer InterceptWith(func(e Entry) { entries = append(entries, e) })()

	_, err := logBridge(InfoLog).Write([]byte("no colons here\n"))
	require.NoError(t, err)
	_, err = logBridge(InfoLog).Write([]byte("x.go:abc: message\n"))
	require.NoError(t, err)

	require.Len(t, entries, 2)
	require.Equal(t, "???", entries[0].File)
	require.True(t, strings.HasPrefix(entries[0].Message.StripMarkers(), "bad log format: "))
	require.True(t, strings.HasPrefix(entries[1].Message.StripMarkers(), "bad line number: "))
}
