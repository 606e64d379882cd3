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

package metricname

import (
	"fmt"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
	"github.com/stretchr/testify/require"
)

func scanIdentifier(t *testing.T, d *datadriven.TestData) Identifier {
	var id Identifier
	for _, f := range []struct {
		key  string
		dest *string
	}{
		{"group", &id.Group},
		{"type", &id.Type},
		{"name", &id.Name},
		{"scope", &id.Scope},
	} {
		if d.HasArg(f.key) {
			d.ScanArgs(t, f.key, f.dest)
		}
	}
	return id
}

// TestDataDriven exercises name and tag derivation as well as the MBean
// codec. Commands:
//
//	derive [group=<g>] [type=<t>] [name=<n>] [scope=<s>]
//	mbean [group=<g>] [type=<t>] [name=<n>] [scope=<s>]
//	parse-mbean
//	<mbean name>
func TestDataDriven(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "derive":
				id := scanIdentifier(t, d)
				tags, err := DeriveTags(id)
				if err != nil {
					return fmt.Sprintf("name: %q\nerror: %v\nmalformed: %t\n",
						DeriveName(id), err, errors.Is(err, ErrMalformedScope))
				}
				formatted := FormatTags(tags)
				if formatted == "" {
					formatted = "<none>"
				}
				return fmt.Sprintf("name: %q\ntags: %s\n", DeriveName(id), formatted)

			case "mbean":
				id := scanIdentifier(t, d)
				s := id.MBeanName()
				parsed, err := ParseMBeanName(s)
				require.NoError(t, err)
				require.Equal(t, id, parsed)
				return s + "\n"

			case "parse-mbean":
				id, err := ParseMBeanName(strings.TrimSpace(d.Input))
				if err != nil {
					return fmt.Sprintf("error: %v\n", err)
				}
				return fmt.Sprintf("group=%q type=%q name=%q scope=%q\n", id.Group, id.Type, id.Name, id.Scope)

			default:
				return fmt.Sprintf("unknown command: %s\n", d.Cmd)
			}
		})
	})
}

func TestParseTagsPairCount(t *testing.T) {
	for _, tc := range []struct {
		scope string
		exp   map[string]string
	}{
		{"", map[string]string{}},
		{"topic.orders.broker.1", map[string]string{"topic": "orders", "broker": "1"}},
		{"clientId.c1.topic.t1.partition.0", map[string]string{"clientId": "c1", "topic": "t1", "partition": "0"}},
		{"topic.a.topic.b", map[string]string{"topic": "b"}},
	} {
		t.Run(tc.scope, func(t *testing.T) {
			tags, err := ParseTags(tc.scope)
			require.NoError(t, err)
			require.Equal(t, tc.exp, tags)
		})
	}
}

func TestParseTagsMalformed(t *testing.T) {
	for _, scope := range []string{"topic", "topic.orders.broker", "a..b", ".a.b"} {
		t.Run(scope, func(t *testing.T) {
			tags, err := ParseTags(scope)
			require.Nil(t, tags)
			require.True(t, errors.Is(err, ErrMalformedScope), "%v", err)
		})
	}
}

func TestDeriveNameIsDeterministic(t *testing.T) {
	id := Identifier{Group: "kafka", Name: "MessagesIn", Scope: "topic.orders"}
	require.Equal(t, "kafka.MessagesIn", DeriveName(id))
	require.Equal(t, DeriveName(id), DeriveName(id))
	require.Equal(t, "", DeriveName(Identifier{Scope: "topic.orders"}))
}

func TestTagsFromPairs(t *testing.T) {
	require.Equal(t, map[string]string{"broker": "1", "topic": "orders"},
		TagsFromPairs("broker", "1", "topic", "orders"))
	require.Equal(t, map[string]string{}, TagsFromPairs())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.HasAssertionFailure(err))
	}()
	TagsFromPairs("broker", "1", "topic")
	t.Fatal("expected panic")
}

func TestFormatTags(t *testing.T) {
	require.Equal(t, "", FormatTags(nil))
	require.Equal(t, "a=1 b=2 c=3", FormatTags(map[string]string{"c": "3", "a": "1", "b": "2"}))
}

func TestIdentifierRedaction(t *testing.T) {
	id := Identifier{Group: "kafka.server", Type: "BrokerTopicMetrics", Name: "BytesInPerSec", Scope: "topic.orders"}
	const exp = "kafka.server:type=BrokerTopicMetrics,scope=topic.orders,name=BytesInPerSec"
	require.Equal(t, exp, id.String())
	// Identifiers are safe and survive redaction, plain strings do not.
	require.Equal(t, redact.RedactableString(exp), redact.Sprint(id).Redact())
	require.Equal(t, redact.RedactableString("‹×›"), redact.Sprint(exp).Redact())
}
