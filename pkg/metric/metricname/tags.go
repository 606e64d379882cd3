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
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedScope is returned (possibly wrapped) when a scope cannot be
// split into key/value pairs.
var ErrMalformedScope = errors.New("invalid format")

const sep = "."

// DeriveName joins the non-empty group, type and name of id with '.'. An
// identifier without any of them yields the empty string.
func DeriveName(id Identifier) string {
	var b strings.Builder
	for _, c := range [...]string{id.Group, id.Type, id.Name} {
		if c == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(c)
	}
	return b.String()
}

// ParseTags parses a scope of the form "k1.v1.k2.v2" into a tag map. Later
// occurrences of a key overwrite earlier ones. An empty scope yields an
// empty map. A scope with an odd number of tokens returns an error matching
// ErrMalformedScope.
//
// Trailing empty tokens are discarded before pairing, so "topic.orders." is
// the same as "topic.orders". Empty tokens elsewhere are kept.
func ParseTags(scope string) (map[string]string, error) {
	if scope == "" {
		return map[string]string{}, nil
	}
	tokens := strings.Split(scope, sep)
	for len(tokens) > 0 && tokens[len(tokens)-1] == "" {
		tokens = tokens[:len(tokens)-1]
	}
	if len(tokens)%2 != 0 {
		return nil, errors.Wrapf(ErrMalformedScope,
			"scope %q has an odd number of tokens (%d)", scope, len(tokens))
	}
	return pairs(tokens), nil
}

// DeriveTags returns the tags encoded in the scope of id.
func DeriveTags(id Identifier) (map[string]string, error) {
	return ParseTags(id.Scope)
}

// TagsFromPairs converts alternating keys and values into a tag map. It is
// meant for tags spelled out in code; an odd number of arguments is a
// programming error and panics.
func TagsFromPairs(keyValue ...string) map[string]string {
	if len(keyValue)%2 != 0 {
		panic(errors.AssertionFailedf(
			"tags must be specified in key/value pairs, got %d strings", len(keyValue)))
	}
	return pairs(keyValue)
}

func pairs(keyValue []string) map[string]string {
	m := make(map[string]string, len(keyValue)/2)
	for i := 0; i < len(keyValue); i += 2 {
		m[keyValue[i]] = keyValue[i+1]
	}
	return m
}

// FormatTags renders tags as space-separated "k=v" pairs sorted by key, the
// tag syntax of OpenTSDB's put command.
func FormatTags(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	return b.String()
}
