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

package subset

import (
	"maps"

	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/redact"
)

// An Entry is a metric tracked by a Subset: the registry identifier and
// metric handle it was observed with, plus the time-series name and tags
// derived from the identifier. Entries are immutable.
type Entry struct {
	id     metricname.Identifier
	metric interface{}
	name   string
	tags   map[string]string
	// seq orders entries by insertion within their Subset.
	seq uint64
}

var _ redact.SafeFormatter = (*Entry)(nil)

// Identifier returns the registry identifier of the metric.
func (e *Entry) Identifier() metricname.Identifier {
	return e.id
}

// Metric returns the metric handle as found in the registry.
func (e *Entry) Metric() interface{} {
	return e.metric
}

// Name returns the dotted time-series name.
func (e *Entry) Name() string {
	return e.name
}

// Tags returns a copy of the tags of the metric.
func (e *Entry) Tags() map[string]string {
	return maps.Clone(e.tags)
}

// Tag returns the value of a single tag.
func (e *Entry) Tag(key string) (string, bool) {
	v, ok := e.tags[key]
	return v, ok
}

// NumTags returns the number of tags.
func (e *Entry) NumTags() int {
	return len(e.tags)
}

// TagsString renders the tags as sorted, space-separated "k=v" pairs.
func (e *Entry) TagsString() string {
	return metricname.FormatTags(e.tags)
}

// SafeFormat implements redact.SafeFormatter.
func (e *Entry) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%s", redact.SafeString(e.name))
	if len(e.tags) > 0 {
		w.Printf(" {%s}", redact.SafeString(e.TagsString()))
	}
}

// String implements fmt.Stringer.
func (e *Entry) String() string {
	return redact.StringWithoutMarkers(e)
}
