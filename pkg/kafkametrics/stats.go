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

package kafkametrics

import (
	"github.com/cockroachdb/redact"
	metrics "github.com/rcrowley/go-metrics"
)

// watcherMetrics counts what a Watcher did with the events it saw. The
// counters are not registered anywhere: registered in the watched registry
// they would be picked up by the Watcher itself.
type watcherMetrics struct {
	added        metrics.Counter
	removed      metrics.Counter
	filtered     metrics.Counter
	duplicates   metrics.Counter
	unrecognized metrics.Counter
	malformed    metrics.Counter
}

func makeWatcherMetrics() watcherMetrics {
	return watcherMetrics{
		added:        metrics.NewCounter(),
		removed:      metrics.NewCounter(),
		filtered:     metrics.NewCounter(),
		duplicates:   metrics.NewCounter(),
		unrecognized: metrics.NewCounter(),
		malformed:    metrics.NewCounter(),
	}
}

// Stats is a point-in-time copy of a Watcher's counters.
type Stats struct {
	// Added and Removed count the entries handed to subscribers.
	Added, Removed int64
	// Filtered counts additions rejected by the filter.
	Filtered int64
	// Duplicates counts additions of metrics already tracked.
	Duplicates int64
	// Unrecognized counts metrics the extractor declined or failed on.
	Unrecognized int64
	// Malformed counts metrics whose scope could not be parsed.
	Malformed int64
}

// Stats returns the Watcher's counters.
func (w *Watcher) Stats() Stats {
	return Stats{
		Added:        w.metrics.added.Count(),
		Removed:      w.metrics.removed.Count(),
		Filtered:     w.metrics.filtered.Count(),
		Duplicates:   w.metrics.duplicates.Count(),
		Unrecognized: w.metrics.unrecognized.Count(),
		Malformed:    w.metrics.malformed.Count(),
	}
}

// SafeFormat implements redact.SafeFormatter.
func (s Stats) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("added=%d removed=%d filtered=%d duplicates=%d unrecognized=%d malformed=%d",
		s.Added, s.Removed, s.Filtered, s.Duplicates, s.Unrecognized, s.Malformed)
}

func (s Stats) String() string {
	return redact.StringWithoutMarkers(s)
}
