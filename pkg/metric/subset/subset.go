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

// Package subset tracks the metrics of a registry that belong to one
// subsystem.
//
// A Subset is a set of Entry values keyed by registry identifier. Adding an
// identifier that is already tracked is a no-op, which lets callers feed it
// the same registry notification twice (for instance once from a listener
// and once from an initial scan of the registry) without creating
// duplicates. Entries are kept in insertion order.
package subset

import (
	"maps"

	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	"github.com/google/btree"
)

// btreeDegree is the branching factor of the insertion-order index.
const btreeDegree = 16

// Less implements btree.Item, ordering entries by insertion.
func (e *Entry) Less(than btree.Item) bool {
	return e.seq < than.(*Entry).seq
}

// Subset is a thread-safe collection of Entry values. The zero value is not
// usable; use New.
type Subset struct {
	mu struct {
		syncutil.Mutex
		byID map[metricname.Identifier]*Entry
		// ordered indexes the entries of byID by insertion sequence.
		ordered *btree.BTree
		nextSeq uint64
	}
}

// New returns an empty Subset.
func New() *Subset {
	s := &Subset{}
	s.mu.byID = make(map[metricname.Identifier]*Entry)
	s.mu.ordered = btree.New(btreeDegree)
	return s
}

// Contains returns whether a metric with the given identifier is tracked.
func (s *Subset) Contains(id metricname.Identifier) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.mu.byID[id]
	return ok
}

// Add tracks the metric under the given identifier, deriving its name and
// tags from the identifier. It returns the new entry, or nil if the
// identifier is already tracked. If the tags cannot be derived (see
// metricname.ParseTags) the error is returned and nothing is tracked.
func (s *Subset) Add(metric interface{}, id metricname.Identifier) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mu.byID[id]; ok {
		return nil, nil
	}
	tags, err := metricname.DeriveTags(id)
	if err != nil {
		return nil, err
	}
	return s.insertLocked(metric, id, metricname.DeriveName(id), tags), nil
}

// AddWithName is like Add, but uses the given name and tags instead of
// deriving them from the identifier. The tags are copied; nil tags are
// equivalent to no tags.
func (s *Subset) AddWithName(
	metric interface{}, id metricname.Identifier, name string, tags map[string]string,
) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.mu.byID[id]; ok {
		return nil
	}
	if tags == nil {
		tags = map[string]string{}
	} else {
		tags = maps.Clone(tags)
	}
	return s.insertLocked(metric, id, name, tags)
}

// AddWithPairs is like AddWithName, with the tags given as alternating keys
// and values. It panics if keyValue has an odd length.
func (s *Subset) AddWithPairs(
	metric interface{}, id metricname.Identifier, name string, keyValue ...string,
) *Entry {
	return s.AddWithName(metric, id, name, metricname.TagsFromPairs(keyValue...))
}

func (s *Subset) insertLocked(
	metric interface{}, id metricname.Identifier, name string, tags map[string]string,
) *Entry {
	s.mu.AssertHeld()
	e := &Entry{
		id:     id,
		metric: metric,
		name:   name,
		tags:   tags,
		seq:    s.mu.nextSeq,
	}
	s.mu.nextSeq++
	s.mu.byID[id] = e
	s.mu.ordered.ReplaceOrInsert(e)
	return e
}

// Remove stops tracking the metric with the given identifier and returns
// its entry, or nil if it was not tracked.
func (s *Subset) Remove(id metricname.Identifier) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.mu.byID[id]
	if !ok {
		return nil
	}
	delete(s.mu.byID, id)
	s.mu.ordered.Delete(e)
	return e
}

// Metrics returns the tracked entries in insertion order. The returned slice
// is a copy and does not reflect later changes to the Subset.
func (s *Subset) Metrics() []*Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	res := make([]*Entry, 0, s.mu.ordered.Len())
	s.mu.ordered.Ascend(func(i btree.Item) bool {
		res = append(res, i.(*Entry))
		return true
	})
	return res
}

// Len returns the number of tracked entries.
func (s *Subset) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mu.byID)
}
