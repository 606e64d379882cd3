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
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/metric/registry"
	"github.com/cockroachdb/kafkametrics/pkg/metric/subset"
	"github.com/cockroachdb/kafkametrics/pkg/util/log"
	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	"github.com/cockroachdb/logtags"
)

// DefaultGroupPrefix is the group prefix of the metrics the default filter
// accepts.
const DefaultGroupPrefix = "kafka"

// ErrUnrecognized is returned by Extractors for metrics they decline to
// track.
var ErrUnrecognized = errors.New("unrecognized metric")

// Registry is the registry a Watcher observes. *registry.Observed implements
// it.
type Registry interface {
	// AllMetrics returns the metrics currently registered. It must not
	// notify listeners synchronously.
	AllMetrics() map[metricname.Identifier]interface{}
	// AddListener subscribes l to all future additions and removals.
	AddListener(l registry.Listener)
	// RemoveListener undoes AddListener.
	RemoveListener(l registry.Listener)
}

// A Subscriber is told about the metrics a Watcher starts and stops
// tracking. Entries must be treated as read-only.
type Subscriber interface {
	OnMetricAdded(e *subset.Entry)
	OnMetricRemoved(e *subset.Entry)
}

// SubscriberFuncs adapts a pair of functions to the Subscriber interface.
// Either function may be nil. Use a pointer so that the subscriber can be
// removed again.
type SubscriberFuncs struct {
	Added   func(e *subset.Entry)
	Removed func(e *subset.Entry)
}

var _ Subscriber = (*SubscriberFuncs)(nil)

// OnMetricAdded implements Subscriber.
func (s *SubscriberFuncs) OnMetricAdded(e *subset.Entry) {
	if s.Added != nil {
		s.Added(e)
	}
}

// OnMetricRemoved implements Subscriber.
func (s *SubscriberFuncs) OnMetricRemoved(e *subset.Entry) {
	if s.Removed != nil {
		s.Removed(e)
	}
}

// A Filter decides whether a metric belongs to the watched subsystem.
type Filter func(id metricname.Identifier) bool

// GroupPrefixFilter accepts identifiers whose group starts with prefix.
func GroupPrefixFilter(prefix string) Filter {
	return func(id metricname.Identifier) bool {
		return strings.HasPrefix(id.Group, prefix)
	}
}

// An Extractor adds a metric that passed the filter to the subset, choosing
// its name and tags. It returns the new entry, nil if the metric is already
// tracked, or an error if the metric cannot be tracked; extractors that do
// not want a metric return an error matching ErrUnrecognized.
type Extractor func(s *subset.Subset, metric interface{}, id metricname.Identifier) (*subset.Entry, error)

// DefaultExtractor derives name and tags from the identifier.
func DefaultExtractor(
	s *subset.Subset, metric interface{}, id metricname.Identifier,
) (*subset.Entry, error) {
	return s.Add(metric, id)
}

type config struct {
	filter      Filter
	extractor   Extractor
	subscribers []Subscriber
}

// Option configures a Watcher.
type Option func(*config)

// WithFilter replaces the default filter, GroupPrefixFilter(DefaultGroupPrefix).
func WithFilter(f Filter) Option {
	return func(c *config) {
		c.filter = f
	}
}

// WithExtractor replaces DefaultExtractor.
func WithExtractor(e Extractor) Option {
	return func(c *config) {
		c.extractor = e
	}
}

// WithSubscriber subscribes s before the registry is scanned, so that s is
// told about the metrics registered before the Watcher was created.
func WithSubscriber(s Subscriber) Option {
	return func(c *config) {
		c.subscribers = append(c.subscribers, s)
	}
}

// Watcher tracks the Kafka metrics of a Registry. See the package
// documentation.
type Watcher struct {
	ctx       context.Context
	reg       Registry
	filter    Filter
	extractor Extractor
	subset    *subset.Subset
	listener  *registryListener
	metrics   watcherMetrics

	closeOnce sync.Once
	closed    atomic.Bool

	// dispatchMu is held while an event updates the subset and is handed to
	// the subscribers.
	dispatchMu syncutil.Mutex

	subscribers struct {
		syncutil.Mutex
		// list is replaced, never modified in place.
		list []Subscriber
	}
}

// NewWatcher starts watching reg. Before returning, it announces the
// matching metrics already present in reg to the subscribers given as
// options.
func NewWatcher(ctx context.Context, reg Registry, opts ...Option) *Watcher {
	cfg := config{
		filter:    GroupPrefixFilter(DefaultGroupPrefix),
		extractor: DefaultExtractor,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	w := &Watcher{
		ctx:       logtags.AddTag(ctx, "kafkametrics", nil),
		reg:       reg,
		filter:    cfg.filter,
		extractor: cfg.extractor,
		subset:    subset.New(),
		metrics:   makeWatcherMetrics(),
	}
	w.listener = &registryListener{w: w}
	for _, s := range cfg.subscribers {
		w.AddSubscriber(s)
	}

	// Listen first, then scan: a metric registered in between is seen twice
	// and deduplicated by the subset.
	reg.AddListener(w.listener)
	w.replay()
	return w
}

// replay feeds the current contents of the registry through the add path.
// dispatchMu is held from the snapshot to the end of the replay, so that
// notifications racing the scan are applied after it.
func (w *Watcher) replay() {
	ctx := logtags.AddTag(w.ctx, "replay", nil)
	w.dispatchMu.Lock()
	defer w.dispatchMu.Unlock()
	existing := w.reg.AllMetrics()
	ids := make([]metricname.Identifier, 0, len(existing))
	for id := range existing {
		ids = append(ids, id)
	}
	// Replay in a deterministic order.
	sort.Slice(ids, func(i, j int) bool {
		return ids[i].MBeanName() < ids[j].MBeanName()
	})
	for _, id := range ids {
		w.metricAddedLocked(ctx, id, existing[id])
	}
	log.VEventf(ctx, 1, "scanned %d registered metrics, tracking %d", len(ids), w.subset.Len())
}

// Close stops watching the registry. It waits for a notification being
// delivered to finish; no subscriber is called once Close returns.
// Subscribers are not told about the metrics still tracked. Close must not
// be called from a subscriber.
func (w *Watcher) Close() {
	w.closeOnce.Do(func() {
		w.dispatchMu.Lock()
		w.closed.Store(true)
		w.dispatchMu.Unlock()
		w.reg.RemoveListener(w.listener)
	})
}

// AddSubscriber subscribes s to future additions and removals. A nil s is
// ignored.
func (w *Watcher) AddSubscriber(s Subscriber) {
	if s == nil {
		return
	}
	w.subscribers.Lock()
	defer w.subscribers.Unlock()
	list := make([]Subscriber, 0, len(w.subscribers.list)+1)
	list = append(list, w.subscribers.list...)
	w.subscribers.list = append(list, s)
}

// RemoveSubscriber removes every subscription of s.
func (w *Watcher) RemoveSubscriber(s Subscriber) {
	w.subscribers.Lock()
	defer w.subscribers.Unlock()
	list := make([]Subscriber, 0, len(w.subscribers.list))
	for _, cur := range w.subscribers.list {
		if cur != s {
			list = append(list, cur)
		}
	}
	w.subscribers.list = list
}

func (w *Watcher) snapshotSubscribers() []Subscriber {
	w.subscribers.Lock()
	defer w.subscribers.Unlock()
	return w.subscribers.list
}

// Metrics returns the tracked entries in the order they were added.
func (w *Watcher) Metrics() []*subset.Entry {
	return w.subset.Metrics()
}

// Contains returns whether the metric with the given identifier is tracked.
func (w *Watcher) Contains(id metricname.Identifier) bool {
	return w.subset.Contains(id)
}

func (w *Watcher) metricAdded(ctx context.Context, id metricname.Identifier, metric interface{}) {
	w.dispatchMu.Lock()
	defer w.dispatchMu.Unlock()
	w.metricAddedLocked(ctx, id, metric)
}

func (w *Watcher) metricAddedLocked(
	ctx context.Context, id metricname.Identifier, metric interface{},
) {
	w.dispatchMu.AssertHeld()
	if w.closed.Load() {
		return
	}
	if !w.filter(id) {
		w.metrics.filtered.Inc(1)
		log.VEventf(ctx, 2, "ignoring metric %s: not part of the subset", id)
		return
	}

	e, err := w.extractor(w.subset, metric, id)
	switch {
	case errors.Is(err, metricname.ErrMalformedScope):
		w.metrics.malformed.Inc(1)
		log.Warningf(ctx, "dropping Kafka metric %s: %v%s", id, err, id.Components())
		return
	case errors.Is(err, ErrUnrecognized):
		w.metrics.unrecognized.Inc(1)
		log.Infof(ctx, "unrecognized Kafka metric: %s%s", id, id.Components())
		return
	case err != nil:
		w.metrics.unrecognized.Inc(1)
		log.Warningf(ctx, "unable to track Kafka metric %s: %v%s", id, err, id.Components())
		return
	case e == nil:
		w.metrics.duplicates.Inc(1)
		log.VEventf(ctx, 3, "metric %s is already tracked", id)
		return
	}

	w.metrics.added.Inc(1)
	log.VEventf(ctx, 2, "tracking %s as %s", id, e)
	for _, s := range w.snapshotSubscribers() {
		s.OnMetricAdded(e)
	}
}

func (w *Watcher) metricRemoved(ctx context.Context, id metricname.Identifier) {
	w.dispatchMu.Lock()
	defer w.dispatchMu.Unlock()
	if w.closed.Load() || !w.filter(id) {
		return
	}

	e := w.subset.Remove(id)
	if e == nil {
		return
	}
	w.metrics.removed.Inc(1)
	log.VEventf(ctx, 2, "no longer tracking %s", e)
	for _, s := range w.snapshotSubscribers() {
		s.OnMetricRemoved(e)
	}
}

// registryListener adapts a Watcher to registry.Listener.
type registryListener struct {
	w *Watcher
}

var _ registry.Listener = (*registryListener)(nil)

// OnMetricAdded implements registry.Listener.
func (l *registryListener) OnMetricAdded(id metricname.Identifier, metric interface{}) {
	l.w.metricAdded(l.w.ctx, id, metric)
}

// OnMetricRemoved implements registry.Listener.
func (l *registryListener) OnMetricRemoved(id metricname.Identifier) {
	l.w.metricRemoved(l.w.ctx, id)
}
