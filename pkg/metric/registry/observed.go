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

// Package registry adds change notifications to go-metrics registries.
//
// Kafka clients written in Go (sarama most prominently) report their
// metrics into a github.com/rcrowley/go-metrics Registry. Unlike the Yammer
// registry the Java clients use, a go-metrics Registry cannot tell anybody
// that a metric was registered or unregistered. Observed fills that gap: it
// decorates a Registry, can be handed to any code expecting a
// metrics.Registry, and tells its listeners about every metric that comes
// and goes.
//
// go-metrics names metrics with flat strings, while listeners deal in
// structured metricname.Identifiers. A Namer maps one to the other; by
// default keys are parsed as MBean names ("group:type=T,scope=S,name=N") and
// anything else becomes the Name of an otherwise empty identifier.
package registry

import (
	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	metrics "github.com/rcrowley/go-metrics"
)

// A Listener is notified of metrics being added to and removed from an
// Observed registry. Callbacks run synchronously on the goroutine that
// mutated the registry, outside of the registry's locks.
type Listener interface {
	OnMetricAdded(id metricname.Identifier, metric interface{})
	OnMetricRemoved(id metricname.Identifier)
}

// A Namer maps a go-metrics registry key to an identifier. It must be a pure
// function of the key.
type Namer func(key string) metricname.Identifier

// DefaultNamer parses MBean-style keys and falls back to using the key as
// the metric name.
func DefaultNamer(key string) metricname.Identifier {
	if id, err := metricname.ParseMBeanName(key); err == nil {
		return id
	}
	return metricname.Identifier{Name: key}
}

// Observed is a metrics.Registry that notifies Listeners of changes. All
// mutations must go through the Observed registry; changes made directly to
// the underlying registry are not seen. Listeners must not mutate the
// registry from within their callbacks.
type Observed struct {
	underlying metrics.Registry
	namer      Namer

	// mu serializes mutations so that the existence checks preceding them
	// are accurate. It is never held while listeners run.
	mu syncutil.Mutex
	// notifyMu is acquired before mu is released and held while listeners
	// run, so listeners see mutations in the order they were applied. As a
	// consequence listeners must not mutate the registry.
	notifyMu syncutil.Mutex

	listeners struct {
		syncutil.Mutex
		// list is replaced, never modified in place, so that a snapshot
		// can be iterated without holding the lock.
		list []Listener
	}
}

var _ metrics.Registry = (*Observed)(nil)

// Option configures an Observed registry.
type Option func(*Observed)

// WithNamer sets the Namer used to turn registry keys into identifiers.
func WithNamer(n Namer) Option {
	return func(o *Observed) {
		o.namer = n
	}
}

// NewObserved wraps r. A nil r is replaced with a fresh registry.
func NewObserved(r metrics.Registry, opts ...Option) *Observed {
	if r == nil {
		r = metrics.NewRegistry()
	}
	o := &Observed{underlying: r, namer: DefaultNamer}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Underlying returns the wrapped registry.
func (o *Observed) Underlying() metrics.Registry {
	return o.underlying
}

// Identify returns the identifier the registry uses for the given key.
func (o *Observed) Identify(key string) metricname.Identifier {
	return o.namer(key)
}

// AddListener registers l. Adding a listener twice makes it receive every
// notification twice.
func (o *Observed) AddListener(l Listener) {
	if l == nil {
		return
	}
	o.listeners.Lock()
	defer o.listeners.Unlock()
	list := make([]Listener, 0, len(o.listeners.list)+1)
	list = append(list, o.listeners.list...)
	o.listeners.list = append(list, l)
}

// RemoveListener unregisters every registration of l.
func (o *Observed) RemoveListener(l Listener) {
	o.listeners.Lock()
	defer o.listeners.Unlock()
	list := make([]Listener, 0, len(o.listeners.list))
	for _, cur := range o.listeners.list {
		if cur != l {
			list = append(list, cur)
		}
	}
	o.listeners.list = list
}

func (o *Observed) snapshotListeners() []Listener {
	o.listeners.Lock()
	defer o.listeners.Unlock()
	return o.listeners.list
}

// handoffLocked trades mu for notifyMu.
func (o *Observed) handoffLocked() {
	o.mu.AssertHeld()
	o.notifyMu.Lock()
	o.mu.Unlock()
}

func (o *Observed) notifyAdded(key string, metric interface{}) {
	id := o.namer(key)
	for _, l := range o.snapshotListeners() {
		l.OnMetricAdded(id, metric)
	}
}

func (o *Observed) notifyRemoved(key string) {
	id := o.namer(key)
	for _, l := range o.snapshotListeners() {
		l.OnMetricRemoved(id)
	}
}

// AllMetrics returns the current contents of the registry keyed by
// identifier. Keys that map to the same identifier collapse into one entry.
func (o *Observed) AllMetrics() map[metricname.Identifier]interface{} {
	all := make(map[metricname.Identifier]interface{})
	o.underlying.Each(func(key string, metric interface{}) {
		all[o.namer(key)] = metric
	})
	return all
}

// Each implements metrics.Registry.
func (o *Observed) Each(f func(string, interface{})) {
	o.underlying.Each(f)
}

// Get implements metrics.Registry.
func (o *Observed) Get(key string) interface{} {
	return o.underlying.Get(key)
}

// GetAll implements metrics.Registry.
func (o *Observed) GetAll() map[string]map[string]interface{} {
	return o.underlying.GetAll()
}

// RunHealthchecks implements metrics.Registry.
func (o *Observed) RunHealthchecks() {
	o.underlying.RunHealthchecks()
}

// GetOrRegister implements metrics.Registry. Listeners are notified only if
// the metric was not registered yet.
func (o *Observed) GetOrRegister(key string, metric interface{}) interface{} {
	if existing := o.underlying.Get(key); existing != nil {
		return existing
	}
	o.mu.Lock()
	if existing := o.underlying.Get(key); existing != nil {
		o.mu.Unlock()
		return existing
	}
	registered := o.underlying.GetOrRegister(key, metric)
	o.handoffLocked()
	defer o.notifyMu.Unlock()

	o.notifyAdded(key, registered)
	return registered
}

// Register implements metrics.Registry. Listeners are notified if the
// registration succeeds.
func (o *Observed) Register(key string, metric interface{}) error {
	o.mu.Lock()
	if err := o.underlying.Register(key, metric); err != nil {
		o.mu.Unlock()
		return err
	}
	// The underlying registry may have instantiated a lazy metric; notify
	// with what it actually holds.
	registered := o.underlying.Get(key)
	o.handoffLocked()
	defer o.notifyMu.Unlock()

	o.notifyAdded(key, registered)
	return nil
}

// Unregister implements metrics.Registry. Listeners are notified if a metric
// was registered under the key.
func (o *Observed) Unregister(key string) {
	o.mu.Lock()
	existed := o.underlying.Get(key) != nil
	o.underlying.Unregister(key)
	o.handoffLocked()
	defer o.notifyMu.Unlock()

	if existed {
		o.notifyRemoved(key)
	}
}

// UnregisterAll implements metrics.Registry. Listeners are notified of every
// metric removed.
func (o *Observed) UnregisterAll() {
	var keys []string
	o.mu.Lock()
	o.underlying.Each(func(key string, _ interface{}) {
		keys = append(keys, key)
	})
	o.underlying.UnregisterAll()
	o.handoffLocked()
	defer o.notifyMu.Unlock()

	for _, key := range keys {
		o.notifyRemoved(key)
	}
}
