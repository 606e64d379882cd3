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

/*
Package export publishes the metrics tracked by a kafkametrics.Watcher.

A Collector subscribes to a Watcher and exposes the entries it is told about
as Prometheus metrics. Entry names become metric names with every character
Prometheus does not allow replaced by '_', and entry tags become labels:

	c := export.NewCollector("")
	w := kafkametrics.NewWatcher(ctx, reg, kafkametrics.WithSubscriber(c))
	http.Handle("/metrics", c.Handler())

go-metrics types map as follows:

	Counter        counter
	Gauge          gauge
	GaugeFloat64   gauge
	Meter          counter, plus a "_rate1m" gauge
	Histogram      summary
	Timer          summary of nanoseconds, plus a "_rate1m" gauge

Other types are not exported.

A GraphiteExporter pushes what a Collector gathers to a Graphite or Carbon
server.
*/
package export

import (
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"github.com/cockroachdb/kafkametrics/pkg/metric/subset"
	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	metrics "github.com/rcrowley/go-metrics"
)

var quantiles = []float64{0.5, 0.75, 0.95, 0.99, 0.999}

// Collector exposes tracked entries as Prometheus metrics. It is a
// kafkametrics.Subscriber, a prometheus.Collector and, through its own
// prometheus registry, a prometheus.Gatherer.
type Collector struct {
	namespace string
	registry  *prometheus.Registry

	mu struct {
		syncutil.Mutex
		entries map[*subset.Entry]struct{}
	}
}

var (
	_ kafkametrics.Subscriber = (*Collector)(nil)
	_ prometheus.Collector    = (*Collector)(nil)
	_ prometheus.Gatherer     = (*Collector)(nil)
)

// NewCollector returns an empty Collector. A non-empty namespace is
// prepended to every metric name.
func NewCollector(namespace string) *Collector {
	c := &Collector{
		namespace: SanitizeName(namespace),
		registry:  prometheus.NewRegistry(),
	}
	c.mu.entries = make(map[*subset.Entry]struct{})
	c.registry.MustRegister(c)
	return c
}

// OnMetricAdded implements kafkametrics.Subscriber.
func (c *Collector) OnMetricAdded(e *subset.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mu.entries[e] = struct{}{}
}

// OnMetricRemoved implements kafkametrics.Subscriber.
func (c *Collector) OnMetricRemoved(e *subset.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.mu.entries, e)
}

// Len returns the number of entries exported.
func (c *Collector) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.mu.entries)
}

func (c *Collector) snapshot() []*subset.Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	entries := make([]*subset.Entry, 0, len(c.mu.entries))
	for e := range c.mu.entries {
		entries = append(entries, e)
	}
	return entries
}

// Describe implements prometheus.Collector. It sends no descriptors: the
// set of metrics changes as entries come and go, so the Collector is
// unchecked.
func (c *Collector) Describe(chan<- *prometheus.Desc) {}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, e := range c.snapshot() {
		c.collectEntry(ch, e)
	}
}

// Gather implements prometheus.Gatherer.
func (c *Collector) Gather() ([]*dto.MetricFamily, error) {
	return c.registry.Gather()
}

// Handler returns an http.Handler serving the exported metrics in the
// Prometheus exposition formats.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// PrintAsText writes the exported metrics to w in the Prometheus text
// format. Metrics that fail to gather, such as two entries of different
// types sanitizing to the same name, are left out and reported in the
// returned error; everything else is written.
func (c *Collector) PrintAsText(w io.Writer) error {
	families, gatherErr := c.Gather()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return errors.CombineErrors(errors.Wrapf(err, "writing %s", mf.GetName()), gatherErr)
		}
	}
	return errors.Wrap(gatherErr, "gathering metrics")
}

func (c *Collector) collectEntry(ch chan<- prometheus.Metric, e *subset.Entry) {
	name := SanitizeName(e.Name())
	if c.namespace != "" {
		name = c.namespace + "_" + name
	}
	tags := e.Tags()
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	labels := make([]string, len(keys))
	values := make([]string, len(keys))
	for i, k := range keys {
		labels[i] = SanitizeLabel(k)
		values[i] = tags[k]
	}
	// All metrics of a family must share the help text.
	help := "Kafka metric " + e.Name()
	desc := func(suffix string) *prometheus.Desc {
		return prometheus.NewDesc(name+suffix, help, labels, nil)
	}
	send := func(m prometheus.Metric, err error) {
		if err != nil {
			m = prometheus.NewInvalidMetric(desc(""), err)
		}
		ch <- m
	}

	switch m := e.Metric().(type) {
	case metrics.Counter:
		send(prometheus.NewConstMetric(desc(""), prometheus.CounterValue, float64(m.Count()), values...))
	case metrics.Gauge:
		send(prometheus.NewConstMetric(desc(""), prometheus.GaugeValue, float64(m.Value()), values...))
	case metrics.GaugeFloat64:
		send(prometheus.NewConstMetric(desc(""), prometheus.GaugeValue, m.Value(), values...))
	case metrics.Meter:
		s := m.Snapshot()
		send(prometheus.NewConstMetric(desc(""), prometheus.CounterValue, float64(s.Count()), values...))
		send(prometheus.NewConstMetric(desc("_rate1m"), prometheus.GaugeValue, s.Rate1(), values...))
	case metrics.Histogram:
		s := m.Snapshot()
		send(prometheus.NewConstSummary(desc(""),
			uint64(s.Count()), float64(s.Sum()), quantileMap(s.Percentiles(quantiles)), values...))
	case metrics.Timer:
		s := m.Snapshot()
		send(prometheus.NewConstSummary(desc(""),
			uint64(s.Count()), float64(s.Sum()), quantileMap(s.Percentiles(quantiles)), values...))
		send(prometheus.NewConstMetric(desc("_rate1m"), prometheus.GaugeValue, s.Rate1(), values...))
	}
}

func quantileMap(values []float64) map[float64]float64 {
	m := make(map[float64]float64, len(quantiles))
	for i, q := range quantiles {
		m[q] = values[i]
	}
	return m
}

// SanitizeName turns s into a valid Prometheus metric name.
func SanitizeName(s string) string {
	return sanitize(s, true)
}

// SanitizeLabel turns s into a valid Prometheus label name.
func SanitizeLabel(s string) string {
	return sanitize(s, false)
}

func sanitize(s string, allowColon bool) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s) + 1)
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r == ':' && allowColon:
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
		default:
			r = '_'
		}
		b.WriteRune(r)
	}
	return b.String()
}
