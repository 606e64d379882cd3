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

package export

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"github.com/cockroachdb/kafkametrics/pkg/metric/registry"
	"github.com/cockroachdb/kafkametrics/pkg/util/leaktest"
	"github.com/cockroachdb/kafkametrics/pkg/util/log"
	dto "github.com/prometheus/client_model/go"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

const bytesIn = "kafka.server:type=BrokerTopicMetrics,scope=topic.orders,name=BytesInPerSec"

func gather(t *testing.T, c *Collector) map[string]*dto.MetricFamily {
	t.Helper()
	families, err := c.Gather()
	require.NoError(t, err)
	m := make(map[string]*dto.MetricFamily, len(families))
	for _, mf := range families {
		m[mf.GetName()] = mf
	}
	return m
}

func labels(m *dto.Metric) map[string]string {
	out := make(map[string]string)
	for _, lp := range m.GetLabel() {
		out[lp.GetName()] = lp.GetValue()
	}
	return out
}

func setup(t *testing.T, namespace string) (*registry.Observed, *Collector) {
	t.Cleanup(log.SetOutput(nil))
	reg := registry.NewObserved(nil)
	c := NewCollector(namespace)
	w := kafkametrics.NewWatcher(context.Background(), reg, kafkametrics.WithSubscriber(c))
	t.Cleanup(w.Close)
	return reg, c
}

func TestCollectorTypes(t *testing.T) {
	defer leaktest.AfterTest(t)()
	reg, c := setup(t, "")

	counter := metrics.NewCounter()
	counter.Inc(5)
	require.NoError(t, reg.Register(bytesIn, counter))

	gauge := metrics.NewGauge()
	gauge.Update(7)
	require.NoError(t, reg.Register("kafka.log:type=Log,scope=topic.orders.partition.0,name=Size", gauge))

	ratio := metrics.NewGaugeFloat64()
	ratio.Update(0.25)
	require.NoError(t, reg.Register("kafka.producer:type=producer-metrics,name=compression-rate-avg", ratio))

	meter := metrics.NewMeter()
	meter.Mark(3)
	require.NoError(t, reg.Register("kafka.network:type=RequestMetrics,scope=request.Produce,name=RequestsPerSec", meter))

	hist := metrics.NewHistogram(metrics.NewUniformSample(100))
	hist.Update(10)
	hist.Update(20)
	require.NoError(t, reg.Register("kafka.network:type=RequestMetrics,scope=request.Fetch,name=RequestBytes", hist))

	timer := metrics.NewTimer()
	timer.Update(time.Millisecond)
	require.NoError(t, reg.Register("kafka.network:type=RequestMetrics,scope=request.Fetch,name=TotalTimeMs", timer))

	require.NoError(t, reg.Register("kafka.server:type=Health,name=Check",
		metrics.NewHealthcheck(func(metrics.Healthcheck) {})))

	require.Equal(t, 7, c.Len())
	families := gather(t, c)

	mf := families["kafka_server_BrokerTopicMetrics_BytesInPerSec"]
	require.NotNil(t, mf)
	require.Equal(t, dto.MetricType_COUNTER, mf.GetType())
	require.Equal(t, "Kafka metric kafka.server.BrokerTopicMetrics.BytesInPerSec", mf.GetHelp())
	require.Len(t, mf.GetMetric(), 1)
	require.Equal(t, map[string]string{"topic": "orders"}, labels(mf.GetMetric()[0]))
	require.Equal(t, 5.0, mf.GetMetric()[0].GetCounter().GetValue())

	mf = families["kafka_log_Log_Size"]
	require.Equal(t, dto.MetricType_GAUGE, mf.GetType())
	require.Equal(t, map[string]string{"topic": "orders", "partition": "0"}, labels(mf.GetMetric()[0]))
	require.Equal(t, 7.0, mf.GetMetric()[0].GetGauge().GetValue())

	mf = families["kafka_producer_producer_metrics_compression_rate_avg"]
	require.Equal(t, 0.25, mf.GetMetric()[0].GetGauge().GetValue())

	mf = families["kafka_network_RequestMetrics_RequestsPerSec"]
	require.Equal(t, dto.MetricType_COUNTER, mf.GetType())
	require.Equal(t, 3.0, mf.GetMetric()[0].GetCounter().GetValue())
	require.Contains(t, families, "kafka_network_RequestMetrics_RequestsPerSec_rate1m")

	mf = families["kafka_network_RequestMetrics_RequestBytes"]
	require.Equal(t, dto.MetricType_SUMMARY, mf.GetType())
	summary := mf.GetMetric()[0].GetSummary()
	require.EqualValues(t, 2, summary.GetSampleCount())
	require.Equal(t, 30.0, summary.GetSampleSum())
	q := make(map[float64]float64)
	for _, quantile := range summary.GetQuantile() {
		q[quantile.GetQuantile()] = quantile.GetValue()
	}
	require.Equal(t, 15.0, q[0.5])
	require.Equal(t, 20.0, q[0.99])

	mf = families["kafka_network_RequestMetrics_TotalTimeMs"]
	require.Equal(t, dto.MetricType_SUMMARY, mf.GetType())
	require.Equal(t, float64(time.Millisecond), mf.GetMetric()[0].GetSummary().GetSampleSum())
	require.Contains(t, families, "kafka_network_RequestMetrics_TotalTimeMs_rate1m")

	require.NotContains(t, families, "kafka_server_Health_Check")

	reg.UnregisterAll()
	require.Zero(t, c.Len())
	require.Empty(t, gather(t, c))
}

func TestCollectorNamespace(t *testing.T) {
	defer leaktest.AfterTest(t)()
	reg, c := setup(t, "watched-kafka")

	require.NoError(t, reg.Register(bytesIn, metrics.NewCounter()))
	require.Contains(t, gather(t, c), "watched_kafka_kafka_server_BrokerTopicMetrics_BytesInPerSec")
}

func TestCollectorHandler(t *testing.T) {
	defer leaktest.AfterTest(t)()
	reg, c := setup(t, "")

	counter := metrics.NewCounter()
	counter.Inc(42)
	require.NoError(t, reg.Register(bytesIn, counter))

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(),
		`kafka_server_BrokerTopicMetrics_BytesInPerSec{topic="orders"} 42`)

	var buf strings.Builder
	require.NoError(t, c.PrintAsText(&buf))
	require.Contains(t, buf.String(), "# TYPE kafka_server_BrokerTopicMetrics_BytesInPerSec counter\n")
	require.Contains(t, buf.String(),
		`kafka_server_BrokerTopicMetrics_BytesInPerSec{topic="orders"} 42`)
}

// Entries of different types whose names sanitize alike cannot share a
// family; the rest is still printed.
func TestCollectorPrintAsTextConflict(t *testing.T) {
	defer leaktest.AfterTest(t)()
	reg, c := setup(t, "")

	counter := metrics.NewCounter()
	counter.Inc(42)
	require.NoError(t, reg.Register(bytesIn, counter))
	require.NoError(t, reg.Register("kafka.a:type=b,name=c", metrics.NewCounter()))
	require.NoError(t, reg.Register("kafka.a:type=b-c", metrics.NewGauge()))

	var buf strings.Builder
	err := c.PrintAsText(&buf)
	require.Error(t, err)
	require.Contains(t, err.Error(), "kafka_a_b_c")
	require.Contains(t, buf.String(),
		`kafka_server_BrokerTopicMetrics_BytesInPerSec{topic="orders"} 42`)
	require.Contains(t, buf.String(), "# TYPE kafka_a_b_c ")
}

func TestSanitize(t *testing.T) {
	for _, tc := range []struct {
		in, name, label string
	}{
		{"", "", ""},
		{"kafka.server.BytesInPerSec", "kafka_server_BytesInPerSec", "kafka_server_BytesInPerSec"},
		{"client-id", "client_id", "client_id"},
		{"a:b", "a:b", "a_b"},
		{"0day", "_0day", "_0day"},
		{"x9", "x9", "x9"},
		{"tópico", "t_pico", "t_pico"},
	} {
		t.Run(tc.in, func(t *testing.T) {
			require.Equal(t, tc.name, SanitizeName(tc.in))
			require.Equal(t, tc.label, SanitizeLabel(tc.in))
		})
	}
}
