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

package saramametrics

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/metric/registry"
	"github.com/cockroachdb/kafkametrics/pkg/metric/subset"
	"github.com/cockroachdb/kafkametrics/pkg/util/leaktest"
	"github.com/cockroachdb/kafkametrics/pkg/util/log"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

// TestExtractor feeds registry keys through Namer and Extractor. Each input
// line is a key; the output line shows the resulting entry or error.
func TestExtractor(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, d *datadriven.TestData) string {
			switch d.Cmd {
			case "extract":
				s := subset.New()
				var buf strings.Builder
				for _, key := range strings.Split(d.Input, "\n") {
					e, err := Extractor(s, metrics.NewCounter(), Namer(key))
					switch {
					case errors.Is(err, metricname.ErrMalformedScope):
						fmt.Fprintf(&buf, "malformed: %v\n", err)
					case errors.Is(err, kafkametrics.ErrUnrecognized):
						fmt.Fprintf(&buf, "unrecognized: %v\n", err)
					case err != nil:
						fmt.Fprintf(&buf, "error: %v\n", err)
					case e == nil:
						buf.WriteString("duplicate\n")
					default:
						fmt.Fprintf(&buf, "%s\n", e)
					}
				}
				return buf.String()
			default:
				d.Fatalf(t, "unknown command %s", d.Cmd)
				return ""
			}
		})
	})
}

func TestNamer(t *testing.T) {
	require.Equal(t,
		metricname.Identifier{Group: Group, Name: "request-rate-for-broker-1"},
		Namer("request-rate-for-broker-1"))
	require.Equal(t,
		metricname.Identifier{Group: "kafka.producer", Type: "producer-metrics", Name: "record-send-rate"},
		Namer("kafka.producer:type=producer-metrics,name=record-send-rate"))
	// Not a valid MBean name: treated as a sarama metric.
	require.Equal(t,
		metricname.Identifier{Group: Group, Name: "odd:name"},
		Namer("odd:name"))
}

func TestNewConfig(t *testing.T) {
	reg := metrics.NewRegistry()
	cfg := NewConfig("watcher", reg)
	require.Equal(t, "watcher", cfg.ClientID)
	require.Equal(t, reg, cfg.MetricRegistry)
	require.NoError(t, cfg.Validate())

	require.Equal(t, sarama.NewConfig().ClientID, NewConfig("", reg).ClientID)
}

// TestClientMetrics connects a sarama client to a mock broker and checks
// that its metrics come and go through a Watcher.
func TestClientMetrics(t *testing.T) {
	defer leaktest.AfterTest(t)()
	defer log.SetOutput(nil)()
	ctx := context.Background()

	seed := sarama.NewMockBroker(t, 1)
	defer seed.Close()
	seed.SetHandlerByMap(map[string]sarama.MockResponse{
		"MetadataRequest": sarama.NewMockMetadataResponse(t).
			SetBroker(seed.Addr(), seed.BrokerID()).
			SetLeader("orders", 0, seed.BrokerID()),
	})

	reg := registry.NewObserved(nil, registry.WithNamer(Namer))
	tracked := make(chan *subset.Entry, 1024)
	w := kafkametrics.NewWatcher(ctx, reg,
		kafkametrics.WithExtractor(Extractor),
		kafkametrics.WithSubscriber(&kafkametrics.SubscriberFuncs{
			Added: func(e *subset.Entry) { tracked <- e },
		}))
	defer w.Close()

	client, err := sarama.NewClient([]string{seed.Addr()}, NewConfig("test", reg))
	require.NoError(t, err)

	require.NotEmpty(t, tracked)
	var sawBroker bool
	for _, e := range w.Metrics() {
		require.True(t, strings.HasPrefix(e.Name(), Group+"."), e.String())
		if _, ok := e.Tag("broker"); ok {
			sawBroker = true
		}
	}
	require.True(t, sawBroker)
	require.Zero(t, w.Stats().Malformed)
	require.Zero(t, w.Stats().Unrecognized)

	require.NoError(t, client.Close())
	// Brokers are closed asynchronously, unregistering their metrics.
	require.Eventually(t, func() bool {
		return len(w.Metrics()) == 0
	}, 10*time.Second, 10*time.Millisecond)
	require.Equal(t, w.Stats().Added, w.Stats().Removed)
}
