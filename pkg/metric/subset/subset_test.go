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
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/util/leaktest"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/require"
)

var ordersIn = metricname.Identifier{
	Group: "kafka", Type: "Producer", Name: "MessagesIn", Scope: "topic.orders",
}

func names(entries []*Entry) []string {
	var res []string
	for _, e := range entries {
		res = append(res, e.Name())
	}
	return res
}

func TestSubsetAdd(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	c := metrics.NewCounter()
	require.False(t, s.Contains(ordersIn))

	e, err := s.Add(c, ordersIn)
	require.NoError(t, err)
	require.NotNil(t, e)
	require.Equal(t, ordersIn, e.Identifier())
	require.Equal(t, c, e.Metric())
	require.Equal(t, "kafka.Producer.MessagesIn", e.Name())
	require.Equal(t, map[string]string{"topic": "orders"}, e.Tags())
	require.Equal(t, "topic=orders", e.TagsString())
	require.Equal(t, "kafka.Producer.MessagesIn {topic=orders}", e.String())
	require.True(t, s.Contains(ordersIn))

	// Adding the same identifier again is a no-op, even with a different
	// metric handle.
	e2, err := s.Add(metrics.NewCounter(), ordersIn)
	require.NoError(t, err)
	require.Nil(t, e2)
	require.Equal(t, 1, s.Len())
	require.Len(t, s.Metrics(), 1)
	require.Same(t, e, s.Metrics()[0])
}

func TestSubsetAddMalformedScope(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	id := metricname.Identifier{Group: "kafka", Name: "MessagesIn", Scope: "topic.orders.broker"}
	e, err := s.Add(nil, id)
	require.Nil(t, e)
	require.True(t, errors.Is(err, metricname.ErrMalformedScope))
	require.False(t, s.Contains(id))
	require.Equal(t, 0, s.Len())
}

func TestSubsetRemove(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	first, err := s.Add(nil, ordersIn)
	require.NoError(t, err)

	require.Same(t, first, s.Remove(ordersIn))
	require.False(t, s.Contains(ordersIn))
	require.Nil(t, s.Remove(ordersIn))

	// The identifier can be tracked again and yields a fresh entry.
	second, err := s.Add(nil, ordersIn)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.NotSame(t, first, second)
	require.True(t, s.Contains(ordersIn))
}

func TestSubsetAddWithName(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	// The scope would not parse, but is never looked at.
	id := metricname.Identifier{Group: "kafka.sarama", Name: "request-rate-for-broker-1", Scope: "odd"}
	tags := map[string]string{"broker": "1"}
	e := s.AddWithName(nil, id, "kafka.sarama.request-rate", tags)
	require.NotNil(t, e)
	require.Equal(t, "kafka.sarama.request-rate", e.Name())

	// The entry is immune to changes of the caller's map and of the map
	// returned by Tags.
	tags["broker"] = "2"
	e.Tags()["broker"] = "3"
	v, ok := e.Tag("broker")
	require.True(t, ok)
	require.Equal(t, "1", v)

	require.Nil(t, s.AddWithName(nil, id, "other", nil))

	noTags := s.AddWithName(nil, metricname.Identifier{Name: "x"}, "x", nil)
	require.NotNil(t, noTags.Tags())
	require.Equal(t, 0, noTags.NumTags())
}

func TestSubsetAddWithPairs(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	e := s.AddWithPairs(nil, ordersIn, "orders", "topic", "orders", "broker", "1")
	require.Equal(t, map[string]string{"topic": "orders", "broker": "1"}, e.Tags())

	require.Panics(t, func() {
		s.AddWithPairs(nil, metricname.Identifier{Name: "y"}, "y", "topic")
	})
	require.Equal(t, 1, s.Len())
}

func TestSubsetMetricsIsSnapshot(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	for i := 0; i < 5; i++ {
		_, err := s.Add(nil, metricname.Identifier{Group: "kafka", Name: fmt.Sprint("m", i)})
		require.NoError(t, err)
	}
	snap := s.Metrics()
	require.Equal(t, []string{"kafka.m0", "kafka.m1", "kafka.m2", "kafka.m3", "kafka.m4"}, names(snap))

	s.Remove(metricname.Identifier{Group: "kafka", Name: "m1"})
	_, err := s.Add(nil, metricname.Identifier{Group: "kafka", Name: "m1"})
	require.NoError(t, err)
	_, err = s.Add(nil, metricname.Identifier{Group: "kafka", Name: "m5"})
	require.NoError(t, err)

	// The earlier snapshot is unaffected; the new one reflects insertion
	// order, with m1 now last but one.
	require.Len(t, snap, 5)
	require.Equal(t, []string{"kafka.m0", "kafka.m2", "kafka.m3", "kafka.m4", "kafka.m1", "kafka.m5"},
		names(s.Metrics()))
}

func TestSubsetConcurrentAdd(t *testing.T) {
	defer leaktest.AfterTest(t)()

	s := New()
	const workers = 16
	const ids = 50

	var added int64
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < ids; i++ {
				id := metricname.Identifier{Group: "kafka", Name: fmt.Sprint(i)}
				e, err := s.Add(nil, id)
				if err != nil {
					t.Error(err)
					return
				}
				if e != nil {
					atomic.AddInt64(&added, 1)
				}
				_ = s.Contains(id)
				_ = s.Metrics()
			}
		}()
	}
	wg.Wait()

	require.EqualValues(t, ids, added)
	require.Equal(t, ids, s.Len())
}
