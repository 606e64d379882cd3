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

// Package franzmetrics records per-broker metrics of twmb/franz-go clients
// in a go-metrics registry, in a form a kafkametrics.Watcher tracks with its
// default configuration.
//
// franz-go does not keep metrics of its own; it reports broker activity to
// hooks. Hooks implements the broker hooks and registers, for every broker,
// metrics under MBean names like
//
//	kafka.franz:type=broker,scope=broker.1,name=bytes-written
//
// which the watcher tracks as "kafka.franz.broker.bytes-written" with the
// tag broker=1. Seed brokers are tagged with their kgo.NodeName, such as
// "seed_0". The metrics of a broker are unregistered once its last
// connection closes, and all metrics are unregistered when the client is
// closed.
package franzmetrics

import (
	"net"
	"time"

	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/util/syncutil"
	metrics "github.com/rcrowley/go-metrics"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Group is the identifier group of franz-go metrics.
const Group = "kafka.franz"

const brokerType = "broker"

// Metric names.
const (
	Connections     = "connections"
	Connects        = "connects"
	ConnectErrors   = "connect-errors"
	Disconnects     = "disconnects"
	BytesWritten    = "bytes-written"
	BytesRead       = "bytes-read"
	WriteErrors     = "write-errors"
	ReadErrors      = "read-errors"
	RequestLatency  = "request-latency-us"
	ThrottleLatency = "throttle-ms"
)

// Hooks records broker metrics in a registry. Pass it to kgo.WithHooks.
type Hooks struct {
	reg metrics.Registry

	mu struct {
		syncutil.Mutex
		// brokers maps node IDs to the live connection count and the keys
		// registered for the broker.
		brokers map[int32]*brokerState
	}
}

type brokerState struct {
	conns int64
	keys  map[string]struct{}
}

var (
	_ kgo.HookBrokerConnect    = (*Hooks)(nil)
	_ kgo.HookBrokerDisconnect = (*Hooks)(nil)
	_ kgo.HookBrokerWrite      = (*Hooks)(nil)
	_ kgo.HookBrokerRead       = (*Hooks)(nil)
	_ kgo.HookBrokerThrottle   = (*Hooks)(nil)
	_ kgo.HookClientClosed     = (*Hooks)(nil)
)

// NewHooks returns hooks registering their metrics in reg.
func NewHooks(reg metrics.Registry) *Hooks {
	h := &Hooks{reg: reg}
	h.mu.brokers = make(map[int32]*brokerState)
	return h
}

// Key returns the registry key of the named metric of a broker.
func Key(nodeID int32, name string) string {
	return metricname.Identifier{
		Group: Group,
		Type:  brokerType,
		Name:  name,
		Scope: "broker." + kgo.NodeName(nodeID),
	}.MBeanName()
}

func newHistogram() metrics.Histogram {
	return metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
}

// stateLocked returns the state of a broker, creating it if needed.
func (h *Hooks) stateLocked(nodeID int32) *brokerState {
	h.mu.AssertHeld()
	b, ok := h.mu.brokers[nodeID]
	if !ok {
		b = &brokerState{keys: make(map[string]struct{})}
		h.mu.brokers[nodeID] = b
	}
	return b
}

func (h *Hooks) getOrRegisterLocked(nodeID int32, name string, ctor interface{}) interface{} {
	key := Key(nodeID, name)
	h.stateLocked(nodeID).keys[key] = struct{}{}
	return h.reg.GetOrRegister(key, ctor)
}

func (h *Hooks) inc(nodeID int32, name string, n int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.getOrRegisterLocked(nodeID, name, metrics.NewCounter).(metrics.Counter).Inc(n)
}

func (h *Hooks) observe(nodeID int32, name string, v int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.getOrRegisterLocked(nodeID, name, newHistogram).(metrics.Histogram).Update(v)
}

// OnBrokerConnect implements kgo.HookBrokerConnect.
func (h *Hooks) OnBrokerConnect(
	meta kgo.BrokerMetadata, _ time.Duration, _ net.Conn, err error,
) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil {
		h.getOrRegisterLocked(meta.NodeID, ConnectErrors, metrics.NewCounter).(metrics.Counter).Inc(1)
		return
	}
	b := h.stateLocked(meta.NodeID)
	b.conns++
	h.getOrRegisterLocked(meta.NodeID, Connects, metrics.NewCounter).(metrics.Counter).Inc(1)
	h.getOrRegisterLocked(meta.NodeID, Connections, metrics.NewGauge).(metrics.Gauge).Update(b.conns)
}

// OnBrokerDisconnect implements kgo.HookBrokerDisconnect. The metrics of a
// broker are unregistered when its last connection closes.
func (h *Hooks) OnBrokerDisconnect(meta kgo.BrokerMetadata, _ net.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b := h.stateLocked(meta.NodeID)
	if b.conns > 0 {
		b.conns--
	}
	if b.conns == 0 {
		h.unregisterLocked(meta.NodeID)
		return
	}
	h.getOrRegisterLocked(meta.NodeID, Disconnects, metrics.NewCounter).(metrics.Counter).Inc(1)
	h.getOrRegisterLocked(meta.NodeID, Connections, metrics.NewGauge).(metrics.Gauge).Update(b.conns)
}

// OnBrokerWrite implements kgo.HookBrokerWrite.
func (h *Hooks) OnBrokerWrite(
	meta kgo.BrokerMetadata, _ int16, bytesWritten int, _, _ time.Duration, err error,
) {
	if err != nil {
		h.inc(meta.NodeID, WriteErrors, 1)
		return
	}
	h.inc(meta.NodeID, BytesWritten, int64(bytesWritten))
}

// OnBrokerRead implements kgo.HookBrokerRead. The request latency is the
// time spent waiting for and reading the response.
func (h *Hooks) OnBrokerRead(
	meta kgo.BrokerMetadata, _ int16, bytesRead int, readWait, timeToRead time.Duration, err error,
) {
	if err != nil {
		h.inc(meta.NodeID, ReadErrors, 1)
		return
	}
	h.inc(meta.NodeID, BytesRead, int64(bytesRead))
	h.observe(meta.NodeID, RequestLatency, (readWait + timeToRead).Microseconds())
}

// OnBrokerThrottle implements kgo.HookBrokerThrottle.
func (h *Hooks) OnBrokerThrottle(meta kgo.BrokerMetadata, interval time.Duration, _ bool) {
	h.observe(meta.NodeID, ThrottleLatency, interval.Milliseconds())
}

// OnClientClosed implements kgo.HookClientClosed.
func (h *Hooks) OnClientClosed(*kgo.Client) {
	h.Close()
}

// Close unregisters all metrics registered by h.
func (h *Hooks) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for nodeID := range h.mu.brokers {
		h.unregisterLocked(nodeID)
	}
}

func (h *Hooks) unregisterLocked(nodeID int32) {
	h.mu.AssertHeld()
	b, ok := h.mu.brokers[nodeID]
	if !ok {
		return
	}
	for key := range b.keys {
		h.reg.Unregister(key)
	}
	delete(h.mu.brokers, nodeID)
}
