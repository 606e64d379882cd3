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

// Package saramametrics connects the metrics of IBM/sarama clients to a
// kafkametrics.Watcher.
//
// Sarama registers its metrics in the go-metrics registry of its Config
// under flat names such as "request-rate-for-broker-1" or
// "record-send-rate-for-topic-orders". Namer turns those names into
// identifiers of the Group group, and Extractor turns the broker and topic
// suffixes into tags:
//
//	reg := registry.NewObserved(nil, registry.WithNamer(saramametrics.Namer))
//	w := kafkametrics.NewWatcher(ctx, reg,
//		kafkametrics.WithExtractor(saramametrics.Extractor))
//	client, err := sarama.NewClient(brokers, saramametrics.NewConfig("cli", reg))
package saramametrics

import (
	"strconv"
	"strings"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"github.com/cockroachdb/kafkametrics/pkg/metric/metricname"
	"github.com/cockroachdb/kafkametrics/pkg/metric/registry"
	"github.com/cockroachdb/kafkametrics/pkg/metric/subset"
	metrics "github.com/rcrowley/go-metrics"
)

// Group is the identifier group of sarama metrics.
const Group = "kafka.sarama"

const (
	brokerSuffix     = "-for-broker-"
	topicSuffix      = "-for-topic-"
	protocolRequests = "protocol-requests-rate-"
)

// Namer names registry keys. Keys in MBean syntax keep their identifier;
// any other key is a sarama metric name.
func Namer(key string) metricname.Identifier {
	if strings.Contains(key, ":") {
		if id, err := metricname.ParseMBeanName(key); err == nil {
			return id
		}
	}
	return metricname.Identifier{Group: Group, Name: key}
}

var _ registry.Namer = Namer
var _ kafkametrics.Extractor = Extractor

// Extractor tracks sarama metrics as "kafka.sarama.<metric>", with a
// broker tag for per-broker metrics, a topic tag for per-topic metrics and
// an api_key tag for protocol request rates. Metrics of other groups are
// handed to kafkametrics.DefaultExtractor.
//
// Sarama replaces the dots of topic names with underscores; the topic tag
// carries the replaced name.
func Extractor(
	s *subset.Subset, metric interface{}, id metricname.Identifier,
) (*subset.Entry, error) {
	if id.Group != Group {
		return kafkametrics.DefaultExtractor(s, metric, id)
	}
	base, tags, err := parseName(id.Name)
	if err != nil {
		return nil, err
	}
	return s.AddWithName(metric, id, Group+"."+base, tags), nil
}

// parseName splits a sarama metric name into its base name and tags.
func parseName(name string) (string, map[string]string, error) {
	if name == "" {
		return "", nil, errors.Wrap(kafkametrics.ErrUnrecognized, "empty sarama metric name")
	}
	tags := make(map[string]string)
	base := name
	// Base names contain neither suffix but topic names may, so the first
	// suffix found ends the base name.
	bi, ti := strings.Index(base, brokerSuffix), strings.Index(base, topicSuffix)
	switch {
	case bi >= 0 && (ti < 0 || bi < ti):
		broker := base[bi+len(brokerSuffix):]
		if _, err := strconv.ParseInt(broker, 10, 32); err != nil {
			return "", nil, errors.Wrapf(metricname.ErrMalformedScope,
				"sarama metric %q: broker id %q", name, broker)
		}
		tags["broker"] = broker
		base = base[:bi]
	case ti >= 0:
		topic := base[ti+len(topicSuffix):]
		if topic == "" {
			return "", nil, errors.Wrapf(metricname.ErrMalformedScope,
				"sarama metric %q: empty topic", name)
		}
		tags["topic"] = topic
		base = base[:ti]
	}
	if strings.HasPrefix(base, protocolRequests) {
		key := base[len(protocolRequests):]
		if _, err := strconv.ParseInt(key, 10, 16); err != nil {
			return "", nil, errors.Wrapf(metricname.ErrMalformedScope,
				"sarama metric %q: api key %q", name, key)
		}
		tags["api_key"] = key
		base = strings.TrimSuffix(protocolRequests, "-")
	}
	if base == "" {
		return "", nil, errors.Wrapf(kafkametrics.ErrUnrecognized, "sarama metric %q", name)
	}
	return base, tags, nil
}

// NewConfig returns a default sarama configuration whose metrics are
// registered in reg.
func NewConfig(clientID string, reg metrics.Registry) *sarama.Config {
	cfg := sarama.NewConfig()
	if clientID != "" {
		cfg.ClientID = clientID
	}
	cfg.MetricRegistry = reg
	return cfg
}
