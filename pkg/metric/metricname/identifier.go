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

// Package metricname implements the naming scheme shared by Kafka and the
// Yammer metrics library it reports through.
//
// A metric is identified by four components: group, type, name and scope.
// Kafka encodes the tags of a metric (topic, partition, client ID...) into
// the scope as a '.'-separated list of alternating keys and values, e.g.
// "clientId.producer-1.topic.orders". For time-series storage the identifier
// is flattened into a dotted name built from group, type and name, plus a
// tag map parsed back out of the scope:
//
//	Identifier{Group: "kafka.producer", Type: "ProducerTopicMetrics",
//	           Name: "MessagesPerSec", Scope: "topic.orders"}
//	→ name "kafka.producer.ProducerTopicMetrics.MessagesPerSec"
//	  tags {topic: orders}
package metricname

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/redact"
)

// Identifier names a metric in a registry. Any component may be empty. Two
// identifiers are equal iff all four components are equal, so an Identifier
// can be used as a map key.
type Identifier struct {
	Group string
	Type  string
	Name  string
	Scope string
}

// MBeanName renders the identifier the way Yammer metrics names the JMX bean
// of a metric: "group:type=Type,scope=Scope,name=Name". The scope and name
// properties are omitted when empty.
func (id Identifier) MBeanName() string {
	var b strings.Builder
	b.WriteString(id.Group)
	b.WriteString(":type=")
	b.WriteString(id.Type)
	if id.Scope != "" {
		b.WriteString(",scope=")
		b.WriteString(id.Scope)
	}
	if id.Name != "" {
		b.WriteString(",name=")
		b.WriteString(id.Name)
	}
	return b.String()
}

// String implements fmt.Stringer.
func (id Identifier) String() string {
	return id.MBeanName()
}

// SafeFormat implements redact.SafeFormatter. Metric names are not
// sensitive.
func (id Identifier) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Print(redact.SafeString(id.MBeanName()))
}

// Components renders the four components on separate lines, for
// diagnostics.
func (id Identifier) Components() redact.RedactableString {
	return redact.Sprintf("\n group: %s\n type: %s\n name: %s\n scope: %s",
		redact.SafeString(id.Group), redact.SafeString(id.Type),
		redact.SafeString(id.Name), redact.SafeString(id.Scope))
}

// ParseMBeanName is the inverse of Identifier.MBeanName. It accepts the
// properties type, scope and name in any order; type is mandatory. Values
// cannot contain ',' or '='.
func ParseMBeanName(s string) (Identifier, error) {
	group, props, ok := strings.Cut(s, ":")
	if !ok {
		return Identifier{}, errors.Newf("mbean name %q: missing ':' after group", s)
	}
	var id Identifier
	id.Group = group
	var seen [3]bool
	for _, prop := range strings.Split(props, ",") {
		key, val, ok := strings.Cut(prop, "=")
		if !ok {
			return Identifier{}, errors.Newf("mbean name %q: property %q is not key=value", s, prop)
		}
		var idx int
		switch key {
		case "type":
			id.Type, idx = val, 0
		case "scope":
			id.Scope, idx = val, 1
		case "name":
			id.Name, idx = val, 2
		default:
			return Identifier{}, errors.Newf("mbean name %q: unknown property %q", s, key)
		}
		if seen[idx] {
			return Identifier{}, errors.Newf("mbean name %q: duplicate property %q", s, key)
		}
		seen[idx] = true
	}
	if !seen[0] {
		return Identifier{}, errors.Newf("mbean name %q: missing type property", s)
	}
	return id, nil
}
