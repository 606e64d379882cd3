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
	"fmt"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/util/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/graphite"
)

var errNoEndpoint = errors.New("graphite endpoint is not set")

// GraphiteExporter pushes the metrics of a prometheus.Gatherer, usually a
// Collector, to a Graphite or Carbon server.
type GraphiteExporter struct {
	gatherer prometheus.Gatherer
	prefix   string
	useTags  bool
}

// MakeGraphiteExporter returns an initialized graphite exporter. Metric
// paths are prefixed with "<hostname>.kafkametrics".
func MakeGraphiteExporter(g prometheus.Gatherer) GraphiteExporter {
	return GraphiteExporter{gatherer: g}
}

// WithPrefix returns a copy of ge using prefix instead of the default.
func (ge GraphiteExporter) WithPrefix(prefix string) GraphiteExporter {
	ge.prefix = prefix
	return ge
}

// WithTags returns a copy of ge that sends labels as Graphite tags rather
// than as path components.
func (ge GraphiteExporter) WithTags(useTags bool) GraphiteExporter {
	ge.useTags = useTags
	return ge
}

type loggerFunc func(...interface{})

// Println implements graphite.Logger.
func (lf loggerFunc) Println(v ...interface{}) {
	lf(v...)
}

func (ge *GraphiteExporter) bridge(ctx context.Context, endpoint string) (*graphite.Bridge, error) {
	if endpoint == "" {
		return nil, errNoEndpoint
	}
	prefix := ge.prefix
	if prefix == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		prefix = fmt.Sprintf("%s.kafkametrics", h)
	}
	return graphite.NewBridge(&graphite.Config{
		URL:           endpoint,
		Gatherer:      ge.gatherer,
		Prefix:        prefix,
		UseTags:       ge.useTags,
		Timeout:       10 * time.Second,
		ErrorHandling: graphite.AbortOnError,
		Logger: loggerFunc(func(args ...interface{}) {
			log.InfofDepth(ctx, 1, "%s", fmt.Sprint(args...))
		}),
	})
}

// Push sends the current metrics to the Graphite or Carbon server at
// endpoint once.
func (ge *GraphiteExporter) Push(ctx context.Context, endpoint string) error {
	b, err := ge.bridge(ctx, endpoint)
	if err != nil {
		return err
	}
	return errors.Wrapf(b.Push(), "pushing metrics to %s", endpoint)
}

// Run pushes metrics every interval until ctx is canceled. Failed pushes
// are logged; the receiver timestamps metrics on arrival, so a missed push
// leaves a gap and is not retried.
func (ge *GraphiteExporter) Run(ctx context.Context, endpoint string, interval time.Duration) error {
	if interval <= 0 {
		return errors.Newf("invalid graphite interval %s", interval)
	}
	if _, err := ge.bridge(ctx, endpoint); err != nil {
		return err
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := ge.Push(ctx, endpoint); err != nil {
				log.Warningf(ctx, "%v", err)
			}
		}
	}
}
