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

package cli

import (
	"context"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IBM/sarama"
	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/cli/clierror"
	"github.com/cockroachdb/kafkametrics/pkg/cli/exit"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics/franzmetrics"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics/saramametrics"
	"github.com/cockroachdb/kafkametrics/pkg/metric/export"
	"github.com/cockroachdb/kafkametrics/pkg/metric/registry"
	"github.com/cockroachdb/kafkametrics/pkg/metric/subset"
	"github.com/cockroachdb/kafkametrics/pkg/util/log"
	"github.com/cockroachdb/logtags"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"
)

var watchFlagValues watchFlags

var watchCmd = &cobra.Command{
	Use:   "watch [flags]",
	Short: "watch the metrics of a Kafka client",
	Long: `
Connect a Kafka client to the given brokers and track the metrics it
registers. Cluster metadata is refreshed periodically to keep the client
active. The tracked metrics are served on a Prometheus endpoint and pushed
to Graphite when configured.
`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := watchFlagValues.resolve(cmd.Flags(), os.LookupEnv)
	if err != nil {
		return clierror.NewError(err, exit.CommandLineFlagError())
	}
	log.SetVerbosity(log.Level(cfg.Log.Verbosity))
	log.SetRedactable(cfg.Log.Redactable)
	if cfg.Log.Verbosity >= 2 {
		sarama.Logger = log.NewStdLogger(log.InfoLog, "sarama")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if watchFlagValues.once {
		return snapshot(ctx, cfg, cmd.OutOrStdout())
	}
	return watch(ctx, cfg)
}

// kafkaClient is a connected client of one of the supported libraries.
type kafkaClient interface {
	// refresh requests cluster metadata.
	refresh(ctx context.Context) error
	close(ctx context.Context)
}

type saramaClient struct {
	client sarama.Client
}

func (c *saramaClient) refresh(context.Context) error {
	return c.client.RefreshMetadata()
}

func (c *saramaClient) close(ctx context.Context) {
	if err := c.client.Close(); err != nil {
		log.Warningf(ctx, "closing sarama client: %v", err)
	}
}

type franzClient struct {
	client *kgo.Client
}

func (c *franzClient) refresh(ctx context.Context) error {
	return c.client.Ping(ctx)
}

func (c *franzClient) close(context.Context) {
	c.client.Close()
}

// dial connects a client of the configured library whose metrics are
// registered in reg.
func dial(ctx context.Context, cfg Config, reg *registry.Observed) (kafkaClient, error) {
	switch cfg.Client {
	case ClientSarama:
		client, err := sarama.NewClient(cfg.Brokers, saramametrics.NewConfig(cfg.ClientID, reg))
		if err != nil {
			return nil, errors.Wrap(err, "connecting sarama client")
		}
		return &saramaClient{client: client}, nil
	case ClientFranz:
		opts := []kgo.Opt{
			kgo.SeedBrokers(cfg.Brokers...),
			kgo.ClientID(cfg.ClientID),
			kgo.WithHooks(franzmetrics.NewHooks(reg)),
		}
		if log.V(2) {
			opts = append(opts, kgo.WithLogger(&franzLogger{ctx: ctx}))
		}
		client, err := kgo.NewClient(opts...)
		if err != nil {
			return nil, errors.Wrap(err, "creating franz-go client")
		}
		if err := client.Ping(ctx); err != nil {
			client.Close()
			return nil, errors.Wrap(err, "connecting franz-go client")
		}
		return &franzClient{client: client}, nil
	default:
		return nil, errors.AssertionFailedf("unknown client %q", cfg.Client)
	}
}

// franzLogger forwards franz-go log lines to the log package.
type franzLogger struct {
	ctx context.Context
}

var _ kgo.Logger = (*franzLogger)(nil)

func (l *franzLogger) Level() kgo.LogLevel {
	if log.V(3) {
		return kgo.LogLevelDebug
	}
	return kgo.LogLevelInfo
}

func (l *franzLogger) Log(level kgo.LogLevel, msg string, keyvals ...interface{}) {
	switch level {
	case kgo.LogLevelError:
		log.Errorf(l.ctx, "%s %v", msg, keyvals)
	case kgo.LogLevelWarn:
		log.Warningf(l.ctx, "%s %v", msg, keyvals)
	default:
		log.Infof(l.ctx, "%s %v", msg, keyvals)
	}
}

// logSubscriber logs the metrics the watcher starts and stops tracking.
type logSubscriber struct {
	ctx context.Context
}

func (s *logSubscriber) OnMetricAdded(e *subset.Entry) {
	log.VEventf(s.ctx, 1, "tracking %s", e)
}

func (s *logSubscriber) OnMetricRemoved(e *subset.Entry) {
	log.VEventf(s.ctx, 1, "no longer tracking %s", e)
}

// session ties a client to the watcher tracking its metrics.
type session struct {
	watcher   *kafkametrics.Watcher
	collector *export.Collector
	client    kafkaClient
}

func startSession(ctx context.Context, cfg Config) (*session, error) {
	ctx = logtags.AddTag(ctx, "client", cfg.Client)
	reg := registry.NewObserved(nil, registry.WithNamer(saramametrics.Namer))
	s := &session{collector: export.NewCollector(cfg.Metrics.Namespace)}
	s.watcher = kafkametrics.NewWatcher(ctx, reg,
		kafkametrics.WithFilter(kafkametrics.GroupPrefixFilter(cfg.GroupPrefix)),
		kafkametrics.WithExtractor(saramametrics.Extractor),
		kafkametrics.WithSubscriber(s.collector),
		kafkametrics.WithSubscriber(&logSubscriber{ctx: ctx}),
	)
	client, err := dial(ctx, cfg, reg)
	if err != nil {
		s.watcher.Close()
		return nil, clierror.NewError(err, exit.KafkaUnavailable())
	}
	s.client = client
	log.Infof(ctx, "connected to %d seed brokers", len(cfg.Brokers))
	return s, nil
}

// close closes the client first so that the removal of its metrics
// reaches the subscribers.
func (s *session) close(ctx context.Context) {
	s.client.close(ctx)
	s.watcher.Close()
	log.Infof(ctx, "watcher stopped: %s", s.watcher.Stats())
}

// snapshot refreshes the metadata once and prints the watched metrics.
func snapshot(ctx context.Context, cfg Config, out io.Writer) error {
	s, err := startSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)
	if err := s.client.refresh(ctx); err != nil {
		if ctx.Err() != nil {
			return clierror.NewError(errors.Wrap(ctx.Err(), "snapshot interrupted"), exit.Interrupted())
		}
		return errors.Wrap(err, "refreshing metadata")
	}
	return s.collector.PrintAsText(out)
}

// watch runs until ctx is canceled or one of its tasks fails.
func watch(ctx context.Context, cfg Config) error {
	s, err := startSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close(ctx)

	var ln net.Listener
	if cfg.Metrics.Addr != "" {
		ln, err = net.Listen("tcp", cfg.Metrics.Addr)
		if err != nil {
			return clierror.NewError(
				errors.Wrapf(err, "listening on %s", cfg.Metrics.Addr), exit.CommandLineFlagError())
		}
		log.Infof(ctx, "serving metrics at http://%s/metrics", ln.Addr())
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return refreshLoop(ctx, s, cfg.RefreshInterval)
	})
	if ln != nil {
		srv := newMetricsServer(s.collector)
		g.Go(func() error {
			<-ctx.Done()
			return srv.Shutdown(context.Background())
		})
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return errors.Wrap(err, "serving metrics")
			}
			return nil
		})
	}
	if cfg.Graphite.Endpoint != "" {
		ge := export.MakeGraphiteExporter(s.collector).
			WithPrefix(cfg.Graphite.Prefix).
			WithTags(cfg.Graphite.UseTags)
		g.Go(func() error {
			return ge.Run(ctx, cfg.Graphite.Endpoint, cfg.Graphite.Interval)
		})
	}
	return g.Wait()
}

func newMetricsServer(c *export.Collector) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	return &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func refreshLoop(ctx context.Context, s *session, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	every := log.Every(time.Minute)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := s.client.refresh(ctx); err != nil && ctx.Err() == nil {
				log.Warningf(ctx, "refreshing metadata: %v", err)
			}
			if every.ShouldLog() {
				log.Infof(ctx, "watching %d metrics: %s", s.collector.Len(), s.watcher.Stats())
			}
		}
	}
}
