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
	"bytes"
	"io"
	"net"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/kafkametrics"
	"gopkg.in/yaml.v3"
)

// Supported Kafka client libraries.
const (
	ClientSarama = "sarama"
	ClientFranz  = "franz"
)

// Config is the configuration of the watch command. It is read from a YAML
// file and overridden by command-line flags.
type Config struct {
	// Brokers are the seed brokers, as host:port.
	Brokers []string `yaml:"brokers"`
	// Client selects the Kafka client library whose metrics are watched.
	Client string `yaml:"client"`
	// ClientID is the Kafka client ID.
	ClientID string `yaml:"client-id"`
	// GroupPrefix is the identifier group prefix of the watched metrics.
	GroupPrefix string `yaml:"group-prefix"`
	// RefreshInterval is how often cluster metadata is requested, generating
	// client activity and hence metrics.
	RefreshInterval time.Duration `yaml:"refresh-interval"`

	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Graphite GraphiteConfig `yaml:"graphite"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity  int  `yaml:"verbosity"`
	Redactable bool `yaml:"redactable"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address of the /metrics endpoint. Empty disables
	// it.
	Addr      string `yaml:"addr"`
	Namespace string `yaml:"namespace"`
}

// GraphiteConfig configures pushing to Graphite.
type GraphiteConfig struct {
	// Endpoint is the host:port of the Graphite or Carbon server. Empty
	// disables pushing.
	Endpoint string        `yaml:"endpoint"`
	Interval time.Duration `yaml:"interval"`
	Prefix   string        `yaml:"prefix"`
	UseTags  bool          `yaml:"use-tags"`
}

// DefaultConfig returns the configuration used for settings that are
// neither in the configuration file nor on the command line.
func DefaultConfig() Config {
	return Config{
		Client:          ClientSarama,
		ClientID:        "kafka-metrics",
		GroupPrefix:     kafkametrics.DefaultGroupPrefix,
		RefreshInterval: 10 * time.Second,
		Graphite: GraphiteConfig{
			Interval: 10 * time.Second,
		},
	}
}

// ParseConfig decodes YAML on top of the defaults. Unknown keys are
// rejected.
func ParseConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, errors.Wrap(err, "parsing configuration")
	}
	return cfg, nil
}

// LoadConfig reads the configuration file at path. An empty path yields
// the defaults.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "reading configuration")
	}
	cfg, err := ParseConfig(bytes.NewReader(data))
	return cfg, errors.Wrapf(err, "%s", path)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("no brokers configured")
	}
	for _, b := range c.Brokers {
		if _, _, err := net.SplitHostPort(b); err != nil {
			return errors.Wrapf(err, "invalid broker address %q", b)
		}
	}
	switch c.Client {
	case ClientSarama, ClientFranz:
	default:
		return errors.Newf("unknown client %q, expected one of %s",
			c.Client, strings.Join([]string{ClientSarama, ClientFranz}, ", "))
	}
	if c.RefreshInterval <= 0 {
		return errors.Newf("refresh interval must be positive, got %s", c.RefreshInterval)
	}
	if c.Log.Verbosity < 0 {
		return errors.Newf("verbosity must not be negative, got %d", c.Log.Verbosity)
	}
	if c.Metrics.Addr != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Addr); err != nil {
			return errors.Wrapf(err, "invalid metrics address %q", c.Metrics.Addr)
		}
	}
	if c.Graphite.Endpoint != "" {
		if _, _, err := net.SplitHostPort(c.Graphite.Endpoint); err != nil {
			return errors.Wrapf(err, "invalid graphite endpoint %q", c.Graphite.Endpoint)
		}
		if c.Graphite.Interval <= 0 {
			return errors.Newf("graphite interval must be positive, got %s", c.Graphite.Interval)
		}
	}
	return nil
}
