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
	"time"

	"github.com/cockroachdb/errors"
	"github.com/cockroachdb/kafkametrics/pkg/cli/cliflags"
	"github.com/spf13/pflag"
)

// watchFlags holds the flag values of the watch command. The values are
// applied over the configuration file only for flags that were set,
// either on the command line or through their environment variable.
type watchFlags struct {
	configPath       string
	brokers          []string
	client           string
	clientID         string
	groupPrefix      string
	refreshInterval  time.Duration
	verbosity        int
	redactable       bool
	metricsAddr      string
	graphiteEndpoint string
	graphiteInterval time.Duration
	once             bool
}

var envFlags = []cliflags.FlagInfo{
	cliflags.Config,
	cliflags.Brokers,
	cliflags.Client,
	cliflags.MetricsAddr,
	cliflags.GraphiteEndpoint,
}

func usage(info cliflags.FlagInfo) string {
	if info.EnvVar == "" {
		return info.Description
	}
	return info.Description + " Environment variable: " + info.EnvVar + "."
}

// register defines the flags in fs. Defaults are those of DefaultConfig so
// that the help output shows them.
func (f *watchFlags) register(fs *pflag.FlagSet) {
	def := DefaultConfig()
	fs.StringVar(&f.configPath, cliflags.Config.Name, "", usage(cliflags.Config))
	fs.StringSliceVar(&f.brokers, cliflags.Brokers.Name, nil, usage(cliflags.Brokers))
	fs.StringVar(&f.client, cliflags.Client.Name, def.Client, usage(cliflags.Client))
	fs.StringVar(&f.clientID, cliflags.ClientID.Name, def.ClientID, usage(cliflags.ClientID))
	fs.StringVar(&f.groupPrefix, cliflags.GroupPrefix.Name, def.GroupPrefix, usage(cliflags.GroupPrefix))
	fs.DurationVar(&f.refreshInterval, cliflags.RefreshInterval.Name, def.RefreshInterval,
		usage(cliflags.RefreshInterval))
	fs.IntVarP(&f.verbosity, cliflags.Verbosity.Name, cliflags.Verbosity.Shorthand, 0,
		usage(cliflags.Verbosity))
	fs.BoolVar(&f.redactable, cliflags.Redactable.Name, false, usage(cliflags.Redactable))
	fs.StringVar(&f.metricsAddr, cliflags.MetricsAddr.Name, "", usage(cliflags.MetricsAddr))
	fs.StringVar(&f.graphiteEndpoint, cliflags.GraphiteEndpoint.Name, "",
		usage(cliflags.GraphiteEndpoint))
	fs.DurationVar(&f.graphiteInterval, cliflags.GraphiteInterval.Name, def.Graphite.Interval,
		usage(cliflags.GraphiteInterval))
	fs.BoolVar(&f.once, cliflags.Once.Name, false, usage(cliflags.Once))
}

// resolve builds the configuration: defaults, then the configuration
// file, then environment variables, then flags.
func (f *watchFlags) resolve(fs *pflag.FlagSet, lookupEnv func(string) (string, bool)) (Config, error) {
	for _, info := range envFlags {
		if fs.Changed(info.Name) {
			continue
		}
		if v, ok := lookupEnv(info.EnvVar); ok && v != "" {
			if err := fs.Set(info.Name, v); err != nil {
				return Config{}, errors.Wrapf(err, "%s", info.EnvVar)
			}
		}
	}

	cfg, err := LoadConfig(f.configPath)
	if err != nil {
		return Config{}, err
	}
	fs.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case cliflags.Brokers.Name:
			cfg.Brokers = f.brokers
		case cliflags.Client.Name:
			cfg.Client = f.client
		case cliflags.ClientID.Name:
			cfg.ClientID = f.clientID
		case cliflags.GroupPrefix.Name:
			cfg.GroupPrefix = f.groupPrefix
		case cliflags.RefreshInterval.Name:
			cfg.RefreshInterval = f.refreshInterval
		case cliflags.Verbosity.Name:
			cfg.Log.Verbosity = f.verbosity
		case cliflags.Redactable.Name:
			cfg.Log.Redactable = f.redactable
		case cliflags.MetricsAddr.Name:
			cfg.Metrics.Addr = f.metricsAddr
		case cliflags.GraphiteEndpoint.Name:
			cfg.Graphite.Endpoint = f.graphiteEndpoint
		case cliflags.GraphiteInterval.Name:
			cfg.Graphite.Interval = f.graphiteInterval
		}
	})
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
