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

// Package cliflags describes the command-line flags of kafka-metrics.
package cliflags

// FlagInfo contains the static information for a CLI flag.
type FlagInfo struct {
	// Name of the flag as used on the command line.
	Name string
	// Shorthand is the short form of the flag (optional).
	Shorthand string
	// EnvVar is the name of the environment variable, if any, that
	// provides the value when the flag is not given.
	EnvVar string
	// Description of the flag.
	Description string
}

// Flags of the watch command.
var (
	Config = FlagInfo{
		Name:        "config",
		EnvVar:      "KAFKA_METRICS_CONFIG",
		Description: `Path of a YAML configuration file. Flags take precedence over the file.`,
	}

	Brokers = FlagInfo{
		Name:        "brokers",
		EnvVar:      "KAFKA_METRICS_BROKERS",
		Description: `A comma-separated list of seed brokers (host:port).`,
	}

	Client = FlagInfo{
		Name:        "client",
		EnvVar:      "KAFKA_METRICS_CLIENT",
		Description: `Kafka client library whose metrics are watched: "sarama" or "franz".`,
	}

	ClientID = FlagInfo{
		Name:        "client-id",
		Description: `Kafka client ID.`,
	}

	GroupPrefix = FlagInfo{
		Name:        "group-prefix",
		Description: `Only metrics whose identifier group starts with this prefix are watched.`,
	}

	RefreshInterval = FlagInfo{
		Name:        "refresh-interval",
		Description: `How often to request cluster metadata.`,
	}

	Verbosity = FlagInfo{
		Name:        "verbosity",
		Shorthand:   "v",
		Description: `Log verbosity. At 1 and above tracked metrics are logged.`,
	}

	Redactable = FlagInfo{
		Name:        "redactable-logs",
		Description: `Keep redaction markers around sensitive data in the log output.`,
	}

	MetricsAddr = FlagInfo{
		Name:        "metrics-addr",
		EnvVar:      "KAFKA_METRICS_ADDR",
		Description: `Listen address of the Prometheus /metrics endpoint. Empty disables it.`,
	}

	GraphiteEndpoint = FlagInfo{
		Name:        "graphite-endpoint",
		EnvVar:      "KAFKA_METRICS_GRAPHITE_ENDPOINT",
		Description: `Graphite or Carbon server (host:port) to push metrics to.`,
	}

	GraphiteInterval = FlagInfo{
		Name:        "graphite-interval",
		Description: `How often to push metrics to Graphite.`,
	}

	Once = FlagInfo{
		Name: "once",
		Description: `
Refresh metadata once, print the watched metrics in the Prometheus
text format and exit.`,
	}

	Deps = FlagInfo{
		Name:        "deps",
		Description: `Include the linked modules in the version output.`,
	}
)
