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
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/cockroachdb/kafkametrics/pkg/build"
	"github.com/cockroachdb/kafkametrics/pkg/cli/clierror"
	"github.com/cockroachdb/kafkametrics/pkg/cli/cliflags"
	"github.com/cockroachdb/kafkametrics/pkg/cli/exit"
	"github.com/spf13/cobra"
)

// Proxy to allow overrides in tests.
var osStderr = os.Stderr

var versionIncludesDeps bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "output version information",
	Long: `
Output build version information.
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		info := build.GetInfo()
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 2, 1, 2, ' ', 0)
		fmt.Fprintf(tw, "Build Tag:\t%s\n", info.Tag)
		fmt.Fprintf(tw, "Build Time:\t%s\n", info.Time)
		fmt.Fprintf(tw, "Revision:\t%s\n", info.Revision)
		fmt.Fprintf(tw, "Platform:\t%s\n", info.Platform)
		fmt.Fprintf(tw, "Go Version:\t%s\n", info.GoVersion)
		if versionIncludesDeps {
			fmt.Fprintf(tw, "Build Deps:\n\t%s\n", strings.Join(info.Dependencies, "\n\t"))
		}
		_ = tw.Flush()
	},
}

var kafkaMetricsCmd = &cobra.Command{
	Use:   "kafka-metrics [command] (flags)",
	Short: "Kafka client metrics watcher",
	Long: `
Watch the metrics a Kafka client library registers and export them to
Prometheus and Graphite.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.EnableCommandSorting = false

	versionCmd.Flags().BoolVar(&versionIncludesDeps, cliflags.Deps.Name, false, cliflags.Deps.Description)
	watchFlagValues.register(watchCmd.Flags())

	kafkaMetricsCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierror.NewError(err, exit.CommandLineFlagError())
	})
	kafkaMetricsCmd.AddCommand(
		watchCmd,

		// Miscellaneous commands.
		versionCmd,
	)
}

// Main is the entry point of the kafka-metrics binary.
func Main() {
	err := Run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(osStderr, "ERROR: %v\n", err)
	}
	os.Exit(clierror.GetExitCode(err).Int())
}

// Run executes the command line given by args.
func Run(args []string) error {
	kafkaMetricsCmd.SetArgs(args)
	return kafkaMetricsCmd.Execute()
}
