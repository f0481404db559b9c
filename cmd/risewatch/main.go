// Package main is the entry point for the risewatch CLI.
//
// risewatch can be used as a library (SDK) or as a standalone binary driven
// by a YAML configuration file. This CLI provides the standalone binary.
//
// Usage:
//
//	risewatch run -c config.yaml         # Poll and notify
//	risewatch validate -c config.yaml    # Validate configuration
//	risewatch extract -k risetime f.json # Try the extractor on a saved body
//	risewatch version                    # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "risewatch",
	Short: "Notify ahead of an event announced by an HTTP API",
	Long: `risewatch polls an HTTP API for the time of an upcoming event and
notifies shortly before it happens.

The response is searched for "<keyword>": and the value after it is read as
Unix seconds. The classic use is the ISS pass API: notify ten minutes before
the station rises over your location.

Quick start:
  1. Create a config file (risewatch.yaml)
  2. Run: risewatch run -c risewatch.yaml

Example config:
  target:
    url: http://api.open-notify.org/iss-pass.json?lat=45.5&lon=-73.6&n=1
    keyword: risetime
  poll_interval: 1h
  notify_lead: 10m`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this risewatch binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "risewatch %s\n", version)
		fmt.Fprintf(out, "  commit: %s\n", commit)
		fmt.Fprintf(out, "  built:  %s\n", date)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
