package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jpalmerr/risewatch/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a risewatch configuration file without polling.

This command parses the YAML, expands environment variables, and validates
all fields, including building the target.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  risewatch validate -c risewatch.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	target, err := config.BuildTarget(cfg)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	network := "host"
	if cfg.Network.Static() {
		network = "static " + cfg.Network.Local
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Config is valid!\n")
	fmt.Fprintf(out, "  Target:        %s (%s)\n", target.Name(), target.Host())
	fmt.Fprintf(out, "  Keyword:       %s\n", target.Keyword())
	fmt.Fprintf(out, "  Poll interval: %s\n", cfg.PollInterval.Duration())
	fmt.Fprintf(out, "  Notify lead:   %s\n", cfg.NotifyLead.Duration())
	fmt.Fprintf(out, "  Network:       %s\n", network)
	fmt.Fprintf(out, "  Notifiers:     %s\n", notifierSummary(cfg.Notify))
	return nil
}

func notifierSummary(nc config.NotifyConfig) string {
	s := ""
	add := func(name string) {
		if s != "" {
			s += ", "
		}
		s += name
	}
	if nc.Log {
		add("log")
	}
	if nc.Bell != nil {
		add("bell")
	}
	if nc.Command != nil {
		add("command " + nc.Command.Path)
	}
	if s == "" {
		return "log (default)"
	}
	return s
}
