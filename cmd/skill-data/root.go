package main

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/iota-uz/training-sdk/pkg/configuration"
)

// app holds what every subcommand shares once configuration is loaded.
type app struct {
	envFiles []string
	cfg      *configuration.Configuration
}

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "skill-data",
		Short:         "Training and skill-tracking bulk reload tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configuration.Load(a.envFiles...)
			if err != nil {
				return withCode(exitUsage, fmt.Errorf("configuration: %w", err))
			}
			a.cfg = cfg
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&a.envFiles, "env-file", nil, "Env files to load (default: .env,.env.local)")

	cmd.AddCommand(newReloadCmd(a))
	cmd.AddCommand(newCompetenciesCmd(a))
	cmd.AddCommand(newRelationshipsCmd(a))
	cmd.AddCommand(newMigrateCmd(a))
	return cmd
}

// close flushes metrics to the configured textfile and releases the log file.
func (a *app) close() {
	if a.cfg == nil {
		return
	}
	if path := a.cfg.MetricsTextfile; path != "" {
		if err := prometheus.WriteToTextfile(path, prometheus.DefaultGatherer); err != nil {
			a.cfg.Logger().WithError(err).Warn("write metrics textfile")
		}
	}
	a.cfg.Unload()
}

func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return withCode(exitUsage, cobra.ExactArgs(n)(cmd, args))
	}
}

func Execute() {
	a := &app{}
	err := newRootCmd(a).Execute()
	a.close()
	if err != nil {
		code := exitCode(err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(code)
	}
}
