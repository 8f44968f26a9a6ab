package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/iota-uz/training-sdk/modules/training/services"
)

const (
	sourceWorkbook      = "workbook"
	sourceCompetencies  = "competencies"
	sourceRelationships = "relationships"

	statusDryRun  = "dry_run"
	statusApplied = "applied"
)

type reloadOptions struct {
	file  string
	apply bool
}

func newReloadCmd(a *app) *cobra.Command {
	var opts reloadOptions

	cmd := &cobra.Command{
		Use:   "reload <workbook.xlsx>",
		Short: "Replace trainers, training details and employee competencies from a workbook",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return a.runWorkbook(cmd, sourceWorkbook, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run)")
	return cmd
}

func newCompetenciesCmd(a *app) *cobra.Command {
	var opts reloadOptions

	cmd := &cobra.Command{
		Use:   "competencies <workbook.xlsx>",
		Short: "Replace employee competencies only, from the Employee Competency sheet",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return a.runWorkbook(cmd, sourceCompetencies, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run)")
	return cmd
}

func (a *app) runWorkbook(cmd *cobra.Command, source string, opts reloadOptions) error {
	return a.runReload(cmd, source, opts, func(ctx context.Context, svc *services.ReloadService, r io.Reader) (any, error) {
		if source == sourceCompetencies {
			return svc.ReloadCompetenciesFromWorkbook(ctx, r)
		}
		return svc.ReloadFromWorkbook(ctx, r)
	})
}

type reloadFunc func(ctx context.Context, svc *services.ReloadService, r io.Reader) (any, error)

func (a *app) runReload(cmd *cobra.Command, source string, opts reloadOptions, run reloadFunc) error {
	ctx := cmd.Context()

	f, err := openInput(opts.file)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	h, err := a.openStore(ctx, opts.apply)
	if err != nil {
		return err
	}
	defer h.close()

	svc, err := a.newService(h.store, source)
	if err != nil {
		return err
	}
	result, err := run(ctx, svc, f)
	if err != nil {
		return withCode(importExitCode(err), err)
	}

	status := statusDryRun
	if opts.apply {
		status = statusApplied
	}
	return writeJSONLine(cmd.OutOrStdout(), runSummary{
		Status: status,
		Source: source,
		File:   opts.file,
		Apply:  opts.apply,
		Driver: h.driver,
		Result: result,
	})
}
