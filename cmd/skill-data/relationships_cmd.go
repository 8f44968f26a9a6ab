package main

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/iota-uz/training-sdk/modules/training/services"
)

func newRelationshipsCmd(a *app) *cobra.Command {
	var opts reloadOptions

	cmd := &cobra.Command{
		Use:   "relationships <manager_employee.csv>",
		Short: "Replace manager/employee relationships from a CSV file, creating missing accounts",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.file = args[0]
			return a.runReload(cmd, sourceRelationships, opts, func(ctx context.Context, svc *services.ReloadService, r io.Reader) (any, error) {
				return svc.ReloadRelationshipsFromCSV(ctx, r)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.apply, "apply", false, "Apply changes to DB (default is dry-run)")
	return cmd
}
