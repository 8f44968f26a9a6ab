package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/iota-uz/training-sdk/migrations"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the training schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeFn, err := a.openSQLDB(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			applied, err := migrations.Up(ctx, db)
			if err != nil {
				return withCode(exitDBWrite, fmt.Errorf("migrate up: %w", err))
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{
				"status":  "migrated",
				"applied": applied,
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, closeFn, err := a.openSQLDB(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			p, err := migrations.NewProvider(db)
			if err != nil {
				return withCode(exitDB, err)
			}
			statuses, err := p.Status(ctx)
			if err != nil {
				return withCode(exitDB, fmt.Errorf("migrate status: %w", err))
			}

			type migrationStatus struct {
				Version   int64      `json:"version"`
				Path      string     `json:"path"`
				State     string     `json:"state"`
				AppliedAt *time.Time `json:"applied_at,omitempty"`
			}
			out := make([]migrationStatus, 0, len(statuses))
			for _, s := range statuses {
				ms := migrationStatus{
					Version: s.Source.Version,
					Path:    s.Source.Path,
					State:   string(s.State),
				}
				if !s.AppliedAt.IsZero() {
					at := s.AppliedAt
					ms.AppliedAt = &at
				}
				out = append(out, ms)
			}
			return writeJSONLine(cmd.OutOrStdout(), map[string]any{"migrations": out})
		},
	})
	return cmd
}
