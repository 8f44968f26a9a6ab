package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/pkg/composables"
)

// ResequenceReport lists what the post-commit renumbering did per table.
type ResequenceReport struct {
	Renumbered []domain.Table   `json:"renumbered"`
	Unchanged  []domain.Table   `json:"unchanged"`
	Warnings   []domain.Warning `json:"warnings,omitempty"`
}

// Resequence makes ids contiguous from 1 for each table, each in its own unit of work.
// Failures and skips are reported as warnings and never returned as errors.
func (s *ReloadService) Resequence(ctx context.Context, tables ...domain.Table) ResequenceReport {
	var report ResequenceReport
	for _, table := range tables {
		renumbered, warning := s.resequenceTable(ctx, table)
		if warning != nil {
			report.Warnings = append(report.Warnings, *warning)
			s.log().WithFields(logrus.Fields{
				"table": table,
				"stage": warning.Stage,
			}).Warn(warning.Message)
		}
		switch {
		case renumbered:
			report.Renumbered = append(report.Renumbered, table)
			recordResequence(table, "renumbered")
		case warning != nil:
			recordResequence(table, "skipped")
		default:
			report.Unchanged = append(report.Unchanged, table)
			recordResequence(table, "unchanged")
		}
	}
	return report
}

func (s *ReloadService) resequenceTable(ctx context.Context, table domain.Table) (bool, *domain.Warning) {
	spec, ok := domain.Spec(table)
	if !ok || !spec.AutoID {
		return false, nil
	}

	renumbered := false
	var warning *domain.Warning
	err := composables.InTx[domain.Tx](ctx, s.store, func(ctx context.Context, tx domain.Tx) error {
		count, err := tx.Count(ctx, table)
		if err != nil {
			return err
		}
		if count == 0 {
			return nil
		}
		minID, maxID, err := tx.IDRange(ctx, table)
		if err != nil {
			return err
		}
		if minID == 1 && maxID == count {
			return nil
		}

		var live []string
		for _, dep := range domain.Dependents(table) {
			n, err := tx.Count(ctx, dep)
			if err != nil {
				return err
			}
			if n > 0 {
				live = append(live, fmt.Sprintf("%s (%d rows)", dep, n))
			}
		}
		if len(live) > 0 {
			warning = &domain.Warning{
				Table:   table,
				Stage:   stageResequence,
				Message: "skipped renumbering, referenced by " + strings.Join(live, ", "),
			}
			return nil
		}

		if err := tx.Renumber(ctx, table); err != nil {
			return err
		}
		warning = restartSequence(ctx, tx, table, count+1)
		renumbered = true
		return nil
	})
	if err != nil {
		return false, &domain.Warning{Table: table, Stage: stageResequence, Message: err.Error()}
	}
	return renumbered, warning
}
