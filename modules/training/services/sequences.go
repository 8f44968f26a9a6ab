package services

import (
	"context"
	"fmt"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

const (
	stageSequenceRestart = "sequence_restart"
	stageResequence      = "resequence"
)

// sequenceLookup finds the sequence backing a table's id; "" means this lookup found none.
type sequenceLookup struct {
	name string
	find func(ctx context.Context, tx domain.Tx, spec domain.TableSpec) (string, error)
}

// sequenceLookups run in order; when all come up empty the restart is skipped with a warning.
var sequenceLookups = []sequenceLookup{
	{name: "conventional_name", find: tryConventionalName},
	{name: "schema_pattern", find: queryBySchemaPattern},
}

func tryConventionalName(ctx context.Context, tx domain.Tx, spec domain.TableSpec) (string, error) {
	name := spec.SequenceName()
	ok, err := tx.SequenceExists(ctx, name)
	if err != nil || !ok {
		return "", err
	}
	return name, nil
}

func queryBySchemaPattern(ctx context.Context, tx domain.Tx, spec domain.TableSpec) (string, error) {
	return tx.FindSequence(ctx, "%"+string(spec.Name)+"%id%")
}

// restartSequence positions the table's id sequence at next. It never fails the caller.
func restartSequence(ctx context.Context, tx domain.Tx, table domain.Table, next int64) *domain.Warning {
	spec, ok := domain.Spec(table)
	if !ok || !spec.AutoID {
		return nil
	}
	for _, lookup := range sequenceLookups {
		name, err := lookup.find(ctx, tx, spec)
		if err != nil {
			return &domain.Warning{
				Table:   table,
				Stage:   stageSequenceRestart,
				Message: fmt.Sprintf("%s lookup failed: %v", lookup.name, err),
			}
		}
		if name == "" {
			continue
		}
		if err := tx.RestartSequence(ctx, name, next); err != nil {
			return &domain.Warning{
				Table:   table,
				Stage:   stageSequenceRestart,
				Message: fmt.Sprintf("restart %s: %v", name, err),
			}
		}
		return nil
	}
	return &domain.Warning{Table: table, Stage: stageSequenceRestart, Message: "no id sequence found"}
}
