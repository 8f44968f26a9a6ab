package composables

import (
	"context"
	"errors"
)

// Tx is the part of a unit of work InTx drives.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type TxBeginner[T Tx] interface {
	Begin(ctx context.Context) (T, error)
}

// InTx runs fn in a new transaction. It commits when fn succeeds and rolls back otherwise.
func InTx[T Tx](ctx context.Context, db TxBeginner[T], fn func(context.Context, T) error) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rErr := tx.Rollback(ctx); rErr != nil {
			return errors.Join(err, rErr)
		}
		return err
	}
	return tx.Commit(ctx)
}
