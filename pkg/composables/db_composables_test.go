package composables

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTx struct {
	committed   bool
	rolledBack  bool
	rollbackErr error
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	t.rolledBack = true
	return t.rollbackErr
}

type fakeDB struct {
	tx       *fakeTx
	beginErr error
}

func (d *fakeDB) Begin(context.Context) (*fakeTx, error) {
	if d.beginErr != nil {
		return nil, d.beginErr
	}
	return d.tx, nil
}

func TestInTx(t *testing.T) {
	t.Parallel()

	t.Run("commits on success", func(t *testing.T) {
		t.Parallel()
		db := &fakeDB{tx: &fakeTx{}}
		require.NoError(t, InTx[*fakeTx](context.Background(), db, func(context.Context, *fakeTx) error { return nil }))
		assert.True(t, db.tx.committed)
		assert.False(t, db.tx.rolledBack)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		db := &fakeDB{tx: &fakeTx{}}
		err := InTx[*fakeTx](context.Background(), db, func(context.Context, *fakeTx) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.False(t, db.tx.committed)
		assert.True(t, db.tx.rolledBack)
	})

	t.Run("joins rollback failure", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		rbErr := errors.New("conn closed")
		db := &fakeDB{tx: &fakeTx{rollbackErr: rbErr}}
		err := InTx[*fakeTx](context.Background(), db, func(context.Context, *fakeTx) error { return boom })
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, rbErr)
	})

	t.Run("begin failure", func(t *testing.T) {
		t.Parallel()
		beginErr := errors.New("pool exhausted")
		called := false
		err := InTx[*fakeTx](context.Background(), &fakeDB{beginErr: beginErr}, func(context.Context, *fakeTx) error {
			called = true
			return nil
		})
		require.ErrorIs(t, err, beginErr)
		assert.False(t, called)
	})
}
