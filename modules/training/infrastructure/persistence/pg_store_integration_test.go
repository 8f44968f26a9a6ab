package persistence_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/persistence"
	"github.com/iota-uz/training-sdk/pkg/itf"
)

func trainerRecords(names ...string) []domain.Record {
	out := make([]domain.Record, len(names))
	for i, n := range names {
		out[i] = domain.TrainerRecord{Skill: "Go", Competency: "Backend", TrainerName: n, ExpertiseLevel: "L1"}
	}
	return out
}

// storesUnderTest runs fn against both client libraries on the same migrated database.
func storesUnderTest(t *testing.T, fn func(t *testing.T, store domain.Store)) {
	t.Helper()
	itf.RequirePostgres(t)

	pool := itf.NewMigratedPool(t)
	dbName := t.Name()
	t.Run("pgx", func(t *testing.T) {
		fn(t, persistence.NewPgStore(pool))
	})
	t.Run("lib/pq", func(t *testing.T) {
		db, err := sql.Open("postgres", itf.DbOpts(dbName))
		require.NoError(t, err)
		t.Cleanup(func() { _ = db.Close() })
		fn(t, persistence.NewSQLStore(db))
	})
}

func TestStore_ReplaceAndResequence_Integration(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()

		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		_, err = tx.DeleteAll(ctx, domain.TableTrainers)
		require.NoError(t, err)
		require.NoError(t, tx.RestartSequence(ctx, "trainers_id_seq", 10))
		counts, err := tx.Insert(ctx, trainerRecords("Alice", "Bob", "Carol"))
		require.NoError(t, err)
		assert.Equal(t, int64(3), counts[domain.TableTrainers])
		require.NoError(t, tx.Commit(ctx))

		tx, err = store.Begin(ctx)
		require.NoError(t, err)
		lo, hi, err := tx.IDRange(ctx, domain.TableTrainers)
		require.NoError(t, err)
		assert.Equal(t, int64(10), lo)
		assert.Equal(t, int64(12), hi)

		require.NoError(t, tx.Renumber(ctx, domain.TableTrainers))
		lo, hi, err = tx.IDRange(ctx, domain.TableTrainers)
		require.NoError(t, err)
		assert.Equal(t, int64(1), lo)
		assert.Equal(t, int64(3), hi)
		require.NoError(t, tx.Commit(ctx))
	})
}

func TestStore_SequenceLookups_Integration(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()

		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		ok, err := tx.SequenceExists(ctx, "trainers_id_seq")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.SequenceExists(ctx, "nope_id_seq")
		require.NoError(t, err)
		assert.False(t, ok)

		name, err := tx.FindSequence(ctx, "%employee_competency%id%")
		require.NoError(t, err)
		assert.Equal(t, "employee_competency_id_seq", name)

		// A failed restart must leave the transaction usable.
		require.Error(t, tx.RestartSequence(ctx, "nope_id_seq", 1))
		_, err = tx.Count(ctx, domain.TableTrainers)
		require.NoError(t, err)
	})
}

func TestStore_ForeignKeyViolation_Integration(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()

		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		_, err = tx.Insert(ctx, []domain.Record{domain.RelationshipRecord{ManagerEmpID: "ghost", EmployeeEmpID: "ghost2"}})
		require.ErrorIs(t, err, domain.ErrConstraintViolation)

		var ce *domain.ConstraintError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, "23503", ce.Code)
	})
}

func TestStore_Users_Integration(t *testing.T) {
	storesUnderTest(t, func(t *testing.T, store domain.Store) {
		ctx := context.Background()
		suffix := strings.ReplaceAll(t.Name(), "/", "_")

		tx, err := store.Begin(ctx)
		require.NoError(t, err)
		defer func() { _ = tx.Rollback(ctx) }()

		m, e := "M-"+suffix, "E-"+suffix
		_, err = tx.Insert(ctx, []domain.Record{
			domain.Identity{Username: m, HashedPassword: "x", CreatedAt: time.Now().UTC()},
			domain.Identity{Username: e, HashedPassword: "x", CreatedAt: time.Now().UTC()},
			domain.RelationshipRecord{ManagerEmpID: m, EmployeeEmpID: e, ManagerIsTrainer: true},
		})
		require.NoError(t, err)

		found, err := tx.ExistingUsernames(ctx, []string{m, "unknown"})
		require.NoError(t, err)
		assert.Equal(t, map[string]struct{}{m: {}}, found)

		_, err = tx.DeleteAll(ctx, domain.TableUsers)
		require.ErrorIs(t, err, domain.ErrConstraintViolation)
	})
}
