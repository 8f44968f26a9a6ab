package persistence

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

func newMockStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sqlmock expectations: %v", err)
		}
		_ = db.Close()
	})
	return NewSQLStore(db), mock
}

func beginMock(t *testing.T, store *SQLStore, mock sqlmock.Sqlmock) domain.Tx {
	t.Helper()

	mock.ExpectBegin()
	tx, err := store.Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestSQLStore_DeleteAll(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tx := beginMock(t, store, mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "trainers"`)).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	n, err := tx.DeleteAll(context.Background(), domain.TableTrainers)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, tx.Commit(context.Background()))
}

func TestSQLStore_DeleteAllMapsForeignKeyViolation(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tx := beginMock(t, store, mock)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "users"`)).WillReturnError(&pq.Error{
		Code:       "23503",
		Constraint: "manager_employee_manager_empid_fkey",
		Table:      "manager_employee",
	})
	mock.ExpectRollback()

	_, err := tx.DeleteAll(context.Background(), domain.TableUsers)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	var ce *domain.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "manager_employee_manager_empid_fkey", ce.Constraint)
	require.NoError(t, tx.Rollback(context.Background()))
}

func TestSQLStore_InsertCopiesPerTable(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tx := beginMock(t, store, mock)

	prep := mock.ExpectPrepare(regexp.QuoteMeta(
		`COPY "trainers" ("skill", "competency", "trainer_name", "expertise_level") FROM STDIN`,
	))
	prep.ExpectExec().WithArgs("Go", "Backend", "Alice", "L3").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WithArgs("Rust", "Systems", domain.NotAssigned, "L2").WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))

	counts, err := tx.Insert(context.Background(), []domain.Record{
		domain.TrainerRecord{Skill: "Go", Competency: "Backend", TrainerName: "Alice", ExpertiseLevel: "L3"},
		domain.TrainerRecord{Skill: "Rust", Competency: "Systems", TrainerName: domain.NotAssigned, ExpertiseLevel: "L2"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Table]int64{domain.TableTrainers: 2}, counts)
}

func TestSQLStore_RestartSequence(t *testing.T) {
	t.Parallel()

	t.Run("released on success", func(t *testing.T) {
		t.Parallel()

		store, mock := newMockStore(t)
		tx := beginMock(t, store, mock)

		mock.ExpectExec("^SAVEPOINT restart_sequence$").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`ALTER SEQUENCE "trainers_id_seq" RESTART WITH 1`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec("^RELEASE SAVEPOINT restart_sequence$").WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, tx.RestartSequence(context.Background(), "trainers_id_seq", 1))
	})

	t.Run("rolled back to savepoint on failure", func(t *testing.T) {
		t.Parallel()

		store, mock := newMockStore(t)
		tx := beginMock(t, store, mock)

		denied := &pq.Error{Code: "42501", Message: "must be owner of sequence"}
		mock.ExpectExec("^SAVEPOINT restart_sequence$").WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`ALTER SEQUENCE "trainers_id_seq"`)).WillReturnError(denied)
		mock.ExpectExec("^ROLLBACK TO SAVEPOINT restart_sequence$").WillReturnResult(sqlmock.NewResult(0, 0))

		err := tx.RestartSequence(context.Background(), "trainers_id_seq", 1)
		require.ErrorIs(t, err, denied)
		assert.NotErrorIs(t, err, domain.ErrConstraintViolation)
	})
}

func TestSQLStore_Lookups(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tx := beginMock(t, store, mock)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta(sequenceExistsQuery)).WithArgs("trainers_id_seq").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("FROM information_schema.sequences").WithArgs("%trainers%id%").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta(existingUsernamesQuery)).WithArgs(sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"username"}).AddRow("M1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "trainers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(2)))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(MIN(id), 0), COALESCE(MAX(id), 0) FROM "trainers"`)).
		WillReturnRows(sqlmock.NewRows([]string{"min", "max"}).AddRow(int64(4), int64(9)))

	ok, err := tx.SequenceExists(ctx, "trainers_id_seq")
	require.NoError(t, err)
	assert.True(t, ok)

	name, err := tx.FindSequence(ctx, "%trainers%id%")
	require.NoError(t, err)
	assert.Empty(t, name)

	found, err := tx.ExistingUsernames(ctx, []string{"M1", "E1"})
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"M1": {}}, found)

	none, err := tx.ExistingUsernames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)

	n, err := tx.Count(ctx, domain.TableTrainers)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	lo, hi, err := tx.IDRange(ctx, domain.TableTrainers)
	require.NoError(t, err)
	assert.Equal(t, int64(4), lo)
	assert.Equal(t, int64(9), hi)
}

func TestSQLStore_Renumber(t *testing.T) {
	t.Parallel()

	store, mock := newMockStore(t)
	tx := beginMock(t, store, mock)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "trainers" SET id = -numbered.new_id`)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "trainers" SET id = -id WHERE id < 0`)).
		WillReturnResult(sqlmock.NewResult(0, 2))

	require.NoError(t, tx.Renumber(context.Background(), domain.TableTrainers))
}
