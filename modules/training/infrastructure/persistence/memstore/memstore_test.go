package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

func TestStore_UncommittedWorkIsInvisible(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	_, err = tx.Insert(ctx, []domain.Record{domain.TrainerRecord{Skill: "Go", TrainerName: "Alice"}})
	require.NoError(t, err)
	assert.Empty(t, s.Rows(domain.TableTrainers))

	require.NoError(t, tx.Rollback(ctx))
	assert.Empty(t, s.Rows(domain.TableTrainers))
	require.ErrorIs(t, tx.Commit(ctx), ErrTxDone)
}

func TestStore_CommitAssignsSequenceIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	tx, err := s.Begin(ctx)
	require.NoError(t, err)

	require.NoError(t, tx.RestartSequence(ctx, "trainers_id_seq", 5))
	counts, err := tx.Insert(ctx, []domain.Record{
		domain.TrainerRecord{Skill: "Go"},
		domain.TrainerRecord{Skill: "Rust"},
	})
	require.NoError(t, err)
	assert.Equal(t, map[domain.Table]int64{domain.TableTrainers: 2}, counts)
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, []int64{5, 6}, s.IDs(domain.TableTrainers))
	next, ok := s.NextValue("trainers_id_seq")
	require.True(t, ok)
	assert.Equal(t, int64(7), next)
}

func TestStore_ForeignKeys(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	s.Seed(domain.TableUsers, map[string]any{"username": "M1"})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Insert(ctx, []domain.Record{domain.RelationshipRecord{ManagerEmpID: "M1", EmployeeEmpID: "E9"}})
	var ce *domain.ConstraintError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "23503", ce.Code)
	assert.Equal(t, "manager_employee_employee_empid_fkey", ce.Constraint)

	_, err = tx.Insert(ctx, []domain.Record{domain.Identity{Username: "M1", HashedPassword: "x"}})
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "23505", ce.Code)

	_, err = tx.Insert(ctx, []domain.Record{
		domain.Identity{Username: "E9", HashedPassword: "x"},
		domain.RelationshipRecord{ManagerEmpID: "M1", EmployeeEmpID: "E9"},
	})
	require.NoError(t, err)

	_, err = tx.DeleteAll(ctx, domain.TableUsers)
	require.ErrorIs(t, err, domain.ErrConstraintViolation)

	_, err = tx.DeleteAll(ctx, domain.TableManagerEmployee)
	require.NoError(t, err)
	n, err := tx.DeleteAll(ctx, domain.TableUsers)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestStore_Sequences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	s.RenameSequence("trainers_id_seq", "trainers_pk_id_seq")
	s.DropSequence("employee_competency_id_seq")

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	ok, err := tx.SequenceExists(ctx, "trainers_id_seq")
	require.NoError(t, err)
	assert.False(t, ok)

	name, err := tx.FindSequence(ctx, "%trainers%id%")
	require.NoError(t, err)
	assert.Equal(t, "trainers_pk_id_seq", name)

	name, err = tx.FindSequence(ctx, "%employee_competency%id%")
	require.NoError(t, err)
	assert.Empty(t, name)

	require.ErrorIs(t, tx.RestartSequence(ctx, "employee_competency_id_seq", 1), ErrUnknownSequence)
}

func TestStore_Faults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.InjectFault(Fault{Op: OpDelete, Table: domain.TableTrainers, Err: boom})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.DeleteAll(ctx, domain.TableTrainers)
	require.ErrorIs(t, err, boom)
	_, err = tx.DeleteAll(ctx, domain.TableEmployeeCompetency)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	s.ClearFaults()
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.DeleteAll(ctx, domain.TableTrainers)
	require.NoError(t, err)
	require.NoError(t, tx.Commit(ctx))
}

func TestStore_Renumber(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := New()
	s.SeedWithID(domain.TableTrainers, 9, map[string]any{"skill": "B"})
	s.SeedWithID(domain.TableTrainers, 4, map[string]any{"skill": "A"})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	lo, hi, err := tx.IDRange(ctx, domain.TableTrainers)
	require.NoError(t, err)
	assert.Equal(t, [2]int64{4, 9}, [2]int64{lo, hi})
	require.NoError(t, tx.Renumber(ctx, domain.TableTrainers))
	require.NoError(t, tx.Commit(ctx))

	rows := s.Rows(domain.TableTrainers)
	got := map[any]int64{}
	for _, r := range rows {
		got[r.Values["skill"]] = r.ID
	}
	assert.Equal(t, map[any]int64{"A": 1, "B": 2}, got)
}

func TestLikePattern(t *testing.T) {
	t.Parallel()

	re := likePattern("%training_details%id%")
	assert.True(t, re.MatchString("training_details_id_seq"))
	assert.True(t, re.MatchString("public.training_details_pk_id"))
	assert.False(t, re.MatchString("trainers_id_seq"))
	assert.True(t, likePattern("a.b").MatchString("a.b"))
	assert.False(t, likePattern("a.b").MatchString("axb"))
}
