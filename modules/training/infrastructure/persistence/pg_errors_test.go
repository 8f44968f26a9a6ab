package persistence

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

func TestMapPgError_IntegrityViolations(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		err        error
		code       string
		constraint string
		table      string
	}{
		{
			name:       "pgx unique",
			err:        &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key", TableName: "users"},
			code:       "23505",
			constraint: "users_username_key",
			table:      "users",
		},
		{
			name:       "pgx wrapped foreign key",
			err:        fmt.Errorf("copy: %w", &pgconn.PgError{Code: "23503", ConstraintName: "fk", TableName: "manager_employee"}),
			code:       "23503",
			constraint: "fk",
			table:      "manager_employee",
		},
		{
			name:       "pq not null",
			err:        &pq.Error{Code: "23502", Constraint: "", Table: "trainers", Detail: "Failing row"},
			code:       "23502",
			table:      "trainers",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			mapped := mapPgError(tc.err)
			require.ErrorIs(t, mapped, domain.ErrConstraintViolation)

			var ce *domain.ConstraintError
			require.ErrorAs(t, mapped, &ce)
			assert.Equal(t, tc.code, ce.Code)
			assert.Equal(t, tc.constraint, ce.Constraint)
			assert.Equal(t, tc.table, ce.Table)
			assert.ErrorIs(t, mapped, tc.err)
		})
	}
}

func TestMapPgError_PassesThroughOtherErrors(t *testing.T) {
	t.Parallel()

	if mapPgError(nil) != nil {
		t.Fatalf("nil must stay nil")
	}

	plain := errors.New("connection reset")
	assert.Same(t, plain, mapPgError(plain))

	undefined := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	mapped := mapPgError(undefined)
	assert.NotErrorIs(t, mapped, domain.ErrConstraintViolation)
	assert.Same(t, undefined, mapped)

	denied := &pq.Error{Code: "42501"}
	assert.NotErrorIs(t, mapPgError(denied), domain.ErrConstraintViolation)
}
