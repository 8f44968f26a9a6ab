package persistence

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// mapPgError turns integrity violations (SQLSTATE class 23) into domain.ConstraintError.
func mapPgError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return constraintError(pgErr.Code, pgErr.ConstraintName, pgErr.TableName, pgErr.Detail, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return constraintError(string(pqErr.Code), pqErr.Constraint, pqErr.Table, pqErr.Detail, err)
	}
	return err
}

func constraintError(code, constraint, table, detail string, err error) error {
	if !strings.HasPrefix(code, "23") {
		return err
	}
	return &domain.ConstraintError{
		Code:       code,
		Constraint: constraint,
		Table:      table,
		Detail:     detail,
		Err:        err,
	}
}
