package persistence

import (
	"context"
	"database/sql"

	gerrors "github.com/go-faster/errors"
	"github.com/lib/pq"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

const restartSavepoint = "restart_sequence"

// SQLStore runs units of work on a database/sql handle opened with the lib/pq driver.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Begin(ctx context.Context) (domain.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, gerrors.Wrap(err, "begin transaction")
	}
	return &sqlTx{tx: tx}, nil
}

type sqlTx struct {
	tx *sql.Tx
}

func (t *sqlTx) DeleteAll(ctx context.Context, table domain.Table) (int64, error) {
	res, err := t.tx.ExecContext(ctx, deleteAllQuery(pq.QuoteIdentifier, table))
	if err != nil {
		return 0, mapPgError(err)
	}
	return res.RowsAffected()
}

func (t *sqlTx) SequenceExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := t.tx.QueryRowContext(ctx, sequenceExistsQuery, name).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *sqlTx) FindSequence(ctx context.Context, pattern string) (string, error) {
	var name string
	err := t.tx.QueryRowContext(ctx, findSequenceQuery, pattern).Scan(&name)
	if gerrors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

func (t *sqlTx) RestartSequence(ctx context.Context, name string, next int64) error {
	if _, err := t.tx.ExecContext(ctx, "SAVEPOINT "+restartSavepoint); err != nil {
		return gerrors.Wrap(err, "savepoint")
	}
	if _, err := t.tx.ExecContext(ctx, restartSequenceQuery(pq.QuoteIdentifier, name, next)); err != nil {
		if _, rbErr := t.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+restartSavepoint); rbErr != nil {
			return gerrors.Wrap(rbErr, "rollback to savepoint")
		}
		return mapPgError(err)
	}
	_, err := t.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+restartSavepoint)
	return err
}

func (t *sqlTx) Insert(ctx context.Context, records []domain.Record) (map[domain.Table]int64, error) {
	order, rows, err := groupByTable(records)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Table]int64, len(order))
	for _, table := range order {
		spec, _ := domain.Spec(table)
		if err := t.copyIn(ctx, table, spec.Columns, rows[table]); err != nil {
			return nil, gerrors.Wrapf(mapPgError(err), "copy into %s", table)
		}
		counts[table] = int64(len(rows[table]))
	}
	return counts, nil
}

func (t *sqlTx) copyIn(ctx context.Context, table domain.Table, columns []string, rows [][]any) error {
	stmt, err := t.tx.PrepareContext(ctx, pq.CopyIn(string(table), columns...))
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()
	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return err
		}
	}
	// An argument-less Exec flushes the buffered rows.
	_, err = stmt.ExecContext(ctx)
	return err
}

func (t *sqlTx) ExistingUsernames(ctx context.Context, usernames []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(usernames))
	if len(usernames) == 0 {
		return found, nil
	}
	rows, err := t.tx.QueryContext(ctx, existingUsernamesQuery, pq.Array(usernames))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		found[name] = struct{}{}
	}
	return found, rows.Err()
}

func (t *sqlTx) Count(ctx context.Context, table domain.Table) (int64, error) {
	var n int64
	if err := t.tx.QueryRowContext(ctx, countQuery(pq.QuoteIdentifier, table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *sqlTx) IDRange(ctx context.Context, table domain.Table) (int64, int64, error) {
	var lo, hi int64
	if err := t.tx.QueryRowContext(ctx, idRangeQuery(pq.QuoteIdentifier, table)).Scan(&lo, &hi); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (t *sqlTx) Renumber(ctx context.Context, table domain.Table) error {
	for _, q := range renumberQueries(pq.QuoteIdentifier, table) {
		if _, err := t.tx.ExecContext(ctx, q); err != nil {
			return mapPgError(err)
		}
	}
	return nil
}

func (t *sqlTx) Commit(context.Context) error {
	return mapPgError(t.tx.Commit())
}

func (t *sqlTx) Rollback(context.Context) error {
	return t.tx.Rollback()
}
