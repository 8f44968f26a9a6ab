package persistence

import (
	"context"

	gerrors "github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

// PgStore runs units of work on a pgx pool and bulk-loads rows with COPY.
type PgStore struct {
	pool *pgxpool.Pool
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

func (s *PgStore) Begin(ctx context.Context) (domain.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, gerrors.Wrap(err, "begin transaction")
	}
	return &pgTx{tx: tx}, nil
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

type pgTx struct {
	tx pgx.Tx
}

func (t *pgTx) DeleteAll(ctx context.Context, table domain.Table) (int64, error) {
	tag, err := t.tx.Exec(ctx, deleteAllQuery(pgIdent, table))
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (t *pgTx) SequenceExists(ctx context.Context, name string) (bool, error) {
	var ok bool
	if err := t.tx.QueryRow(ctx, sequenceExistsQuery, name).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

func (t *pgTx) FindSequence(ctx context.Context, pattern string) (string, error) {
	var name string
	err := t.tx.QueryRow(ctx, findSequenceQuery, pattern).Scan(&name)
	if gerrors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// RestartSequence runs inside a savepoint so a failure does not abort the transaction.
func (t *pgTx) RestartSequence(ctx context.Context, name string, next int64) error {
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return gerrors.Wrap(err, "savepoint")
	}
	if _, err := sp.Exec(ctx, restartSequenceQuery(pgIdent, name, next)); err != nil {
		_ = sp.Rollback(ctx)
		return mapPgError(err)
	}
	return sp.Commit(ctx)
}

func (t *pgTx) Insert(ctx context.Context, records []domain.Record) (map[domain.Table]int64, error) {
	order, rows, err := groupByTable(records)
	if err != nil {
		return nil, err
	}
	counts := make(map[domain.Table]int64, len(order))
	for _, table := range order {
		spec, _ := domain.Spec(table)
		n, err := t.tx.CopyFrom(ctx, pgx.Identifier{string(table)}, spec.Columns, pgx.CopyFromRows(rows[table]))
		if err != nil {
			return nil, gerrors.Wrapf(mapPgError(err), "copy into %s", table)
		}
		counts[table] = n
	}
	return counts, nil
}

func (t *pgTx) ExistingUsernames(ctx context.Context, usernames []string) (map[string]struct{}, error) {
	found := make(map[string]struct{}, len(usernames))
	if len(usernames) == 0 {
		return found, nil
	}
	rows, err := t.tx.Query(ctx, existingUsernamesQuery, usernames)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		found[name] = struct{}{}
	}
	return found, rows.Err()
}

func (t *pgTx) Count(ctx context.Context, table domain.Table) (int64, error) {
	var n int64
	if err := t.tx.QueryRow(ctx, countQuery(pgIdent, table)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (t *pgTx) IDRange(ctx context.Context, table domain.Table) (int64, int64, error) {
	var lo, hi int64
	if err := t.tx.QueryRow(ctx, idRangeQuery(pgIdent, table)).Scan(&lo, &hi); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

func (t *pgTx) Renumber(ctx context.Context, table domain.Table) error {
	for _, q := range renumberQueries(pgIdent, table) {
		if _, err := t.tx.Exec(ctx, q); err != nil {
			return mapPgError(err)
		}
	}
	return nil
}

func (t *pgTx) Commit(ctx context.Context) error {
	return mapPgError(t.tx.Commit(ctx))
}

func (t *pgTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
