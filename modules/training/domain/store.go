package domain

import "context"

// Store opens units of work against the destination database.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
}

// Tx is one unit of work. Every mutation is discarded unless Commit succeeds.
type Tx interface {
	// DeleteAll removes every row of table and returns the number of rows removed.
	DeleteAll(ctx context.Context, table Table) (int64, error)
	SequenceExists(ctx context.Context, name string) (bool, error)
	// FindSequence returns the first sequence whose name matches the LIKE pattern, or "".
	FindSequence(ctx context.Context, pattern string) (string, error)
	// RestartSequence positions the sequence so the next value handed out is next.
	// A failure leaves the unit of work usable.
	RestartSequence(ctx context.Context, name string, next int64) error
	// Insert writes records grouped by table, in first-appearance order of tables.
	Insert(ctx context.Context, records []Record) (map[Table]int64, error)
	ExistingUsernames(ctx context.Context, usernames []string) (map[string]struct{}, error)
	Count(ctx context.Context, table Table) (int64, error)
	// IDRange returns MIN(id) and MAX(id); both are 0 for an empty table.
	IDRange(ctx context.Context, table Table) (int64, int64, error)
	// Renumber rewrites ids to 1..N in ascending id order.
	Renumber(ctx context.Context, table Table) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
