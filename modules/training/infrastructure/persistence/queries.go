package persistence

import (
	"fmt"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

const (
	sequenceExistsQuery = `SELECT to_regclass($1::text) IS NOT NULL`

	findSequenceQuery = `
SELECT sequence_name
FROM information_schema.sequences
WHERE sequence_name LIKE $1
ORDER BY sequence_name
LIMIT 1`

	existingUsernamesQuery = `SELECT username FROM users WHERE username = ANY($1)`
)

// ident quotes a table or sequence name for interpolation.
type ident func(string) string

func deleteAllQuery(q ident, t domain.Table) string {
	return "DELETE FROM " + q(string(t))
}

func countQuery(q ident, t domain.Table) string {
	return "SELECT COUNT(*) FROM " + q(string(t))
}

func idRangeQuery(q ident, t domain.Table) string {
	return "SELECT COALESCE(MIN(id), 0), COALESCE(MAX(id), 0) FROM " + q(string(t))
}

// renumberQueries move ids through negative values so no intermediate state collides
// with an existing primary key.
func renumberQueries(q ident, t domain.Table) []string {
	table := q(string(t))
	return []string{
		fmt.Sprintf(`WITH numbered AS (
	SELECT id, ROW_NUMBER() OVER (ORDER BY id) AS new_id FROM %[1]s
)
UPDATE %[1]s SET id = -numbered.new_id FROM numbered WHERE %[1]s.id = numbered.id`, table),
		fmt.Sprintf(`UPDATE %s SET id = -id WHERE id < 0`, table),
	}
}

func restartSequenceQuery(q ident, name string, next int64) string {
	return fmt.Sprintf("ALTER SEQUENCE %s RESTART WITH %d", q(name), next)
}

// groupByTable splits records per table, keeping first-appearance order of tables.
func groupByTable(records []domain.Record) ([]domain.Table, map[domain.Table][][]any, error) {
	var order []domain.Table
	rows := map[domain.Table][][]any{}
	for _, r := range records {
		t := r.Table()
		spec, ok := domain.Spec(t)
		if !ok {
			return nil, nil, fmt.Errorf("unknown table %q", t)
		}
		values := r.Values()
		if len(values) != len(spec.Columns) {
			return nil, nil, fmt.Errorf("%s: %d values for %d columns", t, len(values), len(spec.Columns))
		}
		if _, seen := rows[t]; !seen {
			order = append(order, t)
		}
		rows[t] = append(rows[t], values)
	}
	return order, rows, nil
}
