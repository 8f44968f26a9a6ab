// Package memstore is an in-process domain.Store. It enforces the declared foreign keys
// with restrict semantics and unique usernames, and supports fault injection for tests.
package memstore

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	gerrors "github.com/go-faster/errors"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

var (
	ErrTxDone          = gerrors.New("transaction already finished")
	ErrUnknownSequence = gerrors.New("sequence does not exist")
)

// Op names a transaction operation a Fault can target.
type Op string

const (
	OpDelete   Op = "delete"
	OpInsert   Op = "insert"
	OpRestart  Op = "restart"
	OpRenumber Op = "renumber"
	OpCount    Op = "count"
	OpCommit   Op = "commit"
)

// Fault makes the matching operation fail with Err. An empty Table matches any table.
type Fault struct {
	Op    Op
	Table domain.Table
	Err   error
}

// Row is a stored row. ID is zero for tables without a surrogate key.
type Row struct {
	ID     int64
	Values map[string]any
}

type state struct {
	rows      map[domain.Table][]Row
	sequences map[string]int64
	// owners maps a table to the sequence feeding its ids.
	owners map[domain.Table]string
}

func newState() *state {
	s := &state{
		rows:      map[domain.Table][]Row{},
		sequences: map[string]int64{},
		owners:    map[domain.Table]string{},
	}
	for _, spec := range domain.Schema() {
		if spec.AutoID {
			s.sequences[spec.SequenceName()] = 1
			s.owners[spec.Name] = spec.SequenceName()
		}
	}
	return s
}

func (s *state) clone() *state {
	c := &state{
		rows:      make(map[domain.Table][]Row, len(s.rows)),
		sequences: make(map[string]int64, len(s.sequences)),
		owners:    make(map[domain.Table]string, len(s.owners)),
	}
	for t, rows := range s.rows {
		cp := make([]Row, len(rows))
		for i, r := range rows {
			values := make(map[string]any, len(r.Values))
			for k, v := range r.Values {
				values[k] = v
			}
			cp[i] = Row{ID: r.ID, Values: values}
		}
		c.rows[t] = cp
	}
	for k, v := range s.sequences {
		c.sequences[k] = v
	}
	for k, v := range s.owners {
		c.owners[k] = v
	}
	return c
}

type Store struct {
	mu     sync.Mutex
	state  *state
	faults []Fault
}

func New() *Store {
	return &Store{state: newState()}
}

// InjectFault registers a failure for every later transaction.
func (s *Store) InjectFault(f Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, f)
}

func (s *Store) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// DropSequence removes a sequence, as if the table had been created without one.
func (s *Store) DropSequence(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.state.sequences, name)
	for t, owned := range s.state.owners {
		if owned == name {
			delete(s.state.owners, t)
		}
	}
}

// RenameSequence moves a sequence to a non-conventional name.
func (s *Store) RenameSequence(from, to string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v, ok := s.state.sequences[from]; ok {
		delete(s.state.sequences, from)
		s.state.sequences[to] = v
	}
	for t, owned := range s.state.owners {
		if owned == from {
			s.state.owners[t] = to
		}
	}
}

// NextValue reports the value the sequence would hand out next.
func (s *Store) NextValue(name string) (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.sequences[name]
	return v, ok
}

// Seed writes a committed row without foreign key checks and returns its id.
func (s *Store) Seed(table domain.Table, values map[string]any) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.append(table, values)
}

// SeedWithID writes a committed row with an explicit id.
func (s *Store) SeedWithID(table domain.Table, id int64, values map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.rows[table] = append(s.state.rows[table], Row{ID: id, Values: values})
}

func (s *Store) Rows(table domain.Table) []Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone().rows[table]
}

func (s *Store) IDs(table domain.Table) []int64 {
	rows := s.Rows(table)
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *Store) Begin(context.Context) (domain.Tx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	faults := make([]Fault, len(s.faults))
	copy(faults, s.faults)
	return &tx{store: s, state: s.state.clone(), faults: faults}, nil
}

func (s *state) append(table domain.Table, values map[string]any) int64 {
	var id int64
	if spec, ok := domain.Spec(table); ok && spec.AutoID {
		name, owned := s.owners[table]
		next, ok := s.sequences[name]
		if !owned || !ok {
			next = s.maxID(table) + 1
		} else {
			s.sequences[name] = next + 1
		}
		id = next
	}
	s.rows[table] = append(s.rows[table], Row{ID: id, Values: values})
	return id
}

func (s *state) maxID(table domain.Table) int64 {
	var hi int64
	for _, r := range s.rows[table] {
		if r.ID > hi {
			hi = r.ID
		}
	}
	return hi
}

// referenced reports whether a row of table is the target of any foreign key.
func (s *state) referenced(table domain.Table) (domain.Table, bool) {
	for _, child := range domain.Dependents(table) {
		spec, _ := domain.Spec(child)
		for _, fk := range spec.ForeignKeys {
			if fk.References != table {
				continue
			}
			keys := s.keys(table, fk.ReferencedColumn)
			for _, r := range s.rows[child] {
				if v := deref(r.Values[fk.Column]); v != nil {
					if _, hit := keys[fmt.Sprint(v)]; hit {
						return child, true
					}
				}
			}
		}
	}
	return "", false
}

func (s *state) keys(table domain.Table, column string) map[string]struct{} {
	out := map[string]struct{}{}
	for _, r := range s.rows[table] {
		if column == "id" {
			out[fmt.Sprint(r.ID)] = struct{}{}
			continue
		}
		if v := deref(r.Values[column]); v != nil {
			out[fmt.Sprint(v)] = struct{}{}
		}
	}
	return out
}

func deref(v any) any {
	switch p := v.(type) {
	case *string:
		if p == nil {
			return nil
		}
		return *p
	}
	return v
}

type tx struct {
	store  *Store
	state  *state
	faults []Fault
	done   bool
}

func (t *tx) fault(op Op, table domain.Table) error {
	for _, f := range t.faults {
		if f.Op == op && (f.Table == "" || f.Table == table) {
			return f.Err
		}
	}
	return nil
}

func (t *tx) check(op Op, table domain.Table) error {
	if t.done {
		return ErrTxDone
	}
	return t.fault(op, table)
}

func (t *tx) DeleteAll(_ context.Context, table domain.Table) (int64, error) {
	if err := t.check(OpDelete, table); err != nil {
		return 0, err
	}
	if child, ok := t.state.referenced(table); ok {
		return 0, &domain.ConstraintError{
			Code:       "23503",
			Constraint: fmt.Sprintf("%s_%s_fkey", child, table),
			Table:      string(child),
			Detail:     fmt.Sprintf("rows of %s are still referenced from %s", table, child),
		}
	}
	n := int64(len(t.state.rows[table]))
	delete(t.state.rows, table)
	return n, nil
}

func (t *tx) SequenceExists(_ context.Context, name string) (bool, error) {
	if t.done {
		return false, ErrTxDone
	}
	_, ok := t.state.sequences[name]
	return ok, nil
}

func (t *tx) FindSequence(_ context.Context, pattern string) (string, error) {
	if t.done {
		return "", ErrTxDone
	}
	re := likePattern(pattern)
	names := make([]string, 0, len(t.state.sequences))
	for name := range t.state.sequences {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if re.MatchString(name) {
			return name, nil
		}
	}
	return "", nil
}

func likePattern(pattern string) *regexp.Regexp {
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	return regexp.MustCompile(b.String())
}

func (t *tx) RestartSequence(_ context.Context, name string, next int64) error {
	if err := t.check(OpRestart, t.state.ownerOf(name)); err != nil {
		return err
	}
	if _, ok := t.state.sequences[name]; !ok {
		return gerrors.Wrapf(ErrUnknownSequence, "%q", name)
	}
	t.state.sequences[name] = next
	return nil
}

func (s *state) ownerOf(sequence string) domain.Table {
	for t, name := range s.owners {
		if name == sequence {
			return t
		}
	}
	return ""
}

func (t *tx) Insert(_ context.Context, records []domain.Record) (map[domain.Table]int64, error) {
	if t.done {
		return nil, ErrTxDone
	}
	counts := map[domain.Table]int64{}
	for _, r := range records {
		table := r.Table()
		if err := t.fault(OpInsert, table); err != nil {
			return nil, err
		}
		spec, ok := domain.Spec(table)
		if !ok {
			return nil, gerrors.Errorf("unknown table %q", table)
		}
		values := r.Values()
		if len(values) != len(spec.Columns) {
			return nil, gerrors.Errorf("%s: %d values for %d columns", table, len(values), len(spec.Columns))
		}
		row := make(map[string]any, len(values))
		for i, col := range spec.Columns {
			row[col] = values[i]
		}
		if err := t.checkInsert(spec, row); err != nil {
			return nil, err
		}
		t.state.append(table, row)
		counts[table]++
	}
	return counts, nil
}

func (t *tx) checkInsert(spec domain.TableSpec, row map[string]any) error {
	if spec.Name == domain.TableUsers {
		name := fmt.Sprint(row["username"])
		if _, dup := t.state.keys(domain.TableUsers, "username")[name]; dup {
			return &domain.ConstraintError{
				Code:       "23505",
				Constraint: "users_username_key",
				Table:      string(domain.TableUsers),
				Detail:     fmt.Sprintf("Key (username)=(%s) already exists.", name),
			}
		}
	}
	for _, fk := range spec.ForeignKeys {
		v := deref(row[fk.Column])
		if v == nil {
			continue
		}
		if _, ok := t.state.keys(fk.References, fk.ReferencedColumn)[fmt.Sprint(v)]; !ok {
			return &domain.ConstraintError{
				Code:       "23503",
				Constraint: fmt.Sprintf("%s_%s_fkey", spec.Name, fk.Column),
				Table:      string(spec.Name),
				Detail:     fmt.Sprintf("Key (%s)=(%v) is not present in table %q.", fk.Column, v, fk.References),
			}
		}
	}
	return nil
}

func (t *tx) ExistingUsernames(_ context.Context, usernames []string) (map[string]struct{}, error) {
	if t.done {
		return nil, ErrTxDone
	}
	all := t.state.keys(domain.TableUsers, "username")
	found := map[string]struct{}{}
	for _, u := range usernames {
		if _, ok := all[u]; ok {
			found[u] = struct{}{}
		}
	}
	return found, nil
}

func (t *tx) Count(_ context.Context, table domain.Table) (int64, error) {
	if err := t.check(OpCount, table); err != nil {
		return 0, err
	}
	return int64(len(t.state.rows[table])), nil
}

func (t *tx) IDRange(_ context.Context, table domain.Table) (int64, int64, error) {
	if t.done {
		return 0, 0, ErrTxDone
	}
	rows := t.state.rows[table]
	if len(rows) == 0 {
		return 0, 0, nil
	}
	lo, hi := rows[0].ID, rows[0].ID
	for _, r := range rows[1:] {
		if r.ID < lo {
			lo = r.ID
		}
		if r.ID > hi {
			hi = r.ID
		}
	}
	return lo, hi, nil
}

func (t *tx) Renumber(_ context.Context, table domain.Table) error {
	if err := t.check(OpRenumber, table); err != nil {
		return err
	}
	rows := t.state.rows[table]
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	for i := range rows {
		rows[i].ID = int64(i + 1)
	}
	return nil
}

func (t *tx) Commit(context.Context) error {
	if err := t.check(OpCommit, ""); err != nil {
		return err
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.state = t.state
	return nil
}

func (t *tx) Rollback(context.Context) error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	return nil
}
