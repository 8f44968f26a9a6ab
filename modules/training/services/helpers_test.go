package services

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/iota-uz/training-sdk/modules/training/domain"
	"github.com/iota-uz/training-sdk/modules/training/infrastructure/persistence/memstore"
)

type sheetFixture struct {
	name string
	rows [][]any
}

func workbookReader(t *testing.T, sheets ...sheetFixture) *bytes.Reader {
	t.Helper()

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName("Sheet1", s.name))
		} else {
			_, err := f.NewSheet(s.name)
			require.NoError(t, err)
		}
		for r := range s.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			require.NoError(t, err)
			row := s.rows[r]
			require.NoError(t, f.SetSheetRow(s.name, cell, &row))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return bytes.NewReader(buf.Bytes())
}

func trainersFixture() sheetFixture {
	return sheetFixture{name: SheetTrainers, rows: [][]any{
		{"Skill", "Competency", "Copmetency", "Expertise Level"},
		{"Go", "Backend", "Alice", "L3"},
		{"Rust", "Systems", "", "L2"},
		{"", "", "", ""},
		{"", "Frontend", "Bob", "L1"},
	}}
}

func trainingsFixture() sheetFixture {
	return sheetFixture{name: SheetTrainings, rows: [][]any{
		{"Division", "Training Name", "Trainer Name", "Email ID", "Training Dates", "No. of Seats"},
		{"Eng", "Go 101", "Alice, Bob", "a@x.com", time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 20},
		{"Eng", "", "Carol", "", "", ""},
		{"Ops", "K8s", "Dana", "", "03/15/2024", ""},
	}}
}

func competenciesFixture() sheetFixture {
	return sheetFixture{name: SheetCompetencies, rows: [][]any{
		{"Employee ID", "Employee Name", "Competency", "Skill", "Current Expertise Level", "Target Expertise Level", "Target Date"},
		{5504763, "Eve", "Backend", "Go", "L2", "L3", "2024-06-30"},
		{"", "Nobody", "Backend", "Go", "L1", "L2", ""},
		{"5504764.0", "Frank", "Backend", "Rust", "L1", "L3", ""},
	}}
}

func newTestService(store domain.Store) *ReloadService {
	return NewReloadService(store, Options{
		DefaultPassword: "password123",
		BcryptCost:      bcrypt.MinCost,
		Now:             func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) },
	})
}

// seedTraining writes a committed training with one assignment pointing at it.
func seedTraining(store *memstore.Store, name string) int64 {
	id := store.Seed(domain.TableTrainingDetails, map[string]any{"training_name": name, "trainer_name": "Old"})
	store.Seed(domain.TableTrainingAssignments, map[string]any{"training_id": id, "employee_empid": "E0"})
	return id
}

func column(rows []memstore.Row, col string) []any {
	out := make([]any, len(rows))
	for i, r := range rows {
		v := r.Values[col]
		if p, ok := v.(*string); ok {
			if p == nil {
				v = nil
			} else {
				v = *p
			}
		}
		out[i] = v
	}
	return out
}

func bytesReader(s string) *bytes.Reader {
	return bytes.NewReader([]byte(s))
}
