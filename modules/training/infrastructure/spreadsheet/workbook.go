package spreadsheet

import (
	"io"
	"strconv"
	"strings"
	"time"

	gerrors "github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

var ErrSheetNotFound = gerrors.New("sheet not found")

// maxSerialDate is 9999-12-31 in the 1900 date system.
const maxSerialDate = 2958465

// Sheet is a parsed header plus data rows. Line numbers are 1-based with the header on line 1.
type Sheet struct {
	Name   string
	Header []string
	Rows   []Row
}

type Row struct {
	Line  int
	Cells []domain.Value
}

type Workbook struct {
	f *excelize.File
}

func OpenWorkbook(r io.Reader) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, gerrors.Wrap(err, "open workbook")
	}
	return &Workbook{f: f}, nil
}

func (w *Workbook) Close() error {
	return w.f.Close()
}

func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// Sheet reads a sheet by exact name.
func (w *Workbook) Sheet(name string) (*Sheet, error) {
	found := false
	for _, s := range w.f.GetSheetList() {
		if s == name {
			found = true
			break
		}
	}
	if !found {
		return nil, gerrors.Wrapf(ErrSheetNotFound, "%q", name)
	}

	formatted, err := w.f.GetRows(name)
	if err != nil {
		return nil, gerrors.Wrapf(err, "read sheet %q", name)
	}
	raw, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, gerrors.Wrapf(err, "read raw sheet %q", name)
	}

	sheet := &Sheet{Name: name}
	if len(formatted) == 0 {
		return sheet, nil
	}
	sheet.Header = make([]string, len(formatted[0]))
	for i, h := range formatted[0] {
		sheet.Header[i] = strings.TrimSpace(h)
	}

	width := len(sheet.Header)
	for i := 1; i < len(formatted); i++ {
		var rawRow []string
		if i < len(raw) {
			rawRow = raw[i]
		}
		cells := make([]domain.Value, width)
		for c := 0; c < width; c++ {
			var shown, value string
			if c < len(formatted[i]) {
				shown = formatted[i][c]
			}
			if c < len(rawRow) {
				value = rawRow[c]
			}
			cells[c] = w.cellValue(name, c, i, shown, value)
		}
		sheet.Rows = append(sheet.Rows, Row{Line: i + 1, Cells: cells})
	}
	return sheet, nil
}

// cellValue types a cell from its displayed and raw text. Numbers shown with a date
// format become dates; numbers typed as text stay text.
func (w *Workbook) cellValue(sheet string, col, row int, shown, raw string) domain.Value {
	if strings.TrimSpace(shown) == "" && strings.TrimSpace(raw) == "" {
		return domain.Absent()
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return domain.String(shown)
	}
	if axis, err := excelize.CoordinatesToCellName(col+1, row+1); err == nil {
		if typ, err := w.f.GetCellType(sheet, axis); err == nil {
			switch typ {
			case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
				return domain.String(shown)
			}
		}
	}
	if _, err := strconv.ParseFloat(strings.TrimSpace(shown), 64); err == nil {
		return domain.Number(n)
	}
	if looksLikeDate(shown) {
		if t, ok := SerialDate(n); ok {
			return domain.Time(t)
		}
	}
	return domain.String(shown)
}

func looksLikeDate(s string) bool {
	if strings.ContainsAny(s, "/-:") {
		return true
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			return true
		}
	}
	return false
}

// SerialDate converts an Excel 1900-system serial day number.
func SerialDate(f float64) (time.Time, bool) {
	if f < 1 || f > maxSerialDate {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
