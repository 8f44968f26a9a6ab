package spreadsheet

import (
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	gerrors "github.com/go-faster/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

var ErrMissingHeader = gerrors.New("missing header")

// ReadCSV parses a flat file. A UTF-8 or UTF-16 byte order mark selects the encoding;
// without one the input is read as UTF-8.
func ReadCSV(name string, r io.Reader) (*Sheet, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = false

	header, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrMissingHeader
		}
		return nil, gerrors.Wrap(err, "read header")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
		if !utf8.ValidString(header[i]) {
			return nil, gerrors.New("invalid header encoding")
		}
	}

	sheet := &Sheet{Name: name, Header: header}
	for {
		rec, err := cr.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, gerrors.Wrap(err, "read record")
		}
		line, _ := cr.FieldPos(0)
		cells := make([]domain.Value, len(header))
		for i := range header {
			if i >= len(rec) || strings.TrimSpace(rec[i]) == "" {
				continue
			}
			cells[i] = domain.String(rec[i])
		}
		sheet.Rows = append(sheet.Rows, Row{Line: line, Cells: cells})
	}
	return sheet, nil
}
