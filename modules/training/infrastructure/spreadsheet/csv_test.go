package spreadsheet

import (
	"bytes"
	"encoding/binary"
	"strings"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/training-sdk/modules/training/domain"
)

func utf16LE(s string) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, 0xFE})
	for _, u := range utf16.Encode([]rune(s)) {
		_ = binary.Write(&buf, binary.LittleEndian, u)
	}
	return buf.Bytes()
}

func TestReadCSV_Basic(t *testing.T) {
	t.Parallel()

	in := " manager_empid ,employee_empid,note\nM1,E1,\n\nM2,E2\n\"M3\",\"E3\",\"multi\nline\"\nM4,E4,x\n"
	sheet, err := ReadCSV("rel", strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, "rel", sheet.Name)
	assert.Equal(t, []string{"manager_empid", "employee_empid", "note"}, sheet.Header)
	require.Len(t, sheet.Rows, 4)

	assert.Equal(t, 2, sheet.Rows[0].Line)
	assert.Equal(t, domain.String("M1"), sheet.Rows[0].Cells[0])
	assert.True(t, sheet.Rows[0].Cells[2].IsAbsent())

	assert.Equal(t, 4, sheet.Rows[1].Line)
	assert.True(t, sheet.Rows[1].Cells[2].IsAbsent(), "short record pads with absent cells")

	assert.Equal(t, 5, sheet.Rows[2].Line)
	assert.Equal(t, domain.String("multi\nline"), sheet.Rows[2].Cells[2])
	assert.Equal(t, 7, sheet.Rows[3].Line)
}

func TestReadCSV_ByteOrderMarks(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   []byte
	}{
		{name: "utf-8 bom", in: append([]byte{0xEF, 0xBB, 0xBF}, "manager_empid,employee_empid\nM1,Émile\n"...)},
		{name: "utf-16le bom", in: utf16LE("manager_empid,employee_empid\nM1,Émile\n")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			sheet, err := ReadCSV("rel", bytes.NewReader(tc.in))
			require.NoError(t, err)
			assert.Equal(t, []string{"manager_empid", "employee_empid"}, sheet.Header)
			require.Len(t, sheet.Rows, 1)
			assert.Equal(t, domain.String("Émile"), sheet.Rows[0].Cells[1])
		})
	}
}

func TestReadCSV_MissingHeader(t *testing.T) {
	t.Parallel()

	_, err := ReadCSV("rel", strings.NewReader(""))
	require.ErrorIs(t, err, ErrMissingHeader)
}
