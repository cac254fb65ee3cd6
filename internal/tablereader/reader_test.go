package tablereader

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReader_ReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"comma", "id_card,total_price\n9643123456789012345,12.5\n\n,3\n"},
		{"semicolon", "id_card;total_price\n9643123456789012345;12.5\n;3\n"},
		{"bom and crlf", "\xEF\xBB\xBFid_card,total_price\r\n9643123456789012345,12.5\r\n,3\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "data.csv", tt.content)
			table, err := NewReader(logging.NewMockLogger()).Read(path)
			require.NoError(t, err)

			assert.Equal(t, []string{"id_card", "total_price"}, table.Headers)
			require.Len(t, table.Rows, 2)
			assert.Equal(t, "9643123456789012345", Cell(table.Rows[0], 0))
			assert.Equal(t, "12.5", Cell(table.Rows[0], 1))
			assert.Equal(t, "", Cell(table.Rows[1], 0))
		})
	}
}

func TestReader_ReadCSV_HeaderOnly(t *testing.T) {
	path := writeFile(t, t.TempDir(), "empty.csv", "id_card,total_price\n")
	table, err := NewReader(logging.NewMockLogger()).Read(path)
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
}

func TestReader_ReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"ID_Card", "Total Price", "id_transaction"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"9643123456789012345", "12.5", "T1"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	table, err := NewReader(logging.NewMockLogger()).Read(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"ID_Card", "Total Price", "id_transaction"}, table.Headers)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "T1", Cell(table.Rows[0], 2))
}

func TestReader_ReadXLS(t *testing.T) {
	table, err := NewReader(logging.NewMockLogger()).Read(filepath.Join("testdata", "sales.xls"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id_transaction", "id_card", "total_price", "total_discount", "datetime_transaction"}, table.Headers)
	require.Len(t, table.Rows, 2, "the undefined row between the records is skipped")

	assert.Equal(t, "T1", Cell(table.Rows[0], 0))
	assert.Equal(t, "9643123456789012345", Cell(table.Rows[0], 1))
	assert.Equal(t, "12.50", Cell(table.Rows[0], 2))
	assert.Equal(t, "1.00", Cell(table.Rows[0], 3))
	assert.Equal(t, "2024-01-15 10:30:00", Cell(table.Rows[0], 4))

	assert.Equal(t, "T2", Cell(table.Rows[1], 0))
	assert.Equal(t, "7", Cell(table.Rows[1], 2))
	assert.Equal(t, "", Cell(table.Rows[1], 3))
}

func TestReader_Unreadable(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		path string
	}{
		{"corrupt xlsx", writeFile(t, dir, "bad.xlsx", "not a zip")},
		{"corrupt xls", writeFile(t, dir, "bad.xls", "not a workbook")},
		{"empty csv", writeFile(t, dir, "blank.csv", "\n\n")},
		{"missing file", filepath.Join(dir, "absent.csv")},
		{"unsupported", writeFile(t, dir, "notes.txt", "x")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, err := NewReader(logging.NewMockLogger()).Read(tt.path)
			assert.Nil(t, table)
			var unreadable *ingesterror.FileUnreadableError
			assert.True(t, errors.As(err, &unreadable), "got %v", err)
		})
	}
}

func TestSniffDelimiter(t *testing.T) {
	assert.Equal(t, ';', SniffDelimiter("a;b"))
	assert.Equal(t, ',', SniffDelimiter("a,b"))
	assert.Equal(t, ',', SniffDelimiter("single"))
}

func TestCell(t *testing.T) {
	row := []string{" a ", "b"}
	assert.Equal(t, "a", Cell(row, 0))
	assert.Equal(t, "", Cell(row, 5))
	assert.Equal(t, "", Cell(row, -1))
}
