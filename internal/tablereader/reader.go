// Package tablereader loads CSV and Excel exports into header + string rows.
package tablereader

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"cardflow/txn-uploader/internal/ingesterror"
	"cardflow/txn-uploader/internal/logging"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Table is the first sheet (or the whole CSV) of one file.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Cell returns the trimmed value at row/col, or "" when the row is short or
// col is negative.
func Cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

// Reader reads tables from files.
type Reader struct {
	logger logging.Logger
}

// NewReader creates a new Reader.
func NewReader(logger logging.Logger) *Reader {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Reader{logger: logger}
}

// Read dispatches on the file extension. Any failure is returned as a
// *ingesterror.FileUnreadableError.
func (r *Reader) Read(path string) (*Table, error) {
	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		rows, err = r.readCSV(path)
	case ".xlsx":
		rows, err = readXLSX(path)
	case ".xls":
		rows, err = readXLS(path)
	default:
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "unsupported extension " + ext}
	}
	if err != nil {
		var unreadable *ingesterror.FileUnreadableError
		if errors.As(err, &unreadable) {
			return nil, err
		}
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "read failed", Err: err}
	}
	return buildTable(path, rows)
}

func buildTable(path string, rows [][]string) (*Table, error) {
	start := 0
	for start < len(rows) && isBlank(rows[start]) {
		start++
	}
	if start == len(rows) {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "no header row"}
	}

	headers := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		headers[i] = strings.TrimSpace(h)
	}

	table := &Table{Headers: headers}
	for _, row := range rows[start+1:] {
		if isBlank(row) {
			continue
		}
		table.Rows = append(table.Rows, row)
	}
	return table, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// SniffDelimiter returns ';' when the first line contains one, ',' otherwise.
func SniffDelimiter(firstLine string) rune {
	if strings.Contains(firstLine, ";") {
		return ';'
	}
	return ','
}

func (r *Reader) readCSV(path string) ([][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	firstLine, _ := bufio.NewReader(bytes.NewReader(data)).ReadString('\n')
	delimiter := SniffDelimiter(firstLine)
	r.logger.Debug("Detected CSV delimiter",
		logging.F(logging.FieldFile, path),
		logging.F(logging.FieldDelimiter, string(delimiter)))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "invalid CSV", Err: err}
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "invalid XLSX workbook", Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %s: %w", sheet, err)
	}
	return rows, nil
}

// readXLS reads the first sheet of a BIFF workbook. The decoder panics on
// some corrupt files, so panics are turned into errors.
func readXLS(path string) (rows [][]string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			rows = nil
			err = &ingesterror.FileUnreadableError{
				FilePath: path,
				Reason:   "invalid XLS workbook",
				Err:      fmt.Errorf("%v", rec),
			}
		}
	}()

	file, err := os.Open(path)
	if err != nil {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "cannot open file", Err: err}
	}
	defer file.Close()

	book, err := xls.OpenReader(file, "utf-8")
	if err != nil {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "invalid XLS workbook", Err: err}
	}
	if book == nil {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "invalid XLS workbook", Err: errors.New("no Workbook stream")}
	}
	sheet := book.GetSheet(0)
	if sheet == nil {
		return nil, &ingesterror.FileUnreadableError{FilePath: path, Reason: "workbook has no sheets"}
	}

	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := xlsRow(sheet, i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// xlsRow returns nil for rows the sheet does not define; the library
// dereferences the missing row instead.
func xlsRow(sheet *xls.WorkSheet, i int) (row *xls.Row) {
	defer func() {
		if recover() != nil {
			row = nil
		}
	}()
	return sheet.Row(i)
}
