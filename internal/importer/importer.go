// Package importer reads the import items of a license from spreadsheets.
//
// The first row of the first sheet is the header. Columns are found by
// their header, so their order does not matter and unknown columns are
// ignored.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoRows            = errors.New("the file must contain a header and at least one row")
	ErrMissingColumn     = errors.New("the header is missing a required column")
)

// Suffixes are the file suffixes that can be imported.
var Suffixes = []string{".xlsx", ".xls", ".csv"}

// Read returns all rows of the first sheet of the file. suffix selects the
// format and is one of Suffixes.
func Read(r io.Reader, suffix string) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	switch strings.ToLower(suffix) {
	case ".xlsx":
		rows, err = readXLSX(data)
	case ".xls":
		rows, err = readXLS(data)
	case ".csv":
		rows, err = readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, suffix)
	}

	if err != nil {
		return nil, err
	}

	if len(rows) < 2 {
		return nil, ErrNoRows
	}

	return rows, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return f.GetRows(f.GetSheetName(0))
}

// readXLS parses legacy Excel files.
func readXLS(data []byte) ([][]string, error) {
	book, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}

	if book == nil {
		return nil, fmt.Errorf("%w: no workbook stream in the file", ErrUnsupportedFormat)
	}

	sheet := book.GetSheet(0)
	if sheet == nil || sheet.MaxRow == 0 {
		return nil, ErrNoRows
	}

	// ReadAllCells reads sheets in order until the row limit is reached,
	// so limiting it to the first sheet's rows only returns the first sheet.
	// Missing rows are returned as nil.
	return book.ReadAllCells(int(sheet.MaxRow) + 1), nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	return r.ReadAll()
}
