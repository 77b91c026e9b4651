package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
)

type column int

const (
	columnSerial column = iota
	columnDescription
	columnHSCode
	columnUnit
	columnQuantity
	columnCIFValue
)

// headers maps normalized header texts to columns.
var headers = map[string]column{
	"sno":          columnSerial,
	"srno":         columnSerial,
	"serial":       columnSerial,
	"serialnumber": columnSerial,
	"serialno":     columnSerial,
	"description":  columnDescription,
	"item":         columnDescription,
	"itemname":     columnDescription,
	"hscode":       columnHSCode,
	"itchs":        columnHSCode,
	"itchscode":    columnHSCode,
	"hs":           columnHSCode,
	"unit":         columnUnit,
	"uom":          columnUnit,
	"quantity":     columnQuantity,
	"qty":          columnQuantity,
	"cifvalue":     columnCIFValue,
	"cif":          columnCIFValue,
	"value":        columnCIFValue,
	"cifvaluefc":   columnCIFValue,
	"cifvalueusd":  columnCIFValue,
}

// Row is the result of importing one row of a file.
type Row struct {
	Number int               // Row number in the file, starting at 1 for the header
	Item   models.ImportItem // The parsed import item, only valid if Err is nil
	Err    error
}

// Items parses rows into import items for a license. Empty rows are skipped.
func Items(licenseID uuid.UUID, rows [][]string) ([]Row, error) {
	index, err := columns(rows[0])
	if err != nil {
		return nil, err
	}

	var result []Row
	for i, cells := range rows[1:] {
		if blank(cells) {
			continue
		}

		item, err := parseItem(index, cells)
		item.LicenseID = licenseID
		result = append(result, Row{
			Number: i + 2,
			Item:   item,
			Err:    err,
		})
	}

	return result, nil
}

// columns returns the position of every known column in the header.
func columns(header []string) (map[column]int, error) {
	index := make(map[column]int)
	for i, text := range header {
		c, ok := headers[normalize(text)]
		if !ok {
			continue
		}

		if _, seen := index[c]; !seen {
			index[c] = i
		}
	}

	for _, required := range []struct {
		column column
		name   string
	}{
		{columnSerial, "serial number"},
		{columnQuantity, "quantity"},
		{columnCIFValue, "CIF value"},
	} {
		if _, ok := index[required.column]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required.name)
		}
	}

	return index, nil
}

func parseItem(index map[column]int, cells []string) (models.ImportItem, error) {
	cell := func(c column) string {
		i, ok := index[c]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	serial, err := strconv.Atoi(strings.TrimSuffix(cell(columnSerial), ".0"))
	if err != nil {
		return models.ImportItem{}, fmt.Errorf("serial number %q is not a number", cell(columnSerial))
	}

	quantity, err := parseAmount(cell(columnQuantity))
	if err != nil {
		return models.ImportItem{}, fmt.Errorf("quantity: %w", err)
	}

	value, err := parseAmount(cell(columnCIFValue))
	if err != nil {
		return models.ImportItem{}, fmt.Errorf("CIF value: %w", err)
	}

	return models.ImportItem{
		SerialNumber: serial,
		Description:  cell(columnDescription),
		HSCode:       cell(columnHSCode),
		Unit:         cell(columnUnit),
		Quantity:     quantity,
		CIFValue:     value,
	}, nil
}

// parseAmount parses numbers with thousands separators, e.g. "1,00,000.50".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" || s == "-" {
		return decimal.Zero, nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not a number", s)
	}

	return d, nil
}

// normalize lower cases the header text and removes everything that
// is not a letter or digit.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}

	return true
}
