// Package report renders the balances of licenses as an Excel workbook.
package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/licensedesk/backend/internal/models"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
	"gorm.io/gorm"
)

const (
	SheetItems   = "Balances"
	SheetSummary = "Summary"
)

var itemHeader = []any{
	"License", "Kind", "Exporter", "Serial Number", "Description", "HS Code", "Unit",
	"Quantity", "CIF Value", "Allotted Quantity", "Allotted CIF Value", "Balance Quantity", "Balance CIF Value",
}

var summaryHeader = []any{"License", "Items", "CIF Value", "Allotted CIF Value", "Balance CIF Value"}

// printer formats amounts with Indian digit grouping, e.g. 12,34,567.50.
var printer = message.NewPrinter(language.MustParse("en-IN"))

// Format formats an amount with two decimal places and Indian digit grouping.
func Format(d decimal.Decimal) string {
	return printer.Sprint(number.Decimal(d.Round(2).InexactFloat64(), number.MinFractionDigits(2), number.MaxFractionDigits(2)))
}

// Balances returns a workbook with the balance of every import item and a
// summary per license. If licenseID is not uuid.Nil, only that license is included.
func Balances(ctx context.Context, db *gorm.DB, licenseID uuid.UUID) (*excelize.File, error) {
	db = db.WithContext(ctx)

	var licenses []models.License
	q := db.Order("number ASC")
	if licenseID != uuid.Nil {
		q = q.Where("id = ?", licenseID)
	}

	err := q.Find(&licenses).Error
	if err != nil {
		return nil, err
	}

	if licenseID != uuid.Nil && len(licenses) == 0 {
		return nil, fmt.Errorf("%w license matching your query", models.ErrResourceNotFound)
	}

	f := excelize.NewFile()
	err = f.SetSheetName(f.GetSheetName(0), SheetItems)
	if err != nil {
		return nil, err
	}

	_, err = f.NewSheet(SheetSummary)
	if err != nil {
		return nil, err
	}

	err = writeRow(f, SheetItems, 1, itemHeader)
	if err == nil {
		err = writeRow(f, SheetSummary, 1, summaryHeader)
	}
	if err != nil {
		return nil, err
	}

	itemRow, summaryRow := 2, 2
	for _, license := range licenses {
		var items []models.ImportItem
		err = db.Where("license_id = ?", license.ID).Order("serial_number ASC").Find(&items).Error
		if err != nil {
			return nil, err
		}

		cif, balance := decimal.Zero, decimal.Zero
		for _, item := range items {
			err = writeRow(f, SheetItems, itemRow, []any{
				license.Number,
				string(license.Kind),
				license.Exporter,
				item.SerialNumber,
				item.Description,
				item.HSCode,
				item.Unit,
				item.Quantity.InexactFloat64(),
				item.CIFValue.InexactFloat64(),
				item.AllottedQuantity().InexactFloat64(),
				item.AllottedCIFValue().InexactFloat64(),
				item.BalanceQuantity.InexactFloat64(),
				item.BalanceCIFValue.InexactFloat64(),
			})
			if err != nil {
				return nil, err
			}

			itemRow++
			cif = cif.Add(item.CIFValue)
			balance = balance.Add(item.BalanceCIFValue)
		}

		err = writeRow(f, SheetSummary, summaryRow, []any{
			license.Number,
			len(items),
			Format(cif),
			Format(cif.Sub(balance)),
			Format(balance),
		})
		if err != nil {
			return nil, err
		}
		summaryRow++
	}

	return f, nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}

	return f.SetSheetRow(sheet, cell, &values)
}
