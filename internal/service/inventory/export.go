package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mamadbah2/farmerp/internal/domain/models"
)

const valuationSheet = "Valuation"

var valuationHeaders = []string{"Item", "Category", "Unit", "Owner", "Quantity", "Average cost", "Total cost"}

// ExportValuation renders the stock valuation as a workbook, optionally for one owner.
func (s *Service) ExportValuation(ctx context.Context, owner models.Owner) (*excelize.File, string, error) {
	if owner != "" && !owner.Valid() {
		return nil, "", models.Validationf("invalid owner %q", owner)
	}

	rows, err := s.store.Reports().InventoryValuation(ctx, owner)
	if err != nil {
		return nil, "", fmt.Errorf("inventory valuation: %w", err)
	}

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", valuationSheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	for i, h := range valuationHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(valuationSheet, cell, h)
		f.SetCellStyle(valuationSheet, cell, cell, headerStyle)
	}

	total := decimal.Zero
	for i, row := range rows {
		r := i + 2
		values := []any{
			row.ItemName,
			string(row.Category),
			row.Unit,
			string(row.Owner),
			row.Quantity.InexactFloat64(),
			row.AverageCost.Round(4).InexactFloat64(),
			row.TotalCost.Round(2).InexactFloat64(),
		}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			f.SetCellValue(valuationSheet, fmt.Sprintf("%s%d", col, r), v)
		}
		total = total.Add(row.TotalCost)
	}

	summaryRow := len(rows) + 3
	summaryStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	f.SetCellValue(valuationSheet, fmt.Sprintf("A%d", summaryRow), "Total")
	f.SetCellValue(valuationSheet, fmt.Sprintf("G%d", summaryRow), total.Round(2).InexactFloat64())
	f.SetCellStyle(valuationSheet, fmt.Sprintf("A%d", summaryRow), fmt.Sprintf("G%d", summaryRow), summaryStyle)

	widths := []float64{28, 14, 10, 14, 12, 14, 14}
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(valuationSheet, col, col, w)
	}

	scope := "all"
	if owner != "" {
		scope = string(owner)
	}
	filename := fmt.Sprintf("inventory_valuation_%s_%s.xlsx", scope, time.Now().Format("20060102"))
	return f, filename, nil
}
