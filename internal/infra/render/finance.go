package render

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/bryanwahyu/upstarter/internal/domain/finance"
)

const (
	projectionSheet = "Proiezione"
	summarySheet    = "Riepilogo"
)

// ProjectionXLSX writes the monthly table and a summary sheet.
func ProjectionXLSX(p *finance.Projection) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", projectionSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, err
	}
	activeIndex, _ := f.GetSheetIndex(projectionSheet)
	f.SetActiveSheet(activeIndex)

	money, err := f.NewStyle(&excelize.Style{NumFmt: 4}) // #,##0.00
	if err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	headers := []string{"Mese", "Ricavi (" + p.Currency + ")", "Costi (" + p.Currency + ")", "Netto (" + p.Currency + ")", "Cassa (" + p.Currency + ")"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(projectionSheet, cell, h)
	}
	_ = f.SetCellStyle(projectionSheet, "A1", "E1", bold)

	row := 2
	for _, m := range p.Months {
		write := func(col int, v any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(projectionSheet, cell, v)
		}
		write(1, m.Month)
		write(2, m.Revenue)
		write(3, m.Costs)
		write(4, m.Net)
		write(5, m.Cash)
		row++
	}
	if len(p.Months) > 0 {
		last, _ := excelize.CoordinatesToCellName(5, row-1)
		_ = f.SetCellStyle(projectionSheet, "B2", last, money)
	}
	_ = f.SetColWidth(projectionSheet, "A", "A", 8)
	_ = f.SetColWidth(projectionSheet, "B", "E", 18)

	summary := [][2]any{
		{"Valuta", p.Currency},
		{"Ricavi totali", p.TotalRevenue},
		{"Costi totali", p.TotalCosts},
		{"Mese di pareggio", breakEvenLabel(p.BreakEvenMonth)},
		{"Runway (mesi)", p.RunwayMonths},
		{"Fabbisogno finanziario", p.FundingNeeded},
	}
	for i, kv := range summary {
		r := i + 1
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", r), kv[0])
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", r), kv[1])
	}
	_ = f.SetCellStyle(summarySheet, "A1", fmt.Sprintf("A%d", len(summary)), bold)
	_ = f.SetColWidth(summarySheet, "A", "A", 26)
	_ = f.SetColWidth(summarySheet, "B", "B", 18)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func breakEvenLabel(month int) any {
	if month == 0 {
		return "non raggiunto"
	}
	return month
}
