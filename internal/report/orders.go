// Package report renders project data as downloadable spreadsheets.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/buildtrack/internal/model"
)

const ordersSheet = "Orders"

// ContentTypeXLSX is the media type of the files produced here.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var orderColumns = []struct {
	label string
	width float64
}{
	{"Order ID", 10},
	{"Date", 20},
	{"Material", 28},
	{"Unit", 10},
	{"Quantity", 12},
	{"Unit price", 14},
	{"Total", 16},
	{"Ordered by", 12},
}

// BillOfMaterials writes one row per order with the snapshot prices stored
// on the order, followed by a grand total.  Money columns are in currency
// units (cents / 100).
func BillOfMaterials(p model.Project, orders []model.MaterialOrder, now time.Time) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(ordersSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	titleStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}})
	if err != nil {
		return nil, err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return nil, err
	}
	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, err
	}
	totalStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}, CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, err
	}

	_ = f.SetCellValue(ordersSheet, "A1", fmt.Sprintf("Bill of materials: %s", p.Name))
	_ = f.SetCellStyle(ordersSheet, "A1", "A1", titleStyle)
	_ = f.SetRowHeight(ordersSheet, 1, 28)
	_ = f.SetCellValue(ordersSheet, "A2", fmt.Sprintf("Project #%d, generated %s", p.ID, now.UTC().Format("2006-01-02 15:04:05")))

	const headerRow = 4
	for i, col := range orderColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		_ = f.SetCellValue(ordersSheet, cell, col.label)
		_ = f.SetCellStyle(ordersSheet, cell, cell, headerStyle)
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(ordersSheet, name, name, col.width)
	}

	var total int64
	row := headerRow + 1
	for _, o := range orders {
		values := []any{
			o.ID,
			o.CreatedAt.UTC().Format("2006-01-02 15:04"),
			o.MaterialName,
			o.Unit,
			o.Quantity,
			cents(o.UnitPriceCents),
			cents(o.TotalCostCents),
			o.OrderedBy,
		}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(ordersSheet, cell, &values); err != nil {
			return nil, err
		}
		_ = f.SetCellStyle(ordersSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("G%d", row), moneyStyle)
		total += o.TotalCostCents
		row++
	}

	_ = f.SetCellValue(ordersSheet, fmt.Sprintf("F%d", row), "Total")
	_ = f.SetCellValue(ordersSheet, fmt.Sprintf("G%d", row), cents(total))
	_ = f.SetCellStyle(ordersSheet, fmt.Sprintf("F%d", row), fmt.Sprintf("G%d", row), totalStyle)

	return f.WriteToBuffer()
}

// FileName is the attachment name used for a project's export.
func FileName(p model.Project, now time.Time) string {
	return fmt.Sprintf("project-%d-materials-%s.xlsx", p.ID, now.UTC().Format("20060102"))
}

func cents(v int64) float64 { return float64(v) / 100 }
