package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/iliyamo/buildtrack/internal/model"
)

func TestBillOfMaterials(t *testing.T) {
	now := time.Date(2024, 3, 9, 12, 0, 0, 0, time.UTC)
	p := model.Project{ID: 12, Name: "Harbour Road"}
	orders := []model.MaterialOrder{
		{ID: 1, MaterialName: "cement", Unit: "bag", Quantity: 3, UnitPriceCents: 1250, TotalCostCents: 3750, OrderedBy: 5, CreatedAt: now},
		{ID: 2, MaterialName: "sand", Unit: "kg", Quantity: 10, UnitPriceCents: 20, TotalCostCents: 200, OrderedBy: 5, CreatedAt: now},
	}

	buf, err := BillOfMaterials(p, orders, now)
	require.NoError(t, err)

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{ordersSheet}, f.GetSheetList())

	title, err := f.GetCellValue(ordersSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "Bill of materials: Harbour Road", title)

	rows, err := f.GetRows(ordersSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 7)
	assert.Equal(t, "Material", rows[3][2])
	assert.Equal(t, "cement", rows[4][2])
	assert.Equal(t, "37.5", rows[4][6])
	assert.Equal(t, "sand", rows[5][2])
	assert.Equal(t, "Total", rows[6][5])
	assert.Equal(t, "39.5", rows[6][6])
}

func TestBillOfMaterialsEmpty(t *testing.T) {
	buf, err := BillOfMaterials(model.Project{ID: 1, Name: "Empty"}, nil, time.Now())
	require.NoError(t, err)
	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue(ordersSheet, "G5", excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "0", v)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "project-4-materials-20240309.xlsx", FileName(model.Project{ID: 4}, time.Date(2024, 3, 9, 23, 0, 0, 0, time.UTC)))
}
