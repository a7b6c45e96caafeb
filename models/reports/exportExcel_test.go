package reports

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestCategoryWorkbook(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()
	filter := janFebFilter()
	filter.ProductIds = []int{prodNitrile, prodLatex}

	report, err := svc.NewCategorySalesReport(ctx, filter)
	require.NoError(t, err)
	require.NoError(t, svc.Generate(ctx, report))

	data, err := CategoryWorkbook(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{CategorySalesSheet}, f.GetSheetList())
	header, err := f.GetCellValue(CategorySalesSheet, "D1")
	require.NoError(t, err)
	assert.Equal(t, "Total Sales (USD)", header)

	rows, err := f.GetRows(CategorySalesSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	// header, Jan TOTAL + 2 products, Feb TOTAL + 1 product
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"2024-01", "Gloves", "TOTAL", "200"}, rows[1])
	assert.Equal(t, []string{"2024-01", "Gloves", "[GLV-1] Nitrile Gloves", "100"}, rows[2])
	assert.Equal(t, []string{"2024-02", "Gloves", "[GLV-1] Nitrile Gloves", "30"}, rows[5])

	totals := 0
	for _, r := range rows[1:] {
		if len(r) > 2 && r[2] == "TOTAL" {
			totals++
		}
	}
	assert.Equal(t, 2, totals)

	width, err := f.GetColWidth(CategorySalesSheet, "C")
	require.NoError(t, err)
	assert.Equal(t, 40.0, width)
}

func TestSupplierWorkbook(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	report, err := svc.NewSupplierSalesReport(ctx, supplierFilter())
	require.NoError(t, err)
	require.NoError(t, svc.GenerateSupplier(ctx, report))
	assert.Equal(t, "supplier_sales_report_2024-01-01_2024-02-29.xlsx", report.ExcelFilename)

	data, err := SupplierWorkbook(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SupplierSalesSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Supplier", "Month", "Total Sales", "Total Cost", "Margin", "Margin %"}, rows[0])
	assert.Equal(t, []string{"Acme Medical", "2024-01", "150", "50", "100", "66.67"}, rows[1])
}
