package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreadcrumbTransitions(t *testing.T) {
	root := MonthlyBreadcrumb()
	assert.Equal(t, "Main Report", root.String())

	daily, err := root.DrillToDaily("2024-01", catGloves, "Gloves")
	require.NoError(t, err)
	assert.Equal(t, DetailLevelDaily, daily.Level)
	assert.Equal(t, "Main Report > 2024-01 Details > Gloves", daily.String())

	invoice, err := daily.DrillToInvoice(day("2024-01-05"), 0, "")
	require.NoError(t, err)
	assert.Equal(t, DetailLevelInvoice, invoice.Level)
	assert.Equal(t, catGloves, invoice.CategoryId, "category carries over from the daily view")
	assert.Equal(t, "Main Report > 2024-01 > 05.01.2024 Invoices > Gloves", invoice.String())

	back := invoice.Back()
	assert.Equal(t, DetailLevelDaily, back.Level)
	assert.Equal(t, "2024-01", back.Month)
	assert.Empty(t, back.Date)

	assert.Equal(t, root, back.Back())
	assert.Equal(t, root, root.Back())
}

func TestBreadcrumbMissingContext(t *testing.T) {
	root := MonthlyBreadcrumb()

	_, err := root.DrillToDaily("", 0, "")
	assert.ErrorIs(t, err, ErrMissingContext)

	_, err = root.DrillToInvoice(day("2024-01-05"), 0, "")
	assert.ErrorIs(t, err, ErrMissingContext, "invoice level needs a month")

	daily, err := root.DrillToDaily("2024-01", 0, "")
	require.NoError(t, err)
	_, err = daily.DrillToInvoice(day("2024-02-05"), 0, "")
	assert.ErrorIs(t, err, ErrInvalidFilter)
}

func TestSupplierBreadcrumbTransitions(t *testing.T) {
	root := SupplierSummaryBreadcrumb()

	_, err := root.DrillToInvoiceLines(1, "INV/001")
	assert.ErrorIs(t, err, ErrMissingContext)
	_, err = root.DrillToSupplierMonth(0, "", "2024-01")
	assert.ErrorIs(t, err, ErrMissingContext)
	_, err = root.DrillToSupplierMonth(supplierAcme, "Acme Medical", "")
	assert.ErrorIs(t, err, ErrMissingContext)

	month, err := root.DrillToSupplierMonth(supplierAcme, "Acme Medical", "2024-01")
	require.NoError(t, err)
	assert.Equal(t, "Main Report > Acme Medical > 2024-01", month.String())

	lines, err := month.DrillToInvoiceLines(1, "INV/001")
	require.NoError(t, err)
	assert.Equal(t, SupplierLevelInvoiceLines, lines.Level)
	assert.Equal(t, "Main Report > Acme Medical > 2024-01 > INV/001", lines.String())

	assert.Equal(t, month, lines.Back())
	assert.Equal(t, root, month.Back())
}
