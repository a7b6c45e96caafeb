package reports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func supplierFilter() SupplierFilter {
	return SupplierFilter{DateFrom: day("2024-01-01"), DateTo: day("2024-02-29")}
}

func TestSupplierMonthlyRollup(t *testing.T) {
	svc, _, _ := newFixtureService()

	rows, err := svc.SupplierMonthlyRollup(context.Background(), supplierFilter())
	require.NoError(t, err)
	require.Len(t, rows, 3)

	acmeJan := rows[0]
	assert.Equal(t, "Acme Medical", acmeJan.SupplierName)
	assert.Equal(t, "2024-01", acmeJan.Month)
	assert.Equal(t, "150", acmeJan.TotalSales.String())
	assert.Equal(t, "50", acmeJan.TotalCost.String())
	assert.Equal(t, "100", acmeJan.Margin.Margin.String())
	assert.Equal(t, "66.67", acmeJan.MarginPercent.String())

	acmeFeb := rows[1]
	assert.Equal(t, "2024-02", acmeFeb.Month)
	assert.Equal(t, "30", acmeFeb.TotalSales.String(), "credit notes are absolute")
	assert.Equal(t, "6", acmeFeb.TotalCost.String())

	beta := rows[2]
	assert.Equal(t, "Beta Supply", beta.SupplierName)
	// 20 USD on INV/001 plus 40 EUR at 0.5
	assert.Equal(t, "100", beta.TotalSales.String())
	assert.Equal(t, "30", beta.TotalCost.String())
	assert.Equal(t, "70", beta.MarginPercent.String())
}

func TestSupplierRollupUsesFirstRankedVendorOnly(t *testing.T) {
	svc, _, _ := newFixtureService()
	filter := supplierFilter()
	filter.SupplierIds = []int{supplierBeta}

	rows, err := svc.SupplierMonthlyRollup(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	// Nitrile lists Beta as second vendor and never counts for it
	assert.Equal(t, "100", rows[0].TotalSales.String())
}

func TestSupplierRollupNoSuppliers(t *testing.T) {
	svc, ledger, _ := newFixtureService()
	ledger.suppliers = nil

	_, err := svc.SupplierMonthlyRollup(context.Background(), supplierFilter())
	assert.ErrorIs(t, err, ErrNoSuppliers)
}

func TestSupplierMonthInvoices(t *testing.T) {
	svc, _, _ := newFixtureService()

	rows, err := svc.SupplierMonthInvoices(context.Background(), supplierFilter(), supplierBeta, "2024-01")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "INV/001", rows[0].InvoiceName)
	assert.Equal(t, "20", rows[0].TotalSales.String())
	assert.Equal(t, "10", rows[0].TotalCost.String())
	assert.Equal(t, "INV/002", rows[1].InvoiceName)
	assert.Equal(t, "80", rows[1].TotalSales.String())

	_, err = svc.SupplierMonthInvoices(context.Background(), supplierFilter(), 0, "2024-01")
	assert.ErrorIs(t, err, ErrMissingContext)
	_, err = svc.SupplierMonthInvoices(context.Background(), supplierFilter(), supplierBeta, "")
	assert.ErrorIs(t, err, ErrMissingContext)
}

func TestSupplierInvoiceLines(t *testing.T) {
	svc, _, _ := newFixtureService()

	lines, err := svc.SupplierInvoiceLines(context.Background(), supplierFilter(), supplierAcme, 1)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, "[GLV-1] Nitrile Gloves", lines[0].ProductName)
	assert.Equal(t, "80", lines[0].Margin.Margin.String())
	assert.Equal(t, "[MSK] Surgical Mask", lines[1].ProductName)
	assert.Equal(t, "20", lines[1].Margin.Margin.String())
	assert.Equal(t, "40", lines[1].MarginPercent.String())

	beta, err := svc.SupplierInvoiceLines(context.Background(), supplierFilter(), supplierBeta, 1)
	require.NoError(t, err)
	require.Len(t, beta, 1)
	assert.Equal(t, prodLatex, beta[0].ProductId)

	_, err = svc.SupplierInvoiceLines(context.Background(), supplierFilter(), supplierAcme, 0)
	assert.ErrorIs(t, err, ErrMissingContext)
	_, err = svc.SupplierInvoiceLines(context.Background(), supplierFilter(), supplierAcme, 4)
	assert.ErrorIs(t, err, ErrInvalidFilter, "draft invoices are not reported")
}

func TestSupplierDrillDownStaysInsideSelection(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	onlyAcme := supplierFilter()
	onlyAcme.SupplierIds = []int{supplierAcme}
	_, err := svc.SupplierMonthInvoices(ctx, onlyAcme, supplierBeta, "2024-01")
	assert.ErrorIs(t, err, ErrInvalidFilter)
	_, err = svc.SupplierInvoiceLines(ctx, onlyAcme, supplierBeta, 1)
	assert.ErrorIs(t, err, ErrInvalidFilter)

	lines, err := svc.SupplierInvoiceLines(ctx, onlyAcme, supplierAcme, 1)
	require.NoError(t, err)
	assert.Len(t, lines, 2)

	february := SupplierFilter{DateFrom: day("2024-02-01"), DateTo: day("2024-02-29")}
	_, err = svc.SupplierInvoiceLines(ctx, february, supplierAcme, 1)
	assert.ErrorIs(t, err, ErrInvalidFilter, "INV/001 is dated before the window")
}
