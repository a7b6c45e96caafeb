package reports

import (
	"context"
	"testing"

	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsRepeatable(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	report, err := svc.NewCategorySalesReport(ctx, janFebFilter())
	require.NoError(t, err)
	require.NotNil(t, report.Filter.TargetCurrency)
	assert.Equal(t, "USD", report.Filter.TargetCurrency.Symbol)

	require.NoError(t, svc.Generate(ctx, report))
	first := append([]MonthlyLine(nil), report.MonthlyLines...)

	require.NoError(t, svc.OpenDaily(ctx, report, "2024-01", catGloves))
	require.NotEmpty(t, report.DailyLines)

	require.NoError(t, svc.Generate(ctx, report))
	assert.Equal(t, first, report.MonthlyLines)
	assert.Empty(t, report.DailyLines, "generation clears the drill-down rows")
	assert.Equal(t, DetailLevelMonthly, report.Breadcrumb.Level)
	assert.Equal(t, "category_product_sales_report_2024-01-01_2024-02-29.xlsx", report.ExcelFilename)
}

func TestDrillDownFlow(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	report, err := svc.NewCategorySalesReport(ctx, janFebFilter())
	require.NoError(t, err)
	require.NoError(t, svc.Generate(ctx, report))

	require.NoError(t, svc.OpenDaily(ctx, report, "2024-01", catGloves))
	assert.Equal(t, "Main Report > 2024-01 Details > Gloves", report.BreadcrumbText)

	require.NoError(t, svc.OpenInvoices(ctx, report, day("2024-01-05"), 0))
	require.Len(t, report.InvoiceLines, 1)
	assert.Equal(t, DetailLevelInvoice, report.Breadcrumb.Level)

	report.Back()
	assert.Equal(t, DetailLevelDaily, report.Breadcrumb.Level)
	report.Back()
	assert.Equal(t, "Main Report", report.BreadcrumbText)
}

func TestFailedDrillDownKeepsState(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	report, err := svc.NewCategorySalesReport(ctx, janFebFilter())
	require.NoError(t, err)
	require.NoError(t, svc.Generate(ctx, report))

	err = svc.OpenInvoices(ctx, report, day("2024-01-05"), 0)
	assert.ErrorIs(t, err, ErrMissingContext)
	assert.Equal(t, DetailLevelMonthly, report.Breadcrumb.Level)
	assert.Empty(t, report.InvoiceLines)
}

func TestSupplierReportFlow(t *testing.T) {
	svc, _, _ := newFixtureService()
	ctx := context.Background()

	report, err := svc.NewSupplierSalesReport(ctx, supplierFilter())
	require.NoError(t, err)
	require.NoError(t, svc.GenerateSupplier(ctx, report))
	require.Len(t, report.MainLines, 3)

	require.NoError(t, svc.OpenSupplierMonth(ctx, report, supplierAcme, "2024-01"))
	assert.Equal(t, "Main Report > Acme Medical > 2024-01", report.BreadcrumbText)
	require.Len(t, report.SupplierMonthLines, 1)

	require.NoError(t, svc.OpenSupplierInvoiceLines(ctx, report, 1))
	assert.Len(t, report.InvoiceLineLines, 2)
	assert.Equal(t, "Main Report > Acme Medical > 2024-01 > INV/001", report.BreadcrumbText)

	report.Back()
	assert.Equal(t, SupplierLevelSupplierMonth, report.Breadcrumb.Level)
}

func TestUpdateSessionWithMemoryStore(t *testing.T) {
	svc, _, _ := newFixtureService()
	store := NewMemorySessionStore()
	ctx := utils.SetBusinessIdInContext(context.Background(), "biz-1")

	report, err := svc.NewCategorySalesReport(ctx, janFebFilter())
	require.NoError(t, err)
	require.NoError(t, svc.Generate(ctx, report))
	require.NoError(t, store.Save(ctx, SessionKindCategory, report.ID, report))

	updated, err := UpdateSession(ctx, store, SessionKindCategory, report.ID, func(r *CategorySalesReport) error {
		return svc.OpenDaily(ctx, r, "2024-01", 0)
	})
	require.NoError(t, err)
	assert.NotEmpty(t, updated.DailyLines)

	loaded, err := LoadSession[CategorySalesReport](ctx, store, SessionKindCategory, report.ID)
	require.NoError(t, err)
	assert.Equal(t, DetailLevelDaily, loaded.Breadcrumb.Level)
	assert.Equal(t, len(updated.DailyLines), len(loaded.DailyLines))

	_, err = UpdateSession(ctx, store, SessionKindCategory, report.ID, func(r *CategorySalesReport) error {
		return svc.OpenInvoices(ctx, r, day("2024-03-05"), 0)
	})
	assert.Error(t, err)
	unchanged, err := LoadSession[CategorySalesReport](ctx, store, SessionKindCategory, report.ID)
	require.NoError(t, err)
	assert.Equal(t, DetailLevelDaily, unchanged.Breadcrumb.Level, "failed updates are not saved")

	other := utils.SetBusinessIdInContext(context.Background(), "biz-2")
	_, err = LoadSession[CategorySalesReport](other, store, SessionKindCategory, report.ID)
	assert.ErrorIs(t, err, ErrReportNotFound, "sessions are scoped to the business")

	require.NoError(t, store.Delete(ctx, SessionKindCategory, report.ID))
	_, err = UpdateSession(ctx, store, SessionKindCategory, report.ID, func(r *CategorySalesReport) error { return nil })
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestMemoryStoreLockFailsFast(t *testing.T) {
	store := NewMemorySessionStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, SessionKindSupplier, "r1", map[string]int{"n": 0}))

	unlock, err := store.Lock(ctx, SessionKindSupplier, "r1")
	require.NoError(t, err)

	_, err = UpdateSession(ctx, store, SessionKindSupplier, "r1", func(m *map[string]int) error {
		(*m)["n"]++
		return nil
	})
	assert.ErrorIs(t, err, ErrReportBusy)

	unlock()
	unlock()
	assert.Empty(t, store.held, "released locks are dropped")

	updated, err := UpdateSession(ctx, store, SessionKindSupplier, "r1", func(m *map[string]int) error {
		(*m)["n"]++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, (*updated)["n"])
	assert.Empty(t, store.held)
}
