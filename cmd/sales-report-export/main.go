package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/models"
	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/mmdatafocus/sales_report_backend/utils"
)

func main() {
	businessID := flag.String("business-id", "", "Business to report on (required). Leave empty to list the businesses that have companies.")
	from := flag.String("from", "", "Start date (YYYY-MM-DD, inclusive)")
	to := flag.String("to", "", "End date (YYYY-MM-DD, inclusive)")
	kind := flag.String("kind", reports.SessionKindCategory, "Report kind: category or supplier")
	categories := flag.String("categories", "", "Comma-separated category ids (empty = all)")
	products := flag.String("products", "", "Comma-separated product ids for a per-product breakdown")
	suppliers := flag.String("suppliers", "", "Comma-separated supplier ids (empty = all active suppliers)")
	currency := flag.String("currency", "", "Target currency symbol (default REPORT_REFERENCE_CURRENCY)")
	includeSub := flag.Bool("include-subcategories", true, "Include descendants of the selected categories")
	out := flag.String("out", "", "Output file (default: the report's workbook filename)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}

	if strings.TrimSpace(*businessID) == "" {
		listBusinesses(ctx)
		os.Exit(2)
	}
	ctx = utils.SetBusinessIdInContext(ctx, strings.TrimSpace(*businessID))
	ctx = utils.SetUsernameInContext(ctx, "SalesReportExport")

	dateFrom, err := utils.ParseDate(*from)
	if err != nil {
		fatalf("invalid -from: %v", err)
	}
	dateTo, err := utils.ParseDate(*to)
	if err != nil {
		fatalf("invalid -to: %v", err)
	}

	ledger := models.NewLedgerStore(db)
	svc := reports.NewSalesReportService(ledger, models.NewRateTableConverter(db))

	targetCurrencyId := 0
	if sym := strings.TrimSpace(*currency); sym != "" {
		cur, err := ledger.CurrencyBySymbol(ctx, sym)
		if err != nil {
			fatalf("lookup currency %s: %v", sym, err)
		}
		if cur == nil {
			fatalf("currency %s not found", sym)
		}
		targetCurrencyId = cur.ID
	}

	var (
		data     []byte
		filename string
	)
	switch strings.ToLower(strings.TrimSpace(*kind)) {
	case reports.SessionKindCategory:
		categoryIds, err := utils.ParseIntList(*categories)
		if err != nil {
			fatalf("invalid -categories: %v", err)
		}
		productIds, err := utils.ParseIntList(*products)
		if err != nil {
			fatalf("invalid -products: %v", err)
		}
		report, err := svc.NewCategorySalesReport(ctx, reports.FilterSpec{
			DateFrom:             dateFrom,
			DateTo:               dateTo,
			CategoryIds:          categoryIds,
			ProductIds:           productIds,
			IncludeSubcategories: *includeSub,
			TargetCurrencyId:     targetCurrencyId,
		})
		if err != nil {
			fatalf("build report: %v", err)
		}
		if err := svc.Generate(ctx, report); err != nil {
			fatalf("generate report: %v", err)
		}
		data, err = reports.CategoryWorkbook(report)
		if err != nil {
			fatalf("write workbook: %v", err)
		}
		filename = report.ExcelFilename
		fmt.Printf("category report: %d rows\n", len(report.MonthlyLines))

	case reports.SessionKindSupplier:
		supplierIds, err := utils.ParseIntList(*suppliers)
		if err != nil {
			fatalf("invalid -suppliers: %v", err)
		}
		report, err := svc.NewSupplierSalesReport(ctx, reports.SupplierFilter{
			DateFrom:         dateFrom,
			DateTo:           dateTo,
			SupplierIds:      supplierIds,
			TargetCurrencyId: targetCurrencyId,
		})
		if err != nil {
			fatalf("build report: %v", err)
		}
		if err := svc.GenerateSupplier(ctx, report); err != nil {
			fatalf("generate report: %v", err)
		}
		data, err = reports.SupplierWorkbook(report)
		if err != nil {
			fatalf("write workbook: %v", err)
		}
		filename = report.ExcelFilename
		fmt.Printf("supplier report: %d rows\n", len(report.MainLines))

	default:
		fatalf("unknown -kind %q (want category or supplier)", *kind)
	}

	if strings.TrimSpace(*out) != "" {
		filename = strings.TrimSpace(*out)
	}
	if err := os.WriteFile(filename, data, 0o644); err != nil {
		fatalf("write %s: %v", filename, err)
	}
	fmt.Printf("wrote %s (%d bytes)\n", filename, len(data))
}

// listBusinesses prints every business id that owns a company.
func listBusinesses(ctx context.Context) {
	ctx = utils.SetSkipTenantScopeInContext(ctx, true)
	var ids []string
	if err := config.GetDB().WithContext(ctx).Model(&models.Company{}).Distinct("business_id").Order("business_id").Pluck("business_id", &ids).Error; err != nil {
		fatalf("list businesses: %v", err)
	}
	fmt.Fprintln(os.Stderr, "-business-id is required; known businesses:")
	for _, id := range ids {
		fmt.Fprintln(os.Stderr, "  "+id)
	}
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
