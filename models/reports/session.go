package reports

import (
	"context"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
)

const (
	SessionKindCategory = "category"
	SessionKindSupplier = "supplier"
)

// CategorySalesReport is a generated category/product report with its
// drill-down position and the rows of every level.
type CategorySalesReport struct {
	ID             string          `json:"id"`
	Filter         FilterSpec      `json:"filter"`
	Breadcrumb     Breadcrumb      `json:"breadcrumb"`
	BreadcrumbText string          `json:"breadcrumbText"`
	MonthlyLines   []MonthlyLine   `json:"monthlyLines"`
	DailyLines     []DailyLine     `json:"dailyLines"`
	InvoiceLines   []InvoiceDetail `json:"invoiceLines"`
	ExcelFilename  string          `json:"excelFilename"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

type SupplierSalesReport struct {
	ID                 string                `json:"id"`
	Filter             SupplierFilter        `json:"filter"`
	Breadcrumb         SupplierBreadcrumb    `json:"breadcrumb"`
	BreadcrumbText     string                `json:"breadcrumbText"`
	MainLines          []SupplierRow         `json:"mainLines"`
	SupplierMonthLines []SupplierInvoiceRow  `json:"supplierMonthLines"`
	InvoiceLineLines   []SupplierInvoiceLine `json:"invoiceLineLines"`
	ExcelFilename      string                `json:"excelFilename"`
	GeneratedAt        time.Time             `json:"generatedAt"`
}

// NewCategorySalesReport validates the filter and resolves its target currency.
func (s *SalesReportService) NewCategorySalesReport(ctx context.Context, filter FilterSpec) (*CategorySalesReport, error) {
	if err := s.prepareFilter(ctx, &filter); err != nil {
		return nil, err
	}
	return &CategorySalesReport{
		ID:             utils.NewReportId(),
		Filter:         filter,
		Breadcrumb:     MonthlyBreadcrumb(),
		BreadcrumbText: MonthlyBreadcrumb().String(),
	}, nil
}

// Generate discards every level's rows and rebuilds the main report.
func (s *SalesReportService) Generate(ctx context.Context, r *CategorySalesReport) error {
	r.clear()
	rollup, err := s.MonthlyRollup(ctx, r.Filter)
	if err != nil {
		return err
	}
	r.MonthlyLines = rollup.MonthlyLines()
	r.setBreadcrumb(MonthlyBreadcrumb())
	r.ExcelFilename = CategoryWorkbookFilename(r.Filter.DateFrom, r.Filter.DateTo)
	r.GeneratedAt = s.now().UTC()
	return nil
}

// OpenDaily replaces the daily and invoice rows with the given month.
// The report is left untouched when the drill-down fails.
func (s *SalesReportService) OpenDaily(ctx context.Context, r *CategorySalesReport, month string, categoryId int) error {
	crumb, err := r.Breadcrumb.DrillToDaily(month, categoryId, r.categoryName(categoryId))
	if err != nil {
		return err
	}
	rollup, err := s.DailyRollup(ctx, r.Filter, crumb.Month, categoryId)
	if err != nil {
		return err
	}
	r.DailyLines = rollup.DailyLines()
	r.InvoiceLines = nil
	r.setBreadcrumb(crumb)
	return nil
}

// OpenInvoices replaces the invoice rows with the invoices of one day.
func (s *SalesReportService) OpenInvoices(ctx context.Context, r *CategorySalesReport, date time.Time, categoryId int) error {
	crumb, err := r.Breadcrumb.DrillToInvoice(date, categoryId, r.categoryName(categoryId))
	if err != nil {
		return err
	}
	details, err := s.InvoiceDetails(ctx, r.Filter, date, crumb.CategoryId)
	if err != nil {
		return err
	}
	r.InvoiceLines = details
	r.setBreadcrumb(crumb)
	return nil
}

func (r *CategorySalesReport) Back() {
	r.setBreadcrumb(r.Breadcrumb.Back())
}

func (r *CategorySalesReport) clear() {
	r.MonthlyLines = nil
	r.DailyLines = nil
	r.InvoiceLines = nil
	r.ExcelFilename = ""
}

func (r *CategorySalesReport) setBreadcrumb(b Breadcrumb) {
	r.Breadcrumb = b
	r.BreadcrumbText = b.String()
}

func (r *CategorySalesReport) categoryName(categoryId int) string {
	if categoryId == 0 {
		return ""
	}
	for _, l := range r.MonthlyLines {
		if l.CategoryId == categoryId {
			return l.CategoryName
		}
	}
	for _, l := range r.DailyLines {
		if l.CategoryId == categoryId {
			return l.CategoryName
		}
	}
	return ""
}

func (s *SalesReportService) NewSupplierSalesReport(ctx context.Context, filter SupplierFilter) (*SupplierSalesReport, error) {
	if err := s.prepareSupplierFilter(ctx, &filter); err != nil {
		return nil, err
	}
	return &SupplierSalesReport{
		ID:             utils.NewReportId(),
		Filter:         filter,
		Breadcrumb:     SupplierSummaryBreadcrumb(),
		BreadcrumbText: SupplierSummaryBreadcrumb().String(),
	}, nil
}

func (s *SalesReportService) GenerateSupplier(ctx context.Context, r *SupplierSalesReport) error {
	r.clear()
	rows, err := s.SupplierMonthlyRollup(ctx, r.Filter)
	if err != nil {
		return err
	}
	r.MainLines = rows
	r.setBreadcrumb(SupplierSummaryBreadcrumb())
	r.ExcelFilename = SupplierWorkbookFilename(r.Filter.DateFrom, r.Filter.DateTo)
	r.GeneratedAt = s.now().UTC()
	return nil
}

func (s *SalesReportService) OpenSupplierMonth(ctx context.Context, r *SupplierSalesReport, supplierId int, month string) error {
	crumb, err := r.Breadcrumb.DrillToSupplierMonth(supplierId, r.supplierName(supplierId), month)
	if err != nil {
		return err
	}
	rows, err := s.SupplierMonthInvoices(ctx, r.Filter, supplierId, crumb.Month)
	if err != nil {
		return err
	}
	if crumb.SupplierName == "" && len(rows) > 0 {
		crumb.SupplierName = rows[0].SupplierName
	}
	r.SupplierMonthLines = rows
	r.InvoiceLineLines = nil
	r.setBreadcrumb(crumb)
	return nil
}

func (s *SalesReportService) OpenSupplierInvoiceLines(ctx context.Context, r *SupplierSalesReport, invoiceId int) error {
	crumb, err := r.Breadcrumb.DrillToInvoiceLines(invoiceId, r.invoiceName(invoiceId))
	if err != nil {
		return err
	}
	lines, err := s.SupplierInvoiceLines(ctx, r.Filter, crumb.SupplierId, invoiceId)
	if err != nil {
		return err
	}
	r.InvoiceLineLines = lines
	r.setBreadcrumb(crumb)
	return nil
}

func (r *SupplierSalesReport) Back() {
	r.setBreadcrumb(r.Breadcrumb.Back())
}

func (r *SupplierSalesReport) clear() {
	r.MainLines = nil
	r.SupplierMonthLines = nil
	r.InvoiceLineLines = nil
	r.ExcelFilename = ""
}

func (r *SupplierSalesReport) setBreadcrumb(b SupplierBreadcrumb) {
	r.Breadcrumb = b
	r.BreadcrumbText = b.String()
}

func (r *SupplierSalesReport) supplierName(supplierId int) string {
	for _, row := range r.MainLines {
		if row.SupplierId == supplierId {
			return row.SupplierName
		}
	}
	return ""
}

func (r *SupplierSalesReport) invoiceName(invoiceId int) string {
	for _, row := range r.SupplierMonthLines {
		if row.InvoiceId == invoiceId {
			return row.InvoiceName
		}
	}
	return ""
}
