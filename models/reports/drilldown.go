package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
)

const breadcrumbRoot = "Main Report"

type DetailLevel string

const (
	DetailLevelMonthly DetailLevel = "monthly"
	DetailLevelDaily   DetailLevel = "daily"
	DetailLevelInvoice DetailLevel = "invoice"
)

// Breadcrumb is the drill-down position of a category sales report.
type Breadcrumb struct {
	Level        DetailLevel `json:"level"`
	Month        string      `json:"month,omitempty"`
	Date         string      `json:"date,omitempty"`
	CategoryId   int         `json:"categoryId,omitempty"`
	CategoryName string      `json:"categoryName,omitempty"`
}

func MonthlyBreadcrumb() Breadcrumb {
	return Breadcrumb{Level: DetailLevelMonthly}
}

// DrillToDaily selects a month, and optionally one category, of the main report.
func (b Breadcrumb) DrillToDaily(month string, categoryId int, categoryName string) (Breadcrumb, error) {
	month = strings.TrimSpace(month)
	if month == "" {
		return b, missingContext("month")
	}
	if _, _, err := utils.MonthRange(month); err != nil {
		return b, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	return Breadcrumb{
		Level:        DetailLevelDaily,
		Month:        month,
		CategoryId:   categoryId,
		CategoryName: categoryName,
	}, nil
}

// DrillToInvoice selects a day of the daily view. A zero categoryId keeps the
// category of the daily view.
func (b Breadcrumb) DrillToInvoice(date time.Time, categoryId int, categoryName string) (Breadcrumb, error) {
	if b.Level == DetailLevelMonthly || b.Month == "" {
		return b, missingContext("month")
	}
	if date.IsZero() {
		return b, missingContext("date")
	}
	if date.Format(utils.MonthLayout) != b.Month {
		return b, fmt.Errorf("%w: date %s is not in %s", ErrInvalidFilter, date.Format(utils.DateLayout), b.Month)
	}
	next := Breadcrumb{
		Level:        DetailLevelInvoice,
		Month:        b.Month,
		Date:         date.Format(utils.DateLayout),
		CategoryId:   b.CategoryId,
		CategoryName: b.CategoryName,
	}
	if categoryId != 0 {
		next.CategoryId = categoryId
		next.CategoryName = categoryName
	}
	return next, nil
}

// Back moves one level up. The monthly level is its own parent.
func (b Breadcrumb) Back() Breadcrumb {
	switch b.Level {
	case DetailLevelInvoice:
		return Breadcrumb{
			Level:        DetailLevelDaily,
			Month:        b.Month,
			CategoryId:   b.CategoryId,
			CategoryName: b.CategoryName,
		}
	default:
		return MonthlyBreadcrumb()
	}
}

func (b Breadcrumb) String() string {
	parts := []string{breadcrumbRoot}
	switch b.Level {
	case DetailLevelDaily:
		parts = append(parts, b.Month+" Details")
	case DetailLevelInvoice:
		parts = append(parts, b.Month)
		if d, err := utils.ParseDate(b.Date); err == nil {
			parts = append(parts, d.Format("02.01.2006")+" Invoices")
		}
	default:
		return breadcrumbRoot
	}
	if b.CategoryName != "" {
		parts = append(parts, b.CategoryName)
	}
	return strings.Join(parts, " > ")
}

type SupplierDetailLevel string

const (
	SupplierLevelSummary       SupplierDetailLevel = "summary"
	SupplierLevelSupplierMonth SupplierDetailLevel = "supplier_month"
	SupplierLevelInvoiceLines  SupplierDetailLevel = "invoice_lines"
)

// SupplierBreadcrumb is the drill-down position of a supplier sales report.
type SupplierBreadcrumb struct {
	Level        SupplierDetailLevel `json:"level"`
	SupplierId   int                 `json:"supplierId,omitempty"`
	SupplierName string              `json:"supplierName,omitempty"`
	Month        string              `json:"month,omitempty"`
	InvoiceId    int                 `json:"invoiceId,omitempty"`
	InvoiceName  string              `json:"invoiceName,omitempty"`
}

func SupplierSummaryBreadcrumb() SupplierBreadcrumb {
	return SupplierBreadcrumb{Level: SupplierLevelSummary}
}

func (b SupplierBreadcrumb) DrillToSupplierMonth(supplierId int, supplierName string, month string) (SupplierBreadcrumb, error) {
	if supplierId == 0 {
		return b, missingContext("supplier")
	}
	month = strings.TrimSpace(month)
	if month == "" {
		return b, missingContext("month")
	}
	if _, _, err := utils.MonthRange(month); err != nil {
		return b, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	return SupplierBreadcrumb{
		Level:        SupplierLevelSupplierMonth,
		SupplierId:   supplierId,
		SupplierName: supplierName,
		Month:        month,
	}, nil
}

// DrillToInvoiceLines needs the supplier chosen on the supplier-month level.
func (b SupplierBreadcrumb) DrillToInvoiceLines(invoiceId int, invoiceName string) (SupplierBreadcrumb, error) {
	if b.SupplierId == 0 || b.Level == SupplierLevelSummary {
		return b, missingContext("supplier")
	}
	if invoiceId == 0 {
		return b, missingContext("invoice")
	}
	next := b
	next.Level = SupplierLevelInvoiceLines
	next.InvoiceId = invoiceId
	next.InvoiceName = invoiceName
	return next, nil
}

func (b SupplierBreadcrumb) Back() SupplierBreadcrumb {
	switch b.Level {
	case SupplierLevelInvoiceLines:
		next := b
		next.Level = SupplierLevelSupplierMonth
		next.InvoiceId = 0
		next.InvoiceName = ""
		return next
	default:
		return SupplierSummaryBreadcrumb()
	}
}

func (b SupplierBreadcrumb) String() string {
	switch b.Level {
	case SupplierLevelSupplierMonth:
		return strings.Join([]string{breadcrumbRoot, b.SupplierName, b.Month}, " > ")
	case SupplierLevelInvoiceLines:
		return strings.Join([]string{breadcrumbRoot, b.SupplierName, b.Month, b.InvoiceName}, " > ")
	default:
		return breadcrumbRoot
	}
}
