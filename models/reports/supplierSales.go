package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// SupplierRow is one (supplier, month) of the supplier margin report, in the target currency.
type SupplierRow struct {
	SupplierId   int             `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	Month        string          `json:"month"`
	TotalSales   decimal.Decimal `json:"totalSales"`
	Margin
}

type SupplierInvoiceRow struct {
	InvoiceId    int             `json:"invoiceId"`
	InvoiceName  string          `json:"invoiceName"`
	InvoiceDate  string          `json:"invoiceDate"`
	SupplierId   int             `json:"supplierId"`
	SupplierName string          `json:"supplierName"`
	TotalSales   decimal.Decimal `json:"totalSales"`
	Margin
}

// SupplierInvoiceLine is one product line of an invoice, in the invoice currency.
type SupplierInvoiceLine struct {
	InvoiceId     int             `json:"invoiceId"`
	ProductId     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	PriceUnit     decimal.Decimal `json:"priceUnit"`
	PriceSubtotal decimal.Decimal `json:"priceSubtotal"`
	CurrencyName  string          `json:"currencyName"`
	Margin
}

type supplierTotals struct {
	sales decimal.Decimal
	cost  decimal.Decimal
}

// supplierSet loads the filtered suppliers, or every active supplier.
func (s *SalesReportService) supplierSet(ctx context.Context, ids []int) (map[int]string, error) {
	suppliers, err := s.ledger.Suppliers(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load suppliers: %w", err)
	}
	if len(suppliers) == 0 {
		return nil, ErrNoSuppliers
	}
	out := make(map[int]string, len(suppliers))
	for _, sup := range suppliers {
		out[sup.ID] = sup.Name
	}
	return out, nil
}

// SupplierMonthlyRollup attributes every posted sales line to the first-ranked
// vendor of its product and totals sales and standard cost per supplier and month.
func (s *SalesReportService) SupplierMonthlyRollup(ctx context.Context, filter SupplierFilter) (rows []SupplierRow, err error) {
	ctx, span := s.startSpan(ctx, "SupplierMonthlyRollup")
	defer func() { endSpan(span, err) }()
	defer logSlowReport(ctx, "supplier_sales_monthly", time.Now(), nil)

	if err = s.prepareSupplierFilter(ctx, &filter); err != nil {
		return nil, err
	}
	suppliers, err := s.supplierSet(ctx, filter.SupplierIds)
	if err != nil {
		return nil, err
	}
	invoices, err := s.ledger.Invoices(ctx, postedSalesInvoices(filter.DateFrom, filter.DateTo))
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	type key struct {
		supplierId int
		month      string
	}
	totals := make(map[key]*supplierTotals)
	for _, inv := range invoices {
		if !s.invoiceInWindow(inv, filter.DateFrom, filter.DateTo) {
			continue
		}
		month := inv.InvoiceDate.Format(utils.MonthLayout)
		for _, l := range inv.Lines {
			vendorId := l.PreferredVendorId()
			if l.ProductId == 0 || vendorId == 0 {
				continue
			}
			if _, ok := suppliers[vendorId]; !ok {
				continue
			}
			sales, cost, err := s.convertSalesAndCost(ctx, inv, l.PriceSubtotal, l.StandardPrice.Mul(l.Quantity), filter.TargetCurrencyId)
			if err != nil {
				return nil, err
			}
			k := key{supplierId: vendorId, month: month}
			t, ok := totals[k]
			if !ok {
				t = &supplierTotals{}
				totals[k] = t
			}
			t.sales = t.sales.Add(sales)
			t.cost = t.cost.Add(cost)
		}
	}

	rows = make([]SupplierRow, 0, len(totals))
	for k, t := range totals {
		rows = append(rows, SupplierRow{
			SupplierId:   k.supplierId,
			SupplierName: suppliers[k.supplierId],
			Month:        k.month,
			TotalSales:   t.sales,
			Margin:       TotalsMargin(t.sales, t.cost),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].SupplierName != rows[j].SupplierName {
			return rows[i].SupplierName < rows[j].SupplierName
		}
		if rows[i].SupplierId != rows[j].SupplierId {
			return rows[i].SupplierId < rows[j].SupplierId
		}
		return rows[i].Month < rows[j].Month
	})
	s.debug(logrus.Fields{"suppliers": len(suppliers), "invoices": len(invoices), "rows": len(rows)}, "supplier rollup built")
	return rows, nil
}

// SupplierMonthInvoices lists the invoices of one month that sold products of
// the supplier, with per-invoice totals converted once at the invoice date.
func (s *SalesReportService) SupplierMonthInvoices(ctx context.Context, filter SupplierFilter, supplierId int, month string) (rows []SupplierInvoiceRow, err error) {
	ctx, span := s.startSpan(ctx, "SupplierMonthInvoices",
		attribute.Int("supplier_id", supplierId), attribute.String("month", month))
	defer func() { endSpan(span, err) }()
	defer logSlowReport(ctx, "supplier_sales_month", time.Now(), map[string]any{"supplier_id": supplierId, "month": month})

	if supplierId == 0 {
		return nil, missingContext("supplier")
	}
	if month == "" {
		return nil, missingContext("month")
	}
	if err = s.prepareSupplierFilter(ctx, &filter); err != nil {
		return nil, err
	}
	if !filter.AllowsSupplier(supplierId) {
		return nil, fmt.Errorf("%w: supplier %d is not in the report selection", ErrInvalidFilter, supplierId)
	}
	from, to, err := utils.MonthRange(month)
	if err != nil {
		return nil, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	from, to = clampToWindow(from, to, filter.DateFrom, filter.DateTo)
	if from.After(to) {
		return nil, nil
	}
	suppliers, err := s.supplierSet(ctx, []int{supplierId})
	if err != nil {
		return nil, err
	}
	invoices, err := s.ledger.Invoices(ctx, postedSalesInvoices(from, to))
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}

	for _, inv := range invoices {
		if !s.invoiceInWindow(inv, from, to) {
			continue
		}
		var (
			matched bool
			sales   = decimal.Zero
			cost    = decimal.Zero
		)
		for _, l := range inv.Lines {
			if l.ProductId == 0 || l.PreferredVendorId() != supplierId {
				continue
			}
			matched = true
			sales = sales.Add(l.PriceSubtotal)
			cost = cost.Add(l.StandardPrice.Mul(l.Quantity))
		}
		if !matched {
			continue
		}
		salesConv, costConv, err := s.convertSalesAndCost(ctx, inv, sales, cost, filter.TargetCurrencyId)
		if err != nil {
			return nil, err
		}
		rows = append(rows, SupplierInvoiceRow{
			InvoiceId:    inv.ID,
			InvoiceName:  inv.Name,
			InvoiceDate:  inv.InvoiceDate.Format(utils.DateLayout),
			SupplierId:   supplierId,
			SupplierName: suppliers[supplierId],
			TotalSales:   salesConv,
			Margin:       TotalsMargin(salesConv, costConv),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].InvoiceDate != rows[j].InvoiceDate {
			return rows[i].InvoiceDate < rows[j].InvoiceDate
		}
		return rows[i].InvoiceName < rows[j].InvoiceName
	})
	return rows, nil
}

// SupplierInvoiceLines returns the lines of one invoice attributed to the
// supplier. The invoice must fall inside the report window.
func (s *SalesReportService) SupplierInvoiceLines(ctx context.Context, filter SupplierFilter, supplierId int, invoiceId int) (lines []SupplierInvoiceLine, err error) {
	ctx, span := s.startSpan(ctx, "SupplierInvoiceLines",
		attribute.Int("supplier_id", supplierId), attribute.Int("invoice_id", invoiceId))
	defer func() { endSpan(span, err) }()

	if invoiceId == 0 {
		return nil, missingContext("invoice")
	}
	if supplierId == 0 {
		return nil, missingContext("supplier")
	}
	if err = s.prepareSupplierFilter(ctx, &filter); err != nil {
		return nil, err
	}
	if !filter.AllowsSupplier(supplierId) {
		return nil, fmt.Errorf("%w: supplier %d is not in the report selection", ErrInvalidFilter, supplierId)
	}
	inv, err := s.ledger.Invoice(ctx, invoiceId)
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", invoiceId, err)
	}
	if inv == nil || !s.invoiceInWindow(*inv, filter.DateFrom, filter.DateTo) {
		return nil, fmt.Errorf("%w: invoice %d", ErrInvalidFilter, invoiceId)
	}

	for _, l := range inv.Lines {
		if l.PreferredVendorId() != supplierId {
			continue
		}
		unitCost, err := convertAmount(ctx, s.converter, l.StandardPrice, inv.CompanyCurrencyId, invoiceCurrencyId(*inv), inv.CompanyId, inv.InvoiceDate)
		if err != nil {
			return nil, err
		}
		name := l.ProductName
		if l.ProductCode != "" {
			name = ProductDisplayName(l.ProductCode, l.ProductName)
		}
		if name == "" {
			name = l.Label
		}
		lines = append(lines, SupplierInvoiceLine{
			InvoiceId:     inv.ID,
			ProductId:     l.ProductId,
			ProductName:   name,
			Quantity:      l.Quantity,
			UnitCost:      unitCost,
			PriceUnit:     l.PriceUnit,
			PriceSubtotal: l.PriceSubtotal,
			CurrencyName:  inv.CurrencyName,
			Margin:        LineMargin(l.PriceSubtotal, unitCost, l.Quantity),
		})
	}
	return lines, nil
}

func (s *SalesReportService) invoiceInWindow(inv Invoice, from, to time.Time) bool {
	if !inv.IsEligible() {
		return false
	}
	d := utils.NormalizeDate(inv.InvoiceDate)
	return !d.Before(from) && !d.After(to)
}

// convertSalesAndCost converts sales from the invoice currency and cost from
// the company currency, both as of the invoice date, as absolute values.
func (s *SalesReportService) convertSalesAndCost(ctx context.Context, inv Invoice, sales, cost decimal.Decimal, targetCurrencyId int) (decimal.Decimal, decimal.Decimal, error) {
	salesConv, err := convertAmount(ctx, s.converter, sales, invoiceCurrencyId(inv), targetCurrencyId, inv.CompanyId, inv.InvoiceDate)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	costConv, err := convertAmount(ctx, s.converter, cost, inv.CompanyCurrencyId, targetCurrencyId, inv.CompanyId, inv.InvoiceDate)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	return salesConv.Abs(), costConv.Abs(), nil
}
