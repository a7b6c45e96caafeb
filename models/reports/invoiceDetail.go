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

const unspecifiedSalesperson = "Unspecified"

type InvoiceDetailLine struct {
	ProductId     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	ProductCode   string          `json:"productCode"`
	CategoryName  string          `json:"categoryName"`
	Quantity      decimal.Decimal `json:"quantity"`
	PriceUnit     decimal.Decimal `json:"priceUnit"`
	PriceSubtotal decimal.Decimal `json:"priceSubtotal"`
	CostPrice     decimal.Decimal `json:"costPrice"`
	Margin
}

// InvoiceDetail is one invoice of the drilled day with only the lines of the
// selected products. Amounts are in the invoice currency.
type InvoiceDetail struct {
	InvoiceId       int                 `json:"invoiceId"`
	InvoiceName     string              `json:"invoiceName"`
	InvoiceDate     string              `json:"invoiceDate"`
	CustomerName    string              `json:"customerName"`
	SalespersonName string              `json:"salespersonName"`
	AmountUntaxed   decimal.Decimal     `json:"amountUntaxed"`
	AmountTax       decimal.Decimal     `json:"amountTax"`
	AmountTotal     decimal.Decimal     `json:"amountTotal"`
	PaymentState    string              `json:"paymentState"`
	CurrencyName    string              `json:"currencyName"`
	Lines           []InvoiceDetailLine `json:"lines"`
	TotalSubtotal   decimal.Decimal     `json:"totalSubtotal"`
	Margin
}

// InvoiceDetails lists the invoices dated on date that carry at least one line
// of the selected products, optionally narrowed to one category.
func (s *SalesReportService) InvoiceDetails(ctx context.Context, filter FilterSpec, date time.Time, categoryId int) (details []InvoiceDetail, err error) {
	ctx, span := s.startSpan(ctx, "InvoiceDetails",
		attribute.String("date", date.Format(utils.DateLayout)), attribute.Int("category_id", categoryId))
	defer func() { endSpan(span, err) }()
	defer logSlowReport(ctx, "category_sales_invoices", time.Now(), nil)

	if date.IsZero() {
		return nil, missingContext("date")
	}
	if err = s.prepareFilter(ctx, &filter); err != nil {
		return nil, err
	}
	date = utils.NormalizeDate(date)
	if date.Before(filter.DateFrom) || date.After(filter.DateTo) {
		return nil, fmt.Errorf("%w: date %s is outside the report window", ErrInvalidFilter, date.Format(utils.DateLayout))
	}
	sel, err := ResolveSelection(ctx, s.ledger, filter, categoryId)
	if err != nil {
		return nil, err
	}
	products := make(map[int]struct{}, len(sel.Products))
	for _, p := range sel.Products {
		products[p.ID] = struct{}{}
	}

	invoices, err := s.ledger.Invoices(ctx, postedSalesInvoices(date, date))
	if err != nil {
		return nil, fmt.Errorf("load invoices: %w", err)
	}
	sort.SliceStable(invoices, func(i, j int) bool { return invoices[i].Name < invoices[j].Name })

	for _, inv := range invoices {
		if !inv.IsEligible() || !utils.NormalizeDate(inv.InvoiceDate).Equal(date) {
			continue
		}
		detail, ok, err := s.invoiceDetail(ctx, inv, products)
		if err != nil {
			return nil, err
		}
		if ok {
			details = append(details, detail)
		}
	}
	s.debug(logrus.Fields{"invoices": len(invoices), "matched": len(details)}, "invoice details built")
	return details, nil
}

func (s *SalesReportService) invoiceDetail(ctx context.Context, inv Invoice, products map[int]struct{}) (InvoiceDetail, bool, error) {
	salesperson := inv.SalespersonName
	if salesperson == "" {
		salesperson = unspecifiedSalesperson
	}
	detail := InvoiceDetail{
		InvoiceId:       inv.ID,
		InvoiceName:     inv.Name,
		InvoiceDate:     inv.InvoiceDate.Format(utils.DateLayout),
		CustomerName:    inv.CustomerName,
		SalespersonName: salesperson,
		AmountUntaxed:   inv.AmountUntaxed,
		AmountTax:       inv.AmountTax,
		AmountTotal:     inv.AmountTotal,
		PaymentState:    inv.PaymentState,
		CurrencyName:    inv.CurrencyName,
	}

	totalCost := decimal.Zero
	for _, l := range inv.Lines {
		if _, ok := products[l.ProductId]; !ok {
			continue
		}
		// standard price is kept in company currency
		unitCost, err := convertAmount(ctx, s.converter, l.StandardPrice, inv.CompanyCurrencyId, invoiceCurrencyId(inv), inv.CompanyId, inv.InvoiceDate)
		if err != nil {
			return InvoiceDetail{}, false, err
		}
		line := InvoiceDetailLine{
			ProductId:     l.ProductId,
			ProductName:   l.ProductName,
			ProductCode:   l.ProductCode,
			CategoryName:  l.CategoryName,
			Quantity:      l.Quantity,
			PriceUnit:     l.PriceUnit,
			PriceSubtotal: l.PriceSubtotal,
			CostPrice:     unitCost,
			Margin:        LineMargin(l.PriceSubtotal, unitCost, l.Quantity),
		}
		detail.Lines = append(detail.Lines, line)
		detail.TotalSubtotal = detail.TotalSubtotal.Add(line.PriceSubtotal)
		totalCost = totalCost.Add(line.TotalCost)
	}
	if len(detail.Lines) == 0 {
		return InvoiceDetail{}, false, nil
	}
	detail.Margin = TotalsMargin(detail.TotalSubtotal, totalCost)
	return detail, true, nil
}

func invoiceCurrencyId(inv Invoice) int {
	if inv.CurrencyId != 0 {
		return inv.CurrencyId
	}
	return inv.CompanyCurrencyId
}
