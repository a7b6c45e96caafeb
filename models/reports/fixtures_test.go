package reports

import (
	"context"
	"sort"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	usdId = 1
	eurId = 2
	gbpId = 3

	catMedical = 1
	catGloves  = 2
	catMasks   = 3
	catOffice  = 4

	prodNitrile  = 10
	prodLatex    = 11
	prodOldGlove = 12
	prodMask     = 20
	prodPaper    = 30

	supplierAcme = 100
	supplierBeta = 101
)

func day(s string) time.Time {
	t, err := utils.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func intPtr(v int) *int { return &v }

// memLedger is an in-memory Ledger. With leaky set, Lines and Invoices ignore
// the query and return every row.
type memLedger struct {
	categories []Category
	products   []Product
	suppliers  []Supplier
	currencies []Currency
	lines      []LedgerLine
	invoices   []Invoice
	leaky      bool
}

func (m *memLedger) Categories(ctx context.Context) ([]Category, error) {
	return m.categories, nil
}

func (m *memLedger) ActiveProductsInCategories(ctx context.Context, categoryIds []int) ([]Product, error) {
	wanted := make(map[int]bool)
	for _, id := range categoryIds {
		wanted[id] = true
	}
	var out []Product
	for _, p := range m.products {
		if p.IsActive && wanted[p.CategoryId] {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memLedger) ProductsByIds(ctx context.Context, ids []int) ([]Product, error) {
	var out []Product
	for _, p := range m.products {
		for _, id := range ids {
			if p.ID == id {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memLedger) Lines(ctx context.Context, q LineQuery) ([]LedgerLine, error) {
	if m.leaky {
		return m.lines, nil
	}
	var out []LedgerLine
	for _, l := range m.lines {
		if l.Date.Before(q.DateFrom) || l.Date.After(q.DateTo) || l.DocumentState != q.State {
			continue
		}
		if !containsType(q.DocumentTypes, l.DocumentType) || !containsInt(q.ProductIds, l.ProductId) {
			continue
		}
		if len(q.AccountTypes) > 0 && !containsString(q.AccountTypes, l.AccountType) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (m *memLedger) Invoices(ctx context.Context, q InvoiceQuery) ([]Invoice, error) {
	if m.leaky {
		return m.invoices, nil
	}
	var out []Invoice
	for _, inv := range m.invoices {
		if inv.InvoiceDate.Before(q.DateFrom) || inv.InvoiceDate.After(q.DateTo) {
			continue
		}
		if inv.DocumentState != q.State || !containsType(q.DocumentTypes, inv.DocumentType) {
			continue
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *memLedger) Invoice(ctx context.Context, id int) (*Invoice, error) {
	for _, inv := range m.invoices {
		if inv.ID == id {
			inv := inv
			return &inv, nil
		}
	}
	return nil, nil
}

func (m *memLedger) Suppliers(ctx context.Context, ids []int) ([]Supplier, error) {
	if len(ids) == 0 {
		return m.suppliers, nil
	}
	var out []Supplier
	for _, s := range m.suppliers {
		if containsInt(ids, s.ID) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memLedger) Currency(ctx context.Context, id int) (*Currency, error) {
	for _, c := range m.currencies {
		if c.ID == id {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memLedger) CurrencyBySymbol(ctx context.Context, symbol string) (*Currency, error) {
	for _, c := range m.currencies {
		if c.Symbol == symbol {
			c := c
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memLedger) CompanyCurrency(ctx context.Context) (*Currency, error) {
	return m.Currency(ctx, usdId)
}

func containsInt(list []int, v int) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsString(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

func containsType(list []DocumentType, v DocumentType) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

type datedRate struct {
	from time.Time
	rate decimal.Decimal
}

// rateConverter holds rates per unit of the company currency (USD).
type rateConverter struct {
	rates map[int][]datedRate
	calls int
}

func newRateConverter() *rateConverter {
	return &rateConverter{rates: map[int][]datedRate{
		eurId: {
			{from: day("2023-12-01"), rate: dec("0.5")},
			{from: day("2024-02-01"), rate: dec("0.8")},
		},
	}}
}

func (c *rateConverter) rate(currencyId int, date time.Time) (decimal.Decimal, bool) {
	if currencyId == usdId {
		return decimal.NewFromInt(1), true
	}
	rates := append([]datedRate(nil), c.rates[currencyId]...)
	sort.Slice(rates, func(i, j int) bool { return rates[i].from.After(rates[j].from) })
	for _, r := range rates {
		if !r.from.After(date) {
			return r.rate, true
		}
	}
	return decimal.Zero, false
}

func (c *rateConverter) Convert(ctx context.Context, amount decimal.Decimal, from int, to int, companyId int, date time.Time) (decimal.Decimal, error) {
	c.calls++
	if from == to {
		return amount, nil
	}
	fromRate, ok := c.rate(from, date)
	if !ok {
		return decimal.Zero, ErrNoExchangeRate
	}
	toRate, ok := c.rate(to, date)
	if !ok {
		return decimal.Zero, ErrNoExchangeRate
	}
	return amount.Mul(toRate).Div(fromRate).Round(2), nil
}

func salesLine(id int, date string, invoiceId int, productId int, balance string) LedgerLine {
	p := fixtureProducts()[productId]
	return LedgerLine{
		ID:                id,
		Date:              day(date),
		InvoiceId:         invoiceId,
		InvoiceName:       "INV",
		DocumentType:      DocumentTypeCustomerInvoice,
		DocumentState:     DocumentStatePosted,
		AccountType:       "income",
		ProductId:         productId,
		ProductName:       p.Name,
		ProductCode:       p.DefaultCode,
		CategoryId:        p.CategoryId,
		CategoryName:      p.CategoryName,
		CompanyId:         1,
		CompanyCurrencyId: usdId,
		Balance:           dec(balance),
	}
}

func invoiceLine(id int, productId int, qty, price, subtotal string) InvoiceLine {
	p := fixtureProducts()[productId]
	return InvoiceLine{
		ID:            id,
		Label:         p.Name,
		ProductId:     productId,
		ProductName:   p.Name,
		ProductCode:   p.DefaultCode,
		CategoryId:    p.CategoryId,
		CategoryName:  p.CategoryName,
		Quantity:      dec(qty),
		PriceUnit:     dec(price),
		PriceSubtotal: dec(subtotal),
		StandardPrice: p.StandardPrice,
		VendorIds:     p.VendorIds,
	}
}

func fixtureProducts() map[int]Product {
	return map[int]Product{
		prodNitrile:  {ID: prodNitrile, Name: "Nitrile Gloves", DefaultCode: "GLV-1", CategoryId: catGloves, CategoryName: "Gloves", StandardPrice: dec("2"), IsActive: true, VendorIds: []int{supplierAcme, supplierBeta}},
		prodLatex:    {ID: prodLatex, Name: "Latex Gloves", CategoryId: catGloves, CategoryName: "Gloves", StandardPrice: dec("1"), IsActive: true, VendorIds: []int{supplierBeta}},
		prodOldGlove: {ID: prodOldGlove, Name: "Vinyl Gloves", DefaultCode: "GLV-0", CategoryId: catGloves, CategoryName: "Gloves", StandardPrice: dec("1"), IsActive: false},
		prodMask:     {ID: prodMask, Name: "Surgical Mask", DefaultCode: "MSK", CategoryId: catMasks, CategoryName: "Masks", StandardPrice: dec("0.3"), IsActive: true, VendorIds: []int{supplierAcme}},
		prodPaper:    {ID: prodPaper, Name: "Paper", DefaultCode: "PPR", CategoryId: catOffice, CategoryName: "Office", StandardPrice: dec("3"), IsActive: true},
	}
}

// newFixtureLedger builds a two-month ledger in USD with one EUR invoice.
//
//	2024-01 Gloves 200 (100 + 20 on INV/001, 40 EUR = 80 USD on INV/002)
//	2024-01 Masks   50 (INV/001)
//	2024-01 Office  70 (INV/004)
//	2024-02 Gloves  30 (credit note RINV/001)
func newFixtureLedger() *memLedger {
	products := fixtureProducts()
	ordered := make([]Product, 0, len(products))
	for _, id := range []int{prodNitrile, prodLatex, prodOldGlove, prodMask, prodPaper} {
		ordered = append(ordered, products[id])
	}

	eurLine := salesLine(3, "2024-01-20", 2, prodLatex, "-80")
	eurLine.CurrencyId = intPtr(eurId)
	eurLine.AmountCurrency = dec("-40")

	refund := salesLine(4, "2024-02-10", 3, prodNitrile, "30")
	refund.DocumentType = DocumentTypeCustomerCreditNote

	draft := salesLine(5, "2024-01-07", 4, prodNitrile, "-999")
	draft.DocumentState = DocumentStateDraft

	bill := salesLine(6, "2024-01-08", 5, prodNitrile, "-500")
	bill.DocumentType = "in_invoice"

	receivable := salesLine(8, "2024-01-05", 1, prodNitrile, "270")
	receivable.AccountType = "asset_receivable"

	lines := []LedgerLine{
		salesLine(1, "2024-01-05", 1, prodNitrile, "-100"),
		salesLine(2, "2024-01-05", 1, prodLatex, "-20"),
		salesLine(9, "2024-01-05", 1, prodMask, "-50"),
		eurLine,
		refund,
		draft,
		bill,
		salesLine(7, "2024-01-09", 6, prodPaper, "-70"),
		receivable,
		salesLine(10, "2024-03-01", 8, prodNitrile, "-1000"),
	}

	invoices := []Invoice{
		{
			ID: 1, Name: "INV/001", DocumentType: DocumentTypeCustomerInvoice, DocumentState: DocumentStatePosted,
			InvoiceDate: day("2024-01-05"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: usdId, CurrencyName: "USD",
			CustomerName: "Clinic A", AmountUntaxed: dec("170"), AmountTax: dec("17"), AmountTotal: dec("187"), PaymentState: "paid",
			Lines: []InvoiceLine{
				invoiceLine(101, prodNitrile, "10", "10", "100"),
				invoiceLine(102, prodLatex, "10", "2", "20"),
				invoiceLine(103, prodMask, "100", "0.5", "50"),
			},
		},
		{
			ID: 2, Name: "INV/002", DocumentType: DocumentTypeCustomerInvoice, DocumentState: DocumentStatePosted,
			InvoiceDate: day("2024-01-20"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: eurId, CurrencyName: "EUR",
			CustomerName: "Clinic B", SalespersonName: "Ayşe", AmountUntaxed: dec("40"), AmountTotal: dec("40"), PaymentState: "not_paid",
			Lines: []InvoiceLine{invoiceLine(201, prodLatex, "20", "2", "40")},
		},
		{
			ID: 3, Name: "RINV/001", DocumentType: DocumentTypeCustomerCreditNote, DocumentState: DocumentStatePosted,
			InvoiceDate: day("2024-02-10"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: usdId, CurrencyName: "USD",
			CustomerName: "Clinic A", AmountUntaxed: dec("30"), AmountTotal: dec("30"), PaymentState: "reversed",
			Lines: []InvoiceLine{invoiceLine(301, prodNitrile, "3", "10", "30")},
		},
		{
			ID: 4, Name: "INV/003", DocumentType: DocumentTypeCustomerInvoice, DocumentState: DocumentStateDraft,
			InvoiceDate: day("2024-01-05"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: usdId,
			Lines: []InvoiceLine{invoiceLine(401, prodNitrile, "99", "10", "990")},
		},
		{
			ID: 6, Name: "INV/004", DocumentType: DocumentTypeCustomerInvoice, DocumentState: DocumentStatePosted,
			InvoiceDate: day("2024-01-09"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: usdId, CurrencyName: "USD",
			CustomerName: "Office Co", AmountUntaxed: dec("70"), AmountTotal: dec("70"),
			Lines: []InvoiceLine{invoiceLine(601, prodPaper, "7", "10", "70")},
		},
		{
			ID: 7, Name: "INV/005", DocumentType: DocumentTypeCustomerInvoice, DocumentState: DocumentStatePosted,
			InvoiceDate: day("2024-01-05"), CompanyId: 1, CompanyCurrencyId: usdId, CurrencyId: usdId, CurrencyName: "USD",
			CustomerName: "Office Co", AmountUntaxed: dec("5"), AmountTotal: dec("5"),
			Lines: []InvoiceLine{invoiceLine(701, prodPaper, "1", "5", "5")},
		},
	}

	return &memLedger{
		categories: []Category{
			{ID: catMedical, Name: "Medical"},
			{ID: catGloves, Name: "Gloves", ParentId: catMedical},
			{ID: catMasks, Name: "Masks", ParentId: catMedical},
			{ID: catOffice, Name: "Office"},
		},
		products: ordered,
		suppliers: []Supplier{
			{ID: supplierAcme, Name: "Acme Medical"},
			{ID: supplierBeta, Name: "Beta Supply"},
		},
		currencies: []Currency{
			{ID: usdId, Symbol: "USD", Name: "US Dollar", DecimalPlaces: 2},
			{ID: eurId, Symbol: "EUR", Name: "Euro", DecimalPlaces: 2},
			{ID: gbpId, Symbol: "GBP", Name: "Pound", DecimalPlaces: 2},
		},
		lines:    lines,
		invoices: invoices,
	}
}

func newFixtureService() (*SalesReportService, *memLedger, *rateConverter) {
	ledger := newFixtureLedger()
	conv := newRateConverter()
	return NewSalesReportService(ledger, conv), ledger, conv
}

func janFebFilter() FilterSpec {
	return FilterSpec{
		DateFrom:             day("2024-01-01"),
		DateTo:               day("2024-02-29"),
		IncludeSubcategories: true,
	}
}
