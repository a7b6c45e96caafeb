package reports

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type DocumentType string

const (
	DocumentTypeCustomerInvoice    DocumentType = "out_invoice"
	DocumentTypeCustomerCreditNote DocumentType = "out_refund"
)

type DocumentState string

const (
	DocumentStateDraft     DocumentState = "draft"
	DocumentStatePosted    DocumentState = "posted"
	DocumentStateCancelled DocumentState = "cancel"
)

// SalesDocumentTypes are the documents a sales report reads.
var SalesDocumentTypes = []DocumentType{DocumentTypeCustomerInvoice, DocumentTypeCustomerCreditNote}

type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentId int    `json:"parentId"`
}

type Product struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	DefaultCode   string          `json:"defaultCode"`
	CategoryId    int             `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	StandardPrice decimal.Decimal `json:"standardPrice"`
	IsActive      bool            `json:"isActive"`
	// VendorIds is ordered by vendor rank; the first entry is the preferred vendor.
	VendorIds []int `json:"vendorIds"`
}

type Supplier struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type Currency struct {
	ID            int    `json:"id"`
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	DecimalPlaces int32  `json:"decimalPlaces"`
}

// LedgerLine is one posted sales journal line with its product and document context.
type LedgerLine struct {
	ID                int             `json:"id"`
	Date              time.Time       `json:"date"`
	InvoiceId         int             `json:"invoiceId"`
	InvoiceName       string          `json:"invoiceName"`
	DocumentType      DocumentType    `json:"documentType"`
	DocumentState     DocumentState   `json:"documentState"`
	AccountType       string          `json:"accountType"`
	ProductId         int             `json:"productId"`
	ProductName       string          `json:"productName"`
	ProductCode       string          `json:"productCode"`
	CategoryId        int             `json:"categoryId"`
	CategoryName      string          `json:"categoryName"`
	CompanyId         int             `json:"companyId"`
	CompanyCurrencyId int             `json:"companyCurrencyId"`
	CurrencyId        *int            `json:"currencyId,omitempty"`
	AmountCurrency    decimal.Decimal `json:"amountCurrency"`
	Balance           decimal.Decimal `json:"balance"`
	Quantity          decimal.Decimal `json:"quantity"`
	PriceUnit         decimal.Decimal `json:"priceUnit"`
	PriceSubtotal     decimal.Decimal `json:"priceSubtotal"`
}

// IsEligible reports whether the line's document is a posted customer invoice or credit note.
func (l LedgerLine) IsEligible() bool {
	return l.DocumentState == DocumentStatePosted && isSalesDocument(l.DocumentType)
}

type InvoiceLine struct {
	ID            int             `json:"id"`
	Label         string          `json:"label"`
	ProductId     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	ProductCode   string          `json:"productCode"`
	CategoryId    int             `json:"categoryId"`
	CategoryName  string          `json:"categoryName"`
	Quantity      decimal.Decimal `json:"quantity"`
	PriceUnit     decimal.Decimal `json:"priceUnit"`
	PriceSubtotal decimal.Decimal `json:"priceSubtotal"`
	StandardPrice decimal.Decimal `json:"standardPrice"`
	VendorIds     []int           `json:"vendorIds"`
}

// PreferredVendorId is the first-ranked vendor of the line's product, 0 when none.
// Products with several vendors are attributed to this one only.
func (l InvoiceLine) PreferredVendorId() int {
	if len(l.VendorIds) == 0 {
		return 0
	}
	return l.VendorIds[0]
}

type Invoice struct {
	ID                int             `json:"id"`
	Name              string          `json:"name"`
	DocumentType      DocumentType    `json:"documentType"`
	DocumentState     DocumentState   `json:"documentState"`
	InvoiceDate       time.Time       `json:"invoiceDate"`
	CompanyId         int             `json:"companyId"`
	CompanyCurrencyId int             `json:"companyCurrencyId"`
	CurrencyId        int             `json:"currencyId"`
	CurrencyName      string          `json:"currencyName"`
	CustomerName      string          `json:"customerName"`
	SalespersonName   string          `json:"salespersonName"`
	AmountUntaxed     decimal.Decimal `json:"amountUntaxed"`
	AmountTax         decimal.Decimal `json:"amountTax"`
	AmountTotal       decimal.Decimal `json:"amountTotal"`
	PaymentState      string          `json:"paymentState"`
	Lines             []InvoiceLine   `json:"lines"`
}

func (inv Invoice) IsEligible() bool {
	return inv.DocumentState == DocumentStatePosted && isSalesDocument(inv.DocumentType)
}

// LineQuery selects ledger lines by accounting date.
type LineQuery struct {
	DocumentTypes []DocumentType
	State         DocumentState
	DateFrom      time.Time
	DateTo        time.Time
	ProductIds    []int
	// AccountTypes restricts lines to these account classifications; empty means any.
	AccountTypes []string
}

// InvoiceQuery selects whole invoices by invoice date.
type InvoiceQuery struct {
	DocumentTypes []DocumentType
	State         DocumentState
	DateFrom      time.Time
	DateTo        time.Time
}

// Ledger is the read-only accounting store the reports aggregate from.
type Ledger interface {
	Categories(ctx context.Context) ([]Category, error)
	ActiveProductsInCategories(ctx context.Context, categoryIds []int) ([]Product, error)
	ProductsByIds(ctx context.Context, ids []int) ([]Product, error)
	Lines(ctx context.Context, q LineQuery) ([]LedgerLine, error)
	Invoices(ctx context.Context, q InvoiceQuery) ([]Invoice, error)
	Invoice(ctx context.Context, id int) (*Invoice, error)
	// Suppliers returns the given suppliers, or every active supplier when ids is empty.
	Suppliers(ctx context.Context, ids []int) ([]Supplier, error)
	Currency(ctx context.Context, id int) (*Currency, error)
	CurrencyBySymbol(ctx context.Context, symbol string) (*Currency, error)
	CompanyCurrency(ctx context.Context) (*Currency, error)
}

// CurrencyConverter converts an amount between currencies using the rate
// effective on the given date.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, fromCurrencyId int, toCurrencyId int, companyId int, date time.Time) (decimal.Decimal, error)
}

func isSalesDocument(t DocumentType) bool {
	for _, dt := range SalesDocumentTypes {
		if dt == t {
			return true
		}
	}
	return false
}

func postedSalesLines(q LineQuery) LineQuery {
	q.DocumentTypes = SalesDocumentTypes
	q.State = DocumentStatePosted
	return q
}

func postedSalesInvoices(from, to time.Time) InvoiceQuery {
	return InvoiceQuery{
		DocumentTypes: SalesDocumentTypes,
		State:         DocumentStatePosted,
		DateFrom:      from,
		DateTo:        to,
	}
}
