package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerStore reads the sales ledger of the request's business.
type LedgerStore struct {
	db *gorm.DB
}

// NewLedgerStore uses db, or the global connection when db is nil.
func NewLedgerStore(db *gorm.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

var _ reports.Ledger = (*LedgerStore)(nil)

// session returns a read-only handle and the business id every query filters on.
func (s *LedgerStore) session(ctx context.Context) (*gorm.DB, string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, "", utils.ErrorBusinessIdRequired
	}
	db := s.db
	if db == nil {
		db = config.GetDB()
	}
	if db == nil {
		return nil, "", errors.New("database not initialized")
	}
	return db.WithContext(utils.SetReadOnlyLedgerInContext(ctx)), businessId, nil
}

func (s *LedgerStore) Categories(ctx context.Context) ([]reports.Category, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ProductCategory
	if err := db.Where("business_id = ? AND is_active = ?", businessId, true).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]reports.Category, 0, len(rows))
	for _, c := range rows {
		out = append(out, reports.Category{ID: c.ID, Name: c.Name, ParentId: c.ParentId})
	}
	return out, nil
}

func (s *LedgerStore) ActiveProductsInCategories(ctx context.Context, categoryIds []int) ([]reports.Product, error) {
	if len(categoryIds) == 0 {
		return nil, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var rows []Product
	if err := db.Where("business_id = ? AND is_active = ? AND category_id IN ?", businessId, true, categoryIds).
		Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.toReportProducts(ctx, rows)
}

func (s *LedgerStore) ProductsByIds(ctx context.Context, ids []int) ([]reports.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var rows []Product
	if err := db.Where("business_id = ? AND id IN ?", businessId, ids).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	return s.toReportProducts(ctx, rows)
}

func (s *LedgerStore) toReportProducts(ctx context.Context, rows []Product) ([]reports.Product, error) {
	productIds := make([]int, 0, len(rows))
	categoryIds := make([]int, 0, len(rows))
	for _, p := range rows {
		productIds = append(productIds, p.ID)
		categoryIds = append(categoryIds, p.CategoryId)
	}
	categoryNames, err := s.categoryNames(ctx, utils.UniqueSlice(categoryIds))
	if err != nil {
		return nil, err
	}
	vendors, err := s.rankedVendors(ctx, productIds)
	if err != nil {
		return nil, err
	}
	out := make([]reports.Product, 0, len(rows))
	for _, p := range rows {
		out = append(out, reports.Product{
			ID:            p.ID,
			Name:          p.Name,
			DefaultCode:   p.Sku,
			CategoryId:    p.CategoryId,
			CategoryName:  categoryNames[p.CategoryId],
			StandardPrice: p.StandardPrice,
			IsActive:      utils.DereferencePtr(p.IsActive, true),
			VendorIds:     vendors[p.ID],
		})
	}
	return out, nil
}

func (s *LedgerStore) categoryNames(ctx context.Context, ids []int) (map[int]string, error) {
	out := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ProductCategory
	if err := db.Select("id", "name").Where("business_id = ? AND id IN ?", businessId, ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.ID] = c.Name
	}
	return out, nil
}

// rankedVendors lists each product's suppliers by sequence, then id.
func (s *LedgerStore) rankedVendors(ctx context.Context, productIds []int) (map[int][]int, error) {
	out := make(map[int][]int)
	if len(productIds) == 0 {
		return out, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var rows []ProductSupplier
	if err := db.Where("business_id = ? AND product_id IN ?", businessId, productIds).
		Order("product_id, sequence, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, ps := range rows {
		out[ps.ProductId] = append(out[ps.ProductId], ps.SupplierId)
	}
	return out, nil
}

type ledgerLineRow struct {
	ID                int
	Date              time.Time
	InvoiceId         int
	InvoiceName       string
	DocumentType      string
	DocumentState     string
	AccountType       string
	ProductId         int
	ProductName       string
	ProductCode       string
	CategoryId        int
	CategoryName      string
	CompanyId         int
	CompanyCurrencyId int
	CurrencyId        *int
	AmountCurrency    decimal.Decimal
	Balance           decimal.Decimal
	Quantity          decimal.Decimal
	PriceUnit         decimal.Decimal
	PriceSubtotal     decimal.Decimal
}

func (s *LedgerStore) Lines(ctx context.Context, q reports.LineQuery) ([]reports.LedgerLine, error) {
	if len(q.ProductIds) == 0 {
		return nil, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	tx := db.Model(&SalesInvoiceDetail{}).
		Select(`sales_invoice_details.id, sales_invoice_details.date,
			sales_invoices.id AS invoice_id, sales_invoices.invoice_number AS invoice_name,
			sales_invoices.move_type AS document_type, sales_invoices.state AS document_state,
			accounts.account_type, products.id AS product_id, products.name AS product_name,
			products.sku AS product_code, products.category_id, product_categories.name AS category_name,
			sales_invoices.company_id, companies.currency_id AS company_currency_id,
			sales_invoice_details.currency_id, sales_invoice_details.amount_currency,
			sales_invoice_details.balance, sales_invoice_details.quantity,
			sales_invoice_details.price_unit, sales_invoice_details.price_subtotal`).
		Joins("JOIN sales_invoices ON sales_invoices.id = sales_invoice_details.sales_invoice_id").
		Joins("JOIN products ON products.id = sales_invoice_details.product_id").
		Joins("LEFT JOIN product_categories ON product_categories.id = products.category_id").
		Joins("JOIN accounts ON accounts.id = sales_invoice_details.account_id").
		Joins("JOIN companies ON companies.id = sales_invoices.company_id").
		Where("sales_invoices.business_id = ?", businessId).
		Where("sales_invoices.state = ?", string(q.State)).
		Where("sales_invoice_details.date BETWEEN ? AND ?", q.DateFrom, q.DateTo).
		Where("sales_invoice_details.product_id IN ?", q.ProductIds)
	if len(q.DocumentTypes) > 0 {
		tx = tx.Where("sales_invoices.move_type IN ?", documentTypeStrings(q.DocumentTypes))
	}
	if len(q.AccountTypes) > 0 {
		tx = tx.Where("accounts.account_type IN ?", q.AccountTypes)
	}

	var rows []ledgerLineRow
	if err := tx.Order("sales_invoice_details.date, sales_invoice_details.id").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query ledger lines: %w", err)
	}

	out := make([]reports.LedgerLine, 0, len(rows))
	for _, r := range rows {
		out = append(out, reports.LedgerLine{
			ID:                r.ID,
			Date:              utils.NormalizeDate(r.Date),
			InvoiceId:         r.InvoiceId,
			InvoiceName:       r.InvoiceName,
			DocumentType:      reports.DocumentType(r.DocumentType),
			DocumentState:     reports.DocumentState(r.DocumentState),
			AccountType:       r.AccountType,
			ProductId:         r.ProductId,
			ProductName:       r.ProductName,
			ProductCode:       r.ProductCode,
			CategoryId:        r.CategoryId,
			CategoryName:      r.CategoryName,
			CompanyId:         r.CompanyId,
			CompanyCurrencyId: r.CompanyCurrencyId,
			CurrencyId:        r.CurrencyId,
			AmountCurrency:    r.AmountCurrency,
			Balance:           r.Balance,
			Quantity:          r.Quantity,
			PriceUnit:         r.PriceUnit,
			PriceSubtotal:     r.PriceSubtotal,
		})
	}
	return out, nil
}

func documentTypeStrings(types []reports.DocumentType) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		out = append(out, string(t))
	}
	return out
}

func (s *LedgerStore) Invoices(ctx context.Context, q reports.InvoiceQuery) ([]reports.Invoice, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	tx := db.Where("business_id = ? AND state = ? AND invoice_date BETWEEN ? AND ?",
		businessId, string(q.State), q.DateFrom, q.DateTo)
	if len(q.DocumentTypes) > 0 {
		tx = tx.Where("move_type IN ?", documentTypeStrings(q.DocumentTypes))
	}
	var rows []SalesInvoice
	if err := tx.Preload("Details", "product_id IS NOT NULL").Order("invoice_date, invoice_number, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query invoices: %w", err)
	}
	return s.toReportInvoices(ctx, rows)
}

func (s *LedgerStore) Invoice(ctx context.Context, id int) (*reports.Invoice, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var row SalesInvoice
	err = db.Where("business_id = ? AND id = ?", businessId, id).
		Preload("Details", "product_id IS NOT NULL").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	invoices, err := s.toReportInvoices(ctx, []SalesInvoice{row})
	if err != nil {
		return nil, err
	}
	return &invoices[0], nil
}

// toReportInvoices resolves the names and product data of a batch of invoices
// with one query per referenced table.
func (s *LedgerStore) toReportInvoices(ctx context.Context, rows []SalesInvoice) ([]reports.Invoice, error) {
	if len(rows) == 0 {
		return nil, nil
	}
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}

	var customerIds, salesPersonIds, currencyIds, companyIds, productIds []int
	for _, inv := range rows {
		customerIds = append(customerIds, inv.CustomerId)
		if inv.SalesPersonId != 0 {
			salesPersonIds = append(salesPersonIds, inv.SalesPersonId)
		}
		currencyIds = append(currencyIds, inv.CurrencyId)
		companyIds = append(companyIds, inv.CompanyId)
		for _, d := range inv.Details {
			productIds = append(productIds, d.ProductId)
		}
	}

	customers, err := namesById[Customer](db, businessId, utils.UniqueSlice(customerIds))
	if err != nil {
		return nil, err
	}
	salesPeople, err := namesById[SalesPerson](db, businessId, utils.UniqueSlice(salesPersonIds))
	if err != nil {
		return nil, err
	}
	currencies, err := namesById[Currency](db, businessId, utils.UniqueSlice(currencyIds))
	if err != nil {
		return nil, err
	}
	var companies []Company
	if err := db.Where("business_id = ? AND id IN ?", businessId, utils.UniqueSlice(companyIds)).Find(&companies).Error; err != nil {
		return nil, err
	}
	companyCurrency := make(map[int]int, len(companies))
	for _, c := range companies {
		companyCurrency[c.ID] = c.CurrencyId
	}
	products, err := s.ProductsByIds(ctx, utils.UniqueSlice(productIds))
	if err != nil {
		return nil, err
	}
	productById := make(map[int]reports.Product, len(products))
	for _, p := range products {
		productById[p.ID] = p
	}

	out := make([]reports.Invoice, 0, len(rows))
	for _, inv := range rows {
		ri := reports.Invoice{
			ID:                inv.ID,
			Name:              inv.InvoiceNumber,
			DocumentType:      reports.DocumentType(inv.MoveType),
			DocumentState:     reports.DocumentState(inv.State),
			InvoiceDate:       utils.NormalizeDate(inv.InvoiceDate),
			CompanyId:         inv.CompanyId,
			CompanyCurrencyId: companyCurrency[inv.CompanyId],
			CurrencyId:        inv.CurrencyId,
			CurrencyName:      currencies[inv.CurrencyId],
			CustomerName:      customers[inv.CustomerId],
			SalespersonName:   salesPeople[inv.SalesPersonId],
			AmountUntaxed:     inv.AmountUntaxed,
			AmountTax:         inv.AmountTax,
			AmountTotal:       inv.AmountTotal,
			PaymentState:      string(inv.PaymentState),
		}
		for _, d := range inv.Details {
			p := productById[d.ProductId]
			ri.Lines = append(ri.Lines, reports.InvoiceLine{
				ID:            d.ID,
				Label:         d.Name,
				ProductId:     d.ProductId,
				ProductName:   p.Name,
				ProductCode:   p.DefaultCode,
				CategoryId:    p.CategoryId,
				CategoryName:  p.CategoryName,
				Quantity:      d.Quantity,
				PriceUnit:     d.PriceUnit,
				PriceSubtotal: d.PriceSubtotal,
				StandardPrice: p.StandardPrice,
				VendorIds:     p.VendorIds,
			})
		}
		out = append(out, ri)
	}
	return out, nil
}

type namedRow struct {
	ID   int
	Name string
}

// namesById maps id to name for rows of T's table in the business.
func namesById[T any](db *gorm.DB, businessId string, ids []int) (map[int]string, error) {
	out := make(map[int]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []namedRow
	if err := db.Model(new(T)).Select("id", "name").Where("business_id = ? AND id IN ?", businessId, ids).Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, r := range rows {
		out[r.ID] = r.Name
	}
	return out, nil
}

func (s *LedgerStore) Suppliers(ctx context.Context, ids []int) ([]reports.Supplier, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	tx := db.Where("business_id = ?", businessId)
	if len(ids) > 0 {
		tx = tx.Where("id IN ?", ids)
	} else {
		tx = tx.Where("is_active = ?", true)
	}
	var rows []Supplier
	if err := tx.Order("name, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]reports.Supplier, 0, len(rows))
	for _, sup := range rows {
		out = append(out, reports.Supplier{ID: sup.ID, Name: sup.Name})
	}
	return out, nil
}

func (s *LedgerStore) Currency(ctx context.Context, id int) (*reports.Currency, error) {
	return s.findCurrency(ctx, "id = ?", id)
}

func (s *LedgerStore) CurrencyBySymbol(ctx context.Context, symbol string) (*reports.Currency, error) {
	return s.findCurrency(ctx, "symbol = ? AND is_active = ?", symbol, true)
}

// CompanyCurrency is the currency of the business's first company.
func (s *LedgerStore) CompanyCurrency(ctx context.Context) (*reports.Currency, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var company Company
	err = db.Where("business_id = ?", businessId).Order("id").First(&company).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return s.Currency(ctx, company.CurrencyId)
}

func (s *LedgerStore) findCurrency(ctx context.Context, query string, args ...any) (*reports.Currency, error) {
	db, businessId, err := s.session(ctx)
	if err != nil {
		return nil, err
	}
	var cur Currency
	err = db.Where("business_id = ?", businessId).Where(query, args...).First(&cur).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return cur.toReport(), nil
}
