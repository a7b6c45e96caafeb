package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type rateKey struct {
	currencyId int
	companyId  int
	date       string
}

// RateTableConverter converts with the currency_rates table. Lookups are
// memoized, so build one per request.
type RateTableConverter struct {
	db *gorm.DB

	mu              sync.Mutex
	rates           map[rateKey]decimal.Decimal
	decimalPlaces   map[int]int32
	companyCurrency map[int]int
}

func NewRateTableConverter(db *gorm.DB) *RateTableConverter {
	return &RateTableConverter{
		db:              db,
		rates:           make(map[rateKey]decimal.Decimal),
		decimalPlaces:   make(map[int]int32),
		companyCurrency: make(map[int]int),
	}
}

var _ reports.CurrencyConverter = (*RateTableConverter)(nil)

// ConvertWithRates converts between two currencies quoted per unit of the
// company currency and rounds to the target currency's decimal places.
func ConvertWithRates(amount, fromRate, toRate decimal.Decimal, places int32) (decimal.Decimal, error) {
	if fromRate.IsZero() || toRate.IsZero() {
		return decimal.Zero, reports.ErrNoExchangeRate
	}
	return amount.Mul(toRate).Div(fromRate).Round(places), nil
}

func (c *RateTableConverter) Convert(ctx context.Context, amount decimal.Decimal, fromCurrencyId int, toCurrencyId int, companyId int, date time.Time) (decimal.Decimal, error) {
	places, err := c.places(ctx, toCurrencyId)
	if err != nil {
		return decimal.Zero, err
	}
	if fromCurrencyId == toCurrencyId {
		return amount.Round(places), nil
	}
	fromRate, err := c.rate(ctx, fromCurrencyId, companyId, date)
	if err != nil {
		return decimal.Zero, c.wrap(err, fromCurrencyId, toCurrencyId, date)
	}
	toRate, err := c.rate(ctx, toCurrencyId, companyId, date)
	if err != nil {
		return decimal.Zero, c.wrap(err, fromCurrencyId, toCurrencyId, date)
	}
	converted, err := ConvertWithRates(amount, fromRate, toRate, places)
	if err != nil {
		return decimal.Zero, c.wrap(err, fromCurrencyId, toCurrencyId, date)
	}
	return converted, nil
}

func (c *RateTableConverter) wrap(err error, from, to int, date time.Time) error {
	return &reports.ConversionError{FromCurrencyId: from, ToCurrencyId: to, Date: date, Err: err}
}

func (c *RateTableConverter) session(ctx context.Context) (*gorm.DB, string, error) {
	businessId, ok := utils.GetBusinessIdFromContext(ctx)
	if !ok || businessId == "" {
		return nil, "", utils.ErrorBusinessIdRequired
	}
	db := c.db
	if db == nil {
		db = config.GetDB()
	}
	if db == nil {
		return nil, "", errors.New("database not initialized")
	}
	return db.WithContext(utils.SetReadOnlyLedgerInContext(ctx)), businessId, nil
}

func (c *RateTableConverter) places(ctx context.Context, currencyId int) (int32, error) {
	c.mu.Lock()
	p, ok := c.decimalPlaces[currencyId]
	c.mu.Unlock()
	if ok {
		return p, nil
	}
	db, businessId, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	var cur Currency
	if err := db.Where("business_id = ? AND id = ?", businessId, currencyId).First(&cur).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("currency %d: %w", currencyId, utils.ErrorRecordNotFound)
		}
		return 0, err
	}
	p = cur.DecimalPlaces.Int32()
	c.mu.Lock()
	c.decimalPlaces[currencyId] = p
	c.mu.Unlock()
	return p, nil
}

func (c *RateTableConverter) companyCurrencyId(ctx context.Context, companyId int) (int, error) {
	c.mu.Lock()
	id, ok := c.companyCurrency[companyId]
	c.mu.Unlock()
	if ok {
		return id, nil
	}
	db, businessId, err := c.session(ctx)
	if err != nil {
		return 0, err
	}
	var company Company
	if err := db.Where("business_id = ? AND id = ?", businessId, companyId).First(&company).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, fmt.Errorf("company %d: %w", companyId, utils.ErrorRecordNotFound)
		}
		return 0, err
	}
	c.mu.Lock()
	c.companyCurrency[companyId] = company.CurrencyId
	c.mu.Unlock()
	return company.CurrencyId, nil
}

// rate is the latest rate dated on or before date, preferring a rate of the
// company over a shared one. The company currency itself is always 1.
func (c *RateTableConverter) rate(ctx context.Context, currencyId int, companyId int, date time.Time) (decimal.Decimal, error) {
	base, err := c.companyCurrencyId(ctx, companyId)
	if err != nil {
		return decimal.Zero, err
	}
	if base == currencyId {
		return decimal.NewFromInt(1), nil
	}

	key := rateKey{currencyId: currencyId, companyId: companyId, date: date.Format(utils.DateLayout)}
	c.mu.Lock()
	r, ok := c.rates[key]
	c.mu.Unlock()
	if ok {
		return r, nil
	}

	db, businessId, err := c.session(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	var row CurrencyRate
	err = db.Where("business_id = ? AND currency_id = ? AND rate_date <= ?", businessId, currencyId, utils.NormalizeDate(date)).
		Where("company_id = ? OR company_id IS NULL", companyId).
		Order("company_id IS NULL, rate_date DESC, id DESC").
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return decimal.Zero, reports.ErrNoExchangeRate
	} else if err != nil {
		return decimal.Zero, err
	}
	c.mu.Lock()
	c.rates[key] = row.Rate
	c.mu.Unlock()
	return row.Rate, nil
}
