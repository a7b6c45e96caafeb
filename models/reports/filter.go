package reports

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/utils"
)

var validate = validator.New()

// FilterSpec is the input of the category/product report.
type FilterSpec struct {
	DateFrom             time.Time `json:"dateFrom" validate:"required"`
	DateTo               time.Time `json:"dateTo" validate:"required,gtefield=DateFrom"`
	CategoryIds          []int     `json:"categoryIds" validate:"dive,gt=0"`
	ProductIds           []int     `json:"productIds" validate:"dive,gt=0"`
	IncludeSubcategories bool      `json:"includeSubcategories"`
	TargetCurrencyId     int       `json:"targetCurrencyId" validate:"gte=0"`
	TargetCurrency       *Currency `json:"targetCurrency,omitempty"`
}

// SupplierFilter is the input of the supplier margin report.
type SupplierFilter struct {
	DateFrom         time.Time `json:"dateFrom" validate:"required"`
	DateTo           time.Time `json:"dateTo" validate:"required,gtefield=DateFrom"`
	SupplierIds      []int     `json:"supplierIds" validate:"dive,gt=0"`
	TargetCurrencyId int       `json:"targetCurrencyId" validate:"gte=0"`
	TargetCurrency   *Currency `json:"targetCurrency,omitempty"`
}

// Normalize drops clock parts and duplicate ids, then validates.
func (f *FilterSpec) Normalize() error {
	f.DateFrom = utils.NormalizeDate(f.DateFrom)
	f.DateTo = utils.NormalizeDate(f.DateTo)
	f.CategoryIds = utils.UniqueSlice(f.CategoryIds)
	f.ProductIds = utils.UniqueSlice(f.ProductIds)
	return validateStruct(f)
}

func (f *SupplierFilter) Normalize() error {
	f.DateFrom = utils.NormalizeDate(f.DateFrom)
	f.DateTo = utils.NormalizeDate(f.DateTo)
	f.SupplierIds = utils.UniqueSlice(f.SupplierIds)
	return validateStruct(f)
}

// AllowsSupplier reports whether a drill-down may open the supplier.
func (f SupplierFilter) AllowsSupplier(supplierId int) bool {
	if len(f.SupplierIds) == 0 {
		return true
	}
	for _, id := range f.SupplierIds {
		if id == supplierId {
			return true
		}
	}
	return false
}

func (f FilterSpec) HasProductBreakdown() bool {
	return len(f.ProductIds) > 0
}

func validateStruct(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalidFilter, strings.Join(msgs, ", "))
		}
		return fmt.Errorf("%w: %v", ErrInvalidFilter, err)
	}
	return nil
}

// ResolveTargetCurrency looks up the requested currency, or the configured
// reference currency, falling back to the company currency.
func ResolveTargetCurrency(ctx context.Context, ledger Ledger, currencyId int) (*Currency, error) {
	if currencyId > 0 {
		cur, err := ledger.Currency(ctx, currencyId)
		if err != nil {
			return nil, err
		}
		if cur == nil {
			return nil, fmt.Errorf("%w: target currency %d not found", ErrInvalidFilter, currencyId)
		}
		return cur, nil
	}
	cur, err := ledger.CurrencyBySymbol(ctx, config.ReferenceCurrencySymbol())
	if err != nil {
		return nil, err
	}
	if cur != nil {
		return cur, nil
	}
	cur, err = ledger.CompanyCurrency(ctx)
	if err != nil {
		return nil, err
	}
	if cur == nil {
		return nil, fmt.Errorf("%w: no target currency could be resolved", ErrInvalidFilter)
	}
	return cur, nil
}

// clampToWindow intersects [from, to] with the report window.
func clampToWindow(from, to, windowFrom, windowTo time.Time) (time.Time, time.Time) {
	if from.Before(windowFrom) {
		from = windowFrom
	}
	if to.After(windowTo) {
		to = windowTo
	}
	return from, to
}
