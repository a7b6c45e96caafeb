package reports

import (
	"errors"
	"fmt"
	"time"
)

var (
	// configuration errors: the selection resolves to nothing
	ErrNoCategories = errors.New("no categories found matching your criteria")
	ErrNoProducts   = errors.New("no products found in the selected categories")
	ErrNoSuppliers  = errors.New("no suppliers found matching your criteria")

	// ErrMissingContext is returned by drill-downs invoked without the parent selection.
	ErrMissingContext = errors.New("selection information is missing")

	ErrInvalidFilter  = errors.New("invalid report filter")
	ErrReportNotFound = errors.New("report not found or expired")
	ErrReportBusy     = errors.New("report is being updated by another request")

	ErrNoExchangeRate = errors.New("no exchange rate defined")
)

// ConversionError reports a failed currency conversion for one (currency pair, date).
type ConversionError struct {
	FromCurrencyId int
	ToCurrencyId   int
	Date           time.Time
	Err            error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert currency %d to %d as of %s: %v",
		e.FromCurrencyId, e.ToCurrencyId, e.Date.Format("2006-01-02"), e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

func missingContext(what string) error {
	return fmt.Errorf("%w: %s is required", ErrMissingContext, what)
}
