package reports

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// sourceAmount picks what a line is converted from: its own foreign-currency
// amount when it carries a currency, otherwise its company-currency balance.
func sourceAmount(l LedgerLine) (decimal.Decimal, int) {
	if l.CurrencyId != nil && *l.CurrencyId != 0 {
		return l.AmountCurrency, *l.CurrencyId
	}
	return l.Balance, l.CompanyCurrencyId
}

// convertLine expresses a line in the target currency as of the line date.
func convertLine(ctx context.Context, conv CurrencyConverter, l LedgerLine, targetCurrencyId int) (decimal.Decimal, error) {
	amount, from := sourceAmount(l)
	return convertAmount(ctx, conv, amount, from, targetCurrencyId, l.CompanyId, l.Date)
}

func convertAmount(ctx context.Context, conv CurrencyConverter, amount decimal.Decimal, from int, to int, companyId int, date time.Time) (decimal.Decimal, error) {
	converted, err := conv.Convert(ctx, amount, from, to, companyId, date)
	if err != nil {
		var convErr *ConversionError
		if errors.As(err, &convErr) {
			return decimal.Zero, err
		}
		return decimal.Zero, &ConversionError{FromCurrencyId: from, ToCurrencyId: to, Date: date, Err: err}
	}
	return converted, nil
}
