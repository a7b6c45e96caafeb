package reports

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Margin struct {
	TotalCost     decimal.Decimal `json:"totalCost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"marginPercent"`
}

// LineMargin prices a sold quantity at the product's current standard cost.
func LineMargin(subtotal, unitCost, quantity decimal.Decimal) Margin {
	cost := unitCost.Mul(quantity)
	return TotalsMargin(subtotal, cost)
}

// TotalsMargin derives margin and margin percent from already summed sales and cost.
func TotalsMargin(sales, cost decimal.Decimal) Margin {
	margin := sales.Sub(cost)
	return Margin{
		TotalCost:     cost,
		Margin:        margin,
		MarginPercent: MarginPercent(margin, sales),
	}
}

// MarginPercent is margin / subtotal * 100, and zero when subtotal is zero.
func MarginPercent(margin, subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.IsZero() {
		return decimal.Zero
	}
	return margin.DivRound(subtotal, 4).Mul(hundred)
}
