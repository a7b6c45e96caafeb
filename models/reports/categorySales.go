package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/mmdatafocus/sales_report_backend/config"
	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

// MonthlyRollup aggregates the whole report window by month and category,
// with product rows when the filter names a product subset.
func (s *SalesReportService) MonthlyRollup(ctx context.Context, filter FilterSpec) (rollup *Rollup, err error) {
	ctx, span := s.startSpan(ctx, "MonthlyRollup")
	defer func() { endSpan(span, err) }()
	defer logSlowReport(ctx, "category_sales_monthly", time.Now(), nil)

	if err = s.prepareFilter(ctx, &filter); err != nil {
		return nil, err
	}
	sel, err := ResolveSelection(ctx, s.ledger, filter, 0)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, filter, sel, filter.DateFrom, filter.DateTo, GranularityMonth, filter.HasProductBreakdown())
}

// DailyRollup aggregates one month of the report window by day and category,
// optionally narrowed to one category.
func (s *SalesReportService) DailyRollup(ctx context.Context, filter FilterSpec, month string, categoryId int) (rollup *Rollup, err error) {
	ctx, span := s.startSpan(ctx, "DailyRollup",
		attribute.String("month", month), attribute.Int("category_id", categoryId))
	defer func() { endSpan(span, err) }()
	defer logSlowReport(ctx, "category_sales_daily", time.Now(), map[string]any{"month": month})

	if month == "" {
		return nil, missingContext("month")
	}
	if err = s.prepareFilter(ctx, &filter); err != nil {
		return nil, err
	}
	from, to, err := utils.MonthRange(month)
	if err != nil {
		return nil, fmt.Errorf("%w: month %q", ErrInvalidFilter, month)
	}
	from, to = clampToWindow(from, to, filter.DateFrom, filter.DateTo)
	if from.After(to) {
		return newRollup(GranularityDay), nil
	}
	sel, err := ResolveSelection(ctx, s.ledger, filter, categoryId)
	if err != nil {
		return nil, err
	}
	return s.aggregate(ctx, filter, sel, from, to, GranularityDay, false)
}

func (s *SalesReportService) aggregate(ctx context.Context, filter FilterSpec, sel *Selection, from, to time.Time, g Granularity, breakdown bool) (*Rollup, error) {
	accountTypes := config.RevenueAccountTypes()
	lines, err := s.ledger.Lines(ctx, postedSalesLines(LineQuery{
		DateFrom:     from,
		DateTo:       to,
		ProductIds:   sel.ProductIds(),
		AccountTypes: accountTypes,
	}))
	if err != nil {
		return nil, fmt.Errorf("load ledger lines: %w", err)
	}

	products := make(map[int]struct{}, len(sel.Products))
	for _, p := range sel.Products {
		products[p.ID] = struct{}{}
	}
	allowedAccount := make(map[string]struct{}, len(accountTypes))
	for _, t := range accountTypes {
		allowedAccount[t] = struct{}{}
	}

	rollup := newRollup(g)
	used := 0
	for _, l := range lines {
		if !l.IsEligible() || l.Date.Before(from) || l.Date.After(to) {
			continue
		}
		if _, ok := products[l.ProductId]; !ok {
			continue
		}
		if len(allowedAccount) > 0 {
			if _, ok := allowedAccount[l.AccountType]; !ok {
				continue
			}
		}
		amount, err := convertLine(ctx, s.converter, l, filter.TargetCurrencyId)
		if err != nil {
			return nil, err
		}
		rollup.add(l, amount.Abs(), breakdown)
		used++
	}
	rollup.finish()

	s.debug(logrus.Fields{
		"granularity": g,
		"categories":  len(sel.Categories),
		"products":    len(sel.Products),
		"lines":       len(lines),
		"used":        used,
		"periods":     len(rollup.Periods),
	}, "sales rollup built")
	return rollup, nil
}
