package reports

import (
	"sort"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
)

type Granularity string

const (
	GranularityMonth Granularity = "month"
	GranularityDay   Granularity = "day"
)

func (g Granularity) periodKey(date time.Time) string {
	if g == GranularityDay {
		return date.Format(utils.DateLayout)
	}
	return date.Format(utils.MonthLayout)
}

type ProductTotal struct {
	ProductId   int             `json:"productId"`
	DisplayName string          `json:"displayName"`
	Amount      decimal.Decimal `json:"amount"`
}

type CategoryTotal struct {
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	Total        decimal.Decimal `json:"total"`
	InvoiceCount int             `json:"invoiceCount"`
	Products     []*ProductTotal `json:"products,omitempty"`

	products map[int]*ProductTotal
	invoices map[int]struct{}
}

type PeriodTotals struct {
	Key        string           `json:"key"`
	Categories []*CategoryTotal `json:"categories"`

	categories map[int]*CategoryTotal
}

// Rollup groups converted sales amounts by period and category, with an
// optional per-product breakdown inside each category.
type Rollup struct {
	Granularity Granularity     `json:"granularity"`
	Periods     []*PeriodTotals `json:"periods"`

	periods map[string]*PeriodTotals
}

func newRollup(g Granularity) *Rollup {
	return &Rollup{Granularity: g, periods: make(map[string]*PeriodTotals)}
}

// ProductDisplayName renders "[CODE] Name", using NO-CODE for products without a reference.
func ProductDisplayName(code, name string) string {
	if code == "" {
		code = "NO-CODE"
	}
	return "[" + code + "] " + name
}

func (r *Rollup) add(l LedgerLine, amount decimal.Decimal, breakdown bool) {
	key := r.Granularity.periodKey(l.Date)
	period, ok := r.periods[key]
	if !ok {
		period = &PeriodTotals{Key: key, categories: make(map[int]*CategoryTotal)}
		r.periods[key] = period
		r.Periods = append(r.Periods, period)
	}

	category, ok := period.categories[l.CategoryId]
	if !ok {
		category = &CategoryTotal{
			CategoryId:   l.CategoryId,
			CategoryName: l.CategoryName,
			products:     make(map[int]*ProductTotal),
			invoices:     make(map[int]struct{}),
		}
		period.categories[l.CategoryId] = category
		period.Categories = append(period.Categories, category)
	}
	category.Total = category.Total.Add(amount)
	if l.InvoiceId != 0 {
		category.invoices[l.InvoiceId] = struct{}{}
		category.InvoiceCount = len(category.invoices)
	}

	if !breakdown {
		return
	}
	product, ok := category.products[l.ProductId]
	if !ok {
		product = &ProductTotal{
			ProductId:   l.ProductId,
			DisplayName: ProductDisplayName(l.ProductCode, l.ProductName),
		}
		category.products[l.ProductId] = product
		category.Products = append(category.Products, product)
	}
	product.Amount = product.Amount.Add(amount)
}

// finish orders periods ascending; categories and products keep insertion order.
func (r *Rollup) finish() {
	sort.SliceStable(r.Periods, func(i, j int) bool {
		return r.Periods[i].Key < r.Periods[j].Key
	})
}

// Total is the grand total over every period and category.
func (r *Rollup) Total() decimal.Decimal {
	total := decimal.Zero
	for _, p := range r.Periods {
		for _, c := range p.Categories {
			total = total.Add(c.Total)
		}
	}
	return total
}

// MonthlyLine is one row of the main report: a category total row followed
// by its product rows.
type MonthlyLine struct {
	Month           string          `json:"month"`
	CategoryId      int             `json:"categoryId"`
	CategoryName    string          `json:"categoryName"`
	ProductId       int             `json:"productId,omitempty"`
	ProductName     string          `json:"productName"`
	Amount          decimal.Decimal `json:"amount"`
	IsCategoryTotal bool            `json:"isCategoryTotal"`
}

type DailyLine struct {
	Date         string          `json:"date"`
	CategoryId   int             `json:"categoryId"`
	CategoryName string          `json:"categoryName"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	InvoiceCount int             `json:"invoiceCount"`
}

func (r *Rollup) MonthlyLines() []MonthlyLine {
	var lines []MonthlyLine
	for _, p := range r.Periods {
		for _, c := range p.Categories {
			lines = append(lines, MonthlyLine{
				Month:           p.Key,
				CategoryId:      c.CategoryId,
				CategoryName:    c.CategoryName,
				ProductName:     "TOTAL",
				Amount:          c.Total,
				IsCategoryTotal: true,
			})
			for _, prod := range c.Products {
				lines = append(lines, MonthlyLine{
					Month:        p.Key,
					CategoryId:   c.CategoryId,
					CategoryName: c.CategoryName,
					ProductId:    prod.ProductId,
					ProductName:  prod.DisplayName,
					Amount:       prod.Amount,
				})
			}
		}
	}
	return lines
}

func (r *Rollup) DailyLines() []DailyLine {
	var lines []DailyLine
	for _, p := range r.Periods {
		for _, c := range p.Categories {
			lines = append(lines, DailyLine{
				Date:         p.Key,
				CategoryId:   c.CategoryId,
				CategoryName: c.CategoryName,
				TotalAmount:  c.Total,
				InvoiceCount: c.InvoiceCount,
			})
		}
	}
	return lines
}
