package reports

import (
	"fmt"
	"time"

	"github.com/mmdatafocus/sales_report_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	CategorySalesSheet = "Category Product Sales"
	SupplierSalesSheet = "Supplier Monthly Sales"

	amountFormat  = "#,##0.00"
	percentFormat = "0.00"
)

func CategoryWorkbookFilename(from, to time.Time) string {
	return fmt.Sprintf("category_product_sales_report_%s_%s.xlsx", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
}

func SupplierWorkbookFilename(from, to time.Time) string {
	return fmt.Sprintf("supplier_sales_report_%s_%s.xlsx", from.Format(utils.DateLayout), to.Format(utils.DateLayout))
}

type workbookStyles struct {
	header      int
	categoryRow int
	categoryAmt int
	productRow  int
	amount      int
	percent     int
}

func newWorkbookStyles(f *excelize.File) (*workbookStyles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	amountFmt := amountFormat
	percentFmt := percentFormat
	var (
		st  workbookStyles
		err error
	)
	if st.header, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D7E4BC"}},
		Border: border,
	}); err != nil {
		return nil, err
	}
	categoryFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F2F2F2"}}
	if st.categoryRow, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: categoryFill,
	}); err != nil {
		return nil, err
	}
	if st.categoryAmt, err = f.NewStyle(&excelize.Style{
		Font:         &excelize.Font{Bold: true},
		Fill:         categoryFill,
		CustomNumFmt: &amountFmt,
	}); err != nil {
		return nil, err
	}
	if st.productRow, err = f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Indent: 1},
	}); err != nil {
		return nil, err
	}
	if st.amount, err = f.NewStyle(&excelize.Style{CustomNumFmt: &amountFmt}); err != nil {
		return nil, err
	}
	if st.percent, err = f.NewStyle(&excelize.Style{CustomNumFmt: &percentFmt}); err != nil {
		return nil, err
	}
	return &st, nil
}

func newSheet(name string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}

func writeHeader(f *excelize.File, sheet string, style int, headings ...string) error {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	last, err := excelize.CoordinatesToCellName(len(headings), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, style)
}

func setAmount(f *excelize.File, sheet string, cell string, v decimal.Decimal, style int) error {
	if err := f.SetCellFloat(sheet, cell, v.InexactFloat64(), -1, 64); err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func setColWidths(f *excelize.File, sheet string, widths ...float64) error {
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return err
		}
	}
	return nil
}

// CategoryWorkbook renders the main report: one bold TOTAL row per month and
// category followed by its indented product rows.
func CategoryWorkbook(r *CategorySalesReport) ([]byte, error) {
	f, err := newSheet(CategorySalesSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}

	symbol := ""
	if r.Filter.TargetCurrency != nil {
		symbol = r.Filter.TargetCurrency.Symbol
	}
	if err := writeHeader(f, CategorySalesSheet, st.header,
		"Month", "Category", "Product", fmt.Sprintf("Total Sales (%s)", symbol)); err != nil {
		return nil, err
	}

	for i, l := range r.MonthlyLines {
		row := i + 2
		a, b, c, d := fmt.Sprintf("A%d", row), fmt.Sprintf("B%d", row), fmt.Sprintf("C%d", row), fmt.Sprintf("D%d", row)
		if l.IsCategoryTotal {
			f.SetCellValue(CategorySalesSheet, a, l.Month)
			f.SetCellValue(CategorySalesSheet, b, l.CategoryName)
			f.SetCellValue(CategorySalesSheet, c, "TOTAL")
			if err := f.SetCellStyle(CategorySalesSheet, a, c, st.categoryRow); err != nil {
				return nil, err
			}
			if err := setAmount(f, CategorySalesSheet, d, l.Amount, st.categoryAmt); err != nil {
				return nil, err
			}
			continue
		}
		f.SetCellValue(CategorySalesSheet, a, l.Month)
		f.SetCellValue(CategorySalesSheet, b, l.CategoryName)
		f.SetCellValue(CategorySalesSheet, c, l.ProductName)
		if err := f.SetCellStyle(CategorySalesSheet, a, c, st.productRow); err != nil {
			return nil, err
		}
		if err := setAmount(f, CategorySalesSheet, d, l.Amount, st.amount); err != nil {
			return nil, err
		}
	}
	if err := setColWidths(f, CategorySalesSheet, 12, 25, 40, 18); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func SupplierWorkbook(r *SupplierSalesReport) ([]byte, error) {
	f, err := newSheet(SupplierSalesSheet)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := newWorkbookStyles(f)
	if err != nil {
		return nil, err
	}
	if err := writeHeader(f, SupplierSalesSheet, st.header,
		"Supplier", "Month", "Total Sales", "Total Cost", "Margin", "Margin %"); err != nil {
		return nil, err
	}

	for i, l := range r.MainLines {
		row := i + 2
		f.SetCellValue(SupplierSalesSheet, fmt.Sprintf("A%d", row), l.SupplierName)
		f.SetCellValue(SupplierSalesSheet, fmt.Sprintf("B%d", row), l.Month)
		for col, v := range map[string]decimal.Decimal{"C": l.TotalSales, "D": l.TotalCost, "E": l.Margin.Margin} {
			if err := setAmount(f, SupplierSalesSheet, fmt.Sprintf("%s%d", col, row), v, st.amount); err != nil {
				return nil, err
			}
		}
		if err := setAmount(f, SupplierSalesSheet, fmt.Sprintf("F%d", row), l.MarginPercent.Round(2), st.percent); err != nil {
			return nil, err
		}
	}
	if err := setColWidths(f, SupplierSalesSheet, 30, 12, 18, 18, 18, 12); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
