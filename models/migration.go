package models

import (
	"log"

	"github.com/mmdatafocus/sales_report_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{}, &Company{}, &Currency{}, &CurrencyRate{},
		&Customer{}, &SalesPerson{},
		&Product{}, &ProductCategory{}, &ProductSupplier{},
		&SalesInvoice{}, &SalesInvoiceDetail{}, &Supplier{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
