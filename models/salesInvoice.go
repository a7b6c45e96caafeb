package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesInvoice is a customer invoice or credit note header.
type SalesInvoice struct {
	ID            int                  `gorm:"primary_key" json:"id"`
	BusinessId    string               `gorm:"index;not null" json:"business_id" binding:"required"`
	CompanyId     int                  `gorm:"index;not null" json:"company_id" binding:"required"`
	CustomerId    int                  `gorm:"index;not null" json:"customer_id" binding:"required"`
	SalesPersonId int                  `gorm:"default:null" json:"sales_person_id"`
	InvoiceNumber string               `gorm:"size:255;not null" json:"invoice_number" binding:"required"`
	MoveType      MoveType             `gorm:"size:16;index;not null" json:"move_type" binding:"required"`
	State         MoveState            `gorm:"size:16;index;not null" json:"state" binding:"required"`
	InvoiceDate   time.Time            `gorm:"type:date;index;not null" json:"invoice_date" binding:"required"`
	CurrencyId    int                  `gorm:"not null" json:"currency_id" binding:"required"`
	AmountUntaxed decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"amount_untaxed"`
	AmountTax     decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"amount_tax"`
	AmountTotal   decimal.Decimal      `gorm:"type:decimal(20,4);default:0" json:"amount_total"`
	PaymentState  PaymentState         `gorm:"size:16;default:'not_paid'" json:"payment_state"`
	Details       []SalesInvoiceDetail `gorm:"foreignKey:SalesInvoiceId" json:"details"`
	CreatedAt     time.Time            `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time            `gorm:"autoUpdateTime" json:"updated_at"`
}

func (inv *SalesInvoice) BeforeSave(tx *gorm.DB) error {
	return inv.MoveType.Validate()
}

// SalesInvoiceDetail is one journal line of an invoice. Balance is signed in
// the company currency (credits negative); AmountCurrency carries the same
// amount in CurrencyId when the line is in a foreign currency.
type SalesInvoiceDetail struct {
	ID             int             `gorm:"primary_key" json:"id"`
	BusinessId     string          `gorm:"index;not null" json:"business_id" binding:"required"`
	SalesInvoiceId int             `gorm:"index;not null" json:"sales_invoice_id" binding:"required"`
	ProductId      int             `gorm:"index;default:null" json:"product_id"`
	AccountId      int             `gorm:"index;not null" json:"account_id" binding:"required"`
	Name           string          `gorm:"size:255" json:"name"`
	Date           time.Time       `gorm:"type:date;index;not null" json:"date" binding:"required"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"quantity"`
	PriceUnit      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_unit"`
	PriceSubtotal  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_subtotal"`
	Balance        decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"balance"`
	AmountCurrency decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"amount_currency"`
	CurrencyId     *int            `gorm:"default:null" json:"currency_id"`
	CreatedAt      time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}
