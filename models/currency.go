package models

import (
	"time"

	"github.com/mmdatafocus/sales_report_backend/models/reports"
	"github.com/shopspring/decimal"
)

type Currency struct {
	ID            int           `gorm:"primary_key" json:"id"`
	BusinessId    string        `gorm:"index;not null" json:"business_id" binding:"required"`
	Symbol        string        `gorm:"index;size:3;not null" json:"symbol" binding:"required"`
	Name          string        `gorm:"index;size:100;not null" json:"name" binding:"required"`
	DecimalPlaces DecimalPlaces `gorm:"type:enum('0','2','3');default:'2';size:1;not null" json:"decimal_places" binding:"required"`
	IsActive      *bool         `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c Currency) toReport() *reports.Currency {
	return &reports.Currency{
		ID:            c.ID,
		Symbol:        c.Symbol,
		Name:          c.Name,
		DecimalPlaces: c.DecimalPlaces.Int32(),
	}
}

// CurrencyRate is the value of one unit of the company currency in CurrencyId,
// effective from RateDate. A nil CompanyId makes the rate shared by every company.
type CurrencyRate struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index:idx_currency_rate_lookup,priority:1;not null" json:"business_id" binding:"required"`
	CurrencyId int       `gorm:"index:idx_currency_rate_lookup,priority:2;not null" json:"currency_id" binding:"required"`
	CompanyId  *int      `gorm:"index;default:null" json:"company_id"`
	RateDate   time.Time `gorm:"type:date;index:idx_currency_rate_lookup,priority:3;not null" json:"rate_date" binding:"required"`
	Rate       decimal.Decimal `gorm:"type:decimal(20,10);not null" json:"rate" binding:"required"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
