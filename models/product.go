package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            int             `gorm:"primary_key" json:"id"`
	BusinessId    string          `gorm:"index;not null" json:"business_id" binding:"required"`
	Name          string          `gorm:"size:100;not null" json:"name" binding:"required"`
	Sku           string          `gorm:"size:100" json:"sku"`
	CategoryId    int             `gorm:"index;not null" json:"category_id" binding:"required"`
	StandardPrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"standard_price"`
	IsActive      *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// ProductSupplier ranks the vendors of a product; the lowest Sequence is preferred.
type ProductSupplier struct {
	ID         int       `gorm:"primary_key" json:"id"`
	BusinessId string    `gorm:"index;not null" json:"business_id" binding:"required"`
	ProductId  int       `gorm:"index;not null" json:"product_id" binding:"required"`
	SupplierId int       `gorm:"index;not null" json:"supplier_id" binding:"required"`
	Sequence   int       `gorm:"not null;default:10" json:"sequence"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
