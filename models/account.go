package models

import "time"

type Account struct {
	ID          int         `gorm:"primary_key" json:"id"`
	BusinessId  string      `gorm:"index;not null" json:"business_id" binding:"required"`
	Name        string      `gorm:"size:255;not null" json:"name" binding:"required"`
	Code        string      `gorm:"size:64;default:null" json:"code"`
	AccountType AccountType `gorm:"size:64;index;not null" json:"account_type" binding:"required"`
	IsActive    *bool       `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updated_at"`
}
