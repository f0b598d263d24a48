package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Stock       int             `gorm:"not null" json:"stock"`
	CategoryID  uint            `gorm:"index;not null" json:"category_id"`
	Category    *Category       `gorm:"constraint:OnDelete:CASCADE" json:"category,omitempty"`
	Description *string         `json:"description"`
	Image       *string         `gorm:"size:255" json:"image"`
	IsAvailable bool            `gorm:"not null" json:"is_available"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeSave keeps availability in step with stock on every write.
func (p *Product) BeforeSave(tx *gorm.DB) error {
	p.IsAvailable = p.Stock > 0
	return nil
}
