package models

import "time"

type Review struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_reviews_user_product" json:"user_id"`
	User      *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	ProductID uint      `gorm:"not null;index;uniqueIndex:idx_reviews_user_product" json:"product_id"`
	Product   *Product  `gorm:"constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Rating    int       `gorm:"not null" json:"rating"`
	Comment   *string   `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// All lists every model, in migration order.
func All() []interface{} {
	return []interface{}{
		&Category{},
		&Product{},
		&User{},
		&Address{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&Review{},
	}
}
