package models

import (
	"time"
)

// Product is a sampled search result kept for later analysis. Rows are
// upserted on (user_id, meli_id) so repeated searches refresh the sample
// instead of duplicating it.
type Product struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	UserID           uint      `gorm:"uniqueIndex:idx_products_user_meli;not null" json:"user_id"`
	MeliID           string    `gorm:"uniqueIndex:idx_products_user_meli;not null" json:"meli_id"`
	Title            string    `json:"title"`
	Price            float64   `json:"price"`
	Currency         string    `json:"currency"`
	Category         string    `json:"category"`
	SellerReputation string    `gorm:"type:text" json:"seller_reputation,omitempty"`
	LastAnalyzed     time.Time `json:"last_analyzed"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "products"
}
