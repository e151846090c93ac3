package model

import (
	"time"

	"gorm.io/gorm"
)

// Review is one shopper's rating of one product (unique per pair).
type Review struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	ProductID   uint   `gorm:"not null;index;uniqueIndex:idx_reviews_product_user" json:"product_id"`
	UserID      uint   `gorm:"not null;index;uniqueIndex:idx_reviews_product_user" json:"user_id"`
	Rating      int    `gorm:"not null" json:"rating"`
	Title       string `gorm:"not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Product Product `gorm:"foreignKey:ProductID" json:"-"`
}

func (Review) TableName() string {
	return "reviews"
}
