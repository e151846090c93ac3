package model

import (
	"time"

	"gorm.io/gorm"
)

// Product is a catalog entry. Price and Rating are decimal strings; stock is
// the number of units not yet reserved by a cart.
type Product struct {
	ID          uint   `gorm:"primarykey" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Slug        string `gorm:"uniqueIndex;not null" json:"slug"`
	Category    string `gorm:"type:varchar(100)" json:"category"`
	Brand       string `gorm:"type:varchar(100)" json:"brand"`
	Description string `gorm:"type:text" json:"description"`
	Image       string `json:"image"`
	Price       string `gorm:"type:varchar(20);not null" json:"price"`
	Rating      string `gorm:"type:varchar(10);default:'0.00'" json:"rating"`
	NumReviews  int    `gorm:"default:0" json:"num_reviews"`
	Stock       int    `gorm:"default:0" json:"stock"`
	IsFeatured  bool   `gorm:"default:false" json:"is_featured"`
	Banner      string `json:"banner,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Reviews []Review `gorm:"foreignKey:ProductID" json:"-"`
}

func (Product) TableName() string {
	return "products"
}
