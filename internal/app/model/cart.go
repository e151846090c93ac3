package model

import (
	"time"
)

// Cart is owned by exactly one of: an authenticated user (UserID set) or an
// anonymous session (SessionCartID set, UserID nil). The four price fields
// are derived from the item list and recomputed on every mutation; they are
// never written independently. Version backs optimistic locking on saves.
type Cart struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	UserID        *uint  `gorm:"index" json:"user_id,omitempty"`
	SessionCartID string `gorm:"type:varchar(64);index" json:"session_cart_id"`
	Version       uint   `gorm:"default:1" json:"-"`

	ItemsPrice    string `gorm:"type:varchar(20);not null" json:"items_price"`
	ShippingPrice string `gorm:"type:varchar(20);not null" json:"shipping_price"`
	TaxPrice      string `gorm:"type:varchar(20);not null" json:"tax_price"`
	TotalPrice    string `gorm:"type:varchar(20);not null" json:"total_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Items in insertion order (display order).
	Items []CartItem `gorm:"foreignKey:CartID" json:"items"`
}

func (Cart) TableName() string {
	return "carts"
}

// CartItem is one cart line. Name, Slug, Price and Image are a snapshot of
// the product taken when the line was added; the price is not re-read from
// the catalog afterwards. Qty is always >= 1; a line reaching zero is
// deleted, never kept.
type CartItem struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	CartID    uint   `gorm:"not null;index" json:"-"`
	ProductID uint   `gorm:"not null;index" json:"product_id"`
	Name      string `gorm:"not null" json:"name"`
	Slug      string `gorm:"not null" json:"slug"`
	Price     string `gorm:"type:varchar(20);not null" json:"price"`
	Image     string `json:"image"`
	Qty       int    `gorm:"not null" json:"qty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

// FindItem returns the cart line for a product, or nil.
func (c *Cart) FindItem(productID uint) *CartItem {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return &c.Items[i]
		}
	}
	return nil
}
