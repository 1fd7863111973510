package domain

import (
	"errors" // Validation errors
	"time"   // Timestamps
)

// Cart Model, the persistent cart of an authenticated user
type Cart struct {
	ID        uint       `gorm:"primaryKey" json:"id"`                                       // Primary key
	UserID    string     `gorm:"type:char(36);uniqueIndex;not null" json:"userId"`           // One cart per user
	Items     []CartItem `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"items"` // Cart lines
	CreatedAt time.Time  `json:"createdAt"`                                                  // Creation timestamp
	UpdatedAt time.Time  `json:"updatedAt"`                                                  // Update timestamp
}

// CartItem Model
type CartItem struct {
	ID        uint   `gorm:"primaryKey" json:"-"`                                            // Primary key
	CartID    uint   `gorm:"not null;uniqueIndex:idx_cart_product" json:"-"`                 // Owning cart
	ProductID string `gorm:"size:64;not null;uniqueIndex:idx_cart_product" json:"productId"` // Product reference
	Quantity  int    `gorm:"not null" json:"quantity"`                                       // Always positive
}

// CartLine is a product/quantity pair
type CartLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// GuestCart is the anonymous cart kept in Redis under its cart identifier
type GuestCart struct {
	ID        string     `json:"id"`
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// NewGuestCart returns an empty guest cart
func NewGuestCart(id string) *GuestCart {
	return &GuestCart{ID: id, Items: make([]CartLine, 0), UpdatedAt: time.Now().UTC()}
}

// AddItem adds quantity of productID, summing with an existing line
func (c *GuestCart) AddItem(productID string, quantity int) error {
	if productID == "" {
		return errors.New("product ID cannot be empty")
	}
	if quantity <= 0 {
		return errors.New("quantity to add must be positive")
	}
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			c.Items[i].Quantity += quantity
			c.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	c.Items = append(c.Items, CartLine{ProductID: productID, Quantity: quantity})
	c.UpdatedAt = time.Now().UTC()
	return nil
}

// IsEmpty reports whether the cart has no lines
func (c *GuestCart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}
