package repository

import (
	"booknet/internal/domain" // Importing domain models
	"context"                 // Request scoped cancellation
	"errors"                  // Error inspection
	"fmt"                     // Error wrapping

	"gorm.io/gorm" // GORM ORM library
)

// CartRepository persists authenticated users' carts
type CartRepository interface {
	GetByUserID(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error)
	MergeItems(ctx context.Context, userID string, lines []domain.CartLine) (*domain.Cart, error)
}

type gormCartRepository struct {
	db *gorm.DB
}

// NewCartRepository returns a GORM backed CartRepository
func NewCartRepository(db *gorm.DB) CartRepository {
	return &gormCartRepository{db: db}
}

// GetByUserID returns the user's cart, or an empty unsaved cart when none exists
func (r *gormCartRepository) GetByUserID(ctx context.Context, userID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := r.db.WithContext(ctx).Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Where("user_id = ?", userID).Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &domain.Cart{UserID: userID, Items: []domain.CartItem{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &cart, nil
}

func (r *gormCartRepository) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.Cart, error) {
	return r.MergeItems(ctx, userID, []domain.CartLine{{ProductID: productID, Quantity: quantity}})
}

// MergeItems sums lines into the user's cart in a single transaction
func (r *gormCartRepository) MergeItems(ctx context.Context, userID string, lines []domain.CartLine) (*domain.Cart, error) {
	totals := make(map[string]int) // Quantity per product
	order := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || l.Quantity <= 0 {
			continue // Skip malformed lines
		}
		if _, seen := totals[l.ProductID]; !seen {
			order = append(order, l.ProductID)
		}
		totals[l.ProductID] += l.Quantity
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cart domain.Cart
		if err := tx.Where(domain.Cart{UserID: userID}).FirstOrCreate(&cart).Error; err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
		for _, productID := range order {
			var item domain.CartItem
			err := tx.Where("cart_id = ? AND product_id = ?", cart.ID, productID).Take(&item).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				item = domain.CartItem{CartID: cart.ID, ProductID: productID, Quantity: totals[productID]}
				if err := tx.Create(&item).Error; err != nil {
					return fmt.Errorf("add cart item: %w", err)
				}
			case err != nil:
				return fmt.Errorf("load cart item: %w", err)
			default:
				// Atomic increment
				if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", totals[productID])).Error; err != nil {
					return fmt.Errorf("update cart item: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetByUserID(ctx, userID)
}
