package service

import (
	"booknet/internal/domain"
	"booknet/internal/events"
	"booknet/internal/metrics"
	"booknet/internal/repository"
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// CartView is the cart returned to clients, guest or persistent
type CartView struct {
	Owner string            `json:"owner"` // "user" or "guest"
	ID    string            `json:"id"`    // User ID or cart token
	Items []domain.CartLine `json:"items"`
}

// CartService reads and updates carts and merges guest carts into user carts
type CartService struct {
	carts  repository.CartRepository
	guests repository.GuestCartStore
	events events.Publisher
}

func NewCartService(carts repository.CartRepository, guests repository.GuestCartStore, publisher events.Publisher) *CartService {
	return &CartService{carts: carts, guests: guests, events: publisher}
}

// MergeCarts moves the guest cart into the user's cart. The guest cart is taken
// atomically so it is merged at most once; on a database failure its lines are
// added back to whatever the guest cart holds by then.
// A missing or empty guest cart is a no-op.
func (s *CartService) MergeCarts(ctx context.Context, userID, guestCartID string) error {
	if guestCartID == "" {
		return nil
	}
	guest, err := s.guests.Take(ctx, guestCartID)
	if err != nil {
		metrics.CartMergesTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("take guest cart: %w", err)
	}
	if guest.IsEmpty() {
		metrics.CartMergesTotal.WithLabelValues("empty").Inc()
		return nil
	}
	if _, err := s.carts.MergeItems(ctx, userID, guest.Items); err != nil {
		metrics.CartMergesTotal.WithLabelValues("failed").Inc()
		if rerr := s.guests.Restore(context.WithoutCancel(ctx), guest); rerr != nil {
			logrus.WithError(rerr).WithField("cart_id", guestCartID).Error("failed to restore guest cart after merge failure")
		}
		return fmt.Errorf("merge guest cart: %w", err)
	}
	metrics.CartMergesTotal.WithLabelValues("merged").Inc()
	logrus.WithFields(logrus.Fields{"user_id": userID, "cart_id": guestCartID, "lines": len(guest.Items)}).Info("guest cart merged")
	events.PublishBestEffort(ctx, s.events, events.GuestCartMerged, events.CartMergedEvent{
		UserID:     userID,
		CartID:     guestCartID,
		Lines:      len(guest.Items),
		OccurredAt: time.Now().UTC(),
	})
	return nil
}

// GetCart returns the user's cart when userID is set, otherwise the guest cart
func (s *CartService) GetCart(ctx context.Context, userID, guestCartID string) (*CartView, error) {
	if userID != "" {
		cart, err := s.carts.GetByUserID(ctx, userID)
		if err != nil {
			return nil, err
		}
		return userView(cart), nil
	}
	guest, err := s.guests.Get(ctx, guestCartID)
	if err != nil {
		return nil, err
	}
	return &CartView{Owner: "guest", ID: guestCartID, Items: guest.Items}, nil
}

// AddItem adds quantity of productID to the user's cart, or the guest cart when anonymous
func (s *CartService) AddItem(ctx context.Context, userID, guestCartID, productID string, quantity int) (*CartView, error) {
	if productID == "" || quantity <= 0 {
		return nil, &domain.ValidationError{Fields: []domain.FieldViolation{{Field: "quantity", Message: "Quantity must be a positive number"}}}
	}
	if userID != "" {
		cart, err := s.carts.AddItem(ctx, userID, productID, quantity)
		if err != nil {
			return nil, err
		}
		return userView(cart), nil
	}
	guest, err := s.guests.Update(ctx, guestCartID, func(cart *domain.GuestCart) error {
		return cart.AddItem(productID, quantity)
	})
	if err != nil {
		return nil, err
	}
	return &CartView{Owner: "guest", ID: guestCartID, Items: guest.Items}, nil
}

func userView(cart *domain.Cart) *CartView {
	items := make([]domain.CartLine, len(cart.Items))
	for i, it := range cart.Items {
		items[i] = domain.CartLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return &CartView{Owner: "user", ID: cart.UserID, Items: items}
}
