package repository

import (
	"booknet/internal/domain" // Importing domain models
	"booknet/internal/utils"  // Redis JSON helpers
	"context"                 // Request scoped cancellation
	"errors"                  // Validation errors
	"fmt"                     // Error wrapping
	"time"                    // TTLs

	"github.com/redis/go-redis/v9" // Redis client
)

const guestCartKeyPrefix = "cart:guest:"

// GuestCartTTL matches the lifetime of the cartToken cookie
const GuestCartTTL = 30 * 24 * time.Hour

// GuestCartStore keeps anonymous carts in Redis
type GuestCartStore interface {
	Get(ctx context.Context, cartID string) (*domain.GuestCart, error)
	Save(ctx context.Context, cart *domain.GuestCart) error
	Take(ctx context.Context, cartID string) (*domain.GuestCart, error)
	Update(ctx context.Context, cartID string, fn func(*domain.GuestCart) error) (*domain.GuestCart, error)
	Restore(ctx context.Context, cart *domain.GuestCart) error
	Delete(ctx context.Context, cartID string) error
}

// Attempts of an optimistic update before giving up under contention
const maxUpdateAttempts = 25

type redisGuestCartStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewGuestCartStore returns a Redis backed GuestCartStore
func NewGuestCartStore(client redis.UniversalClient, ttl time.Duration) GuestCartStore {
	if ttl <= 0 {
		ttl = GuestCartTTL
	}
	return &redisGuestCartStore{client: client, ttl: ttl}
}

func guestCartKey(cartID string) string {
	return guestCartKeyPrefix + cartID
}

// Get returns the stored cart, or a new empty one
func (s *redisGuestCartStore) Get(ctx context.Context, cartID string) (*domain.GuestCart, error) {
	var cart domain.GuestCart
	found, err := utils.GetCache(ctx, s.client, guestCartKey(cartID), &cart)
	if err != nil {
		return nil, fmt.Errorf("get guest cart %s: %w", cartID, err)
	}
	if !found {
		return domain.NewGuestCart(cartID), nil
	}
	return &cart, nil
}

func (s *redisGuestCartStore) Save(ctx context.Context, cart *domain.GuestCart) error {
	if cart == nil || cart.ID == "" {
		return errors.New("cannot save nil guest cart or cart with empty ID")
	}
	cart.UpdatedAt = time.Now().UTC()
	if err := utils.SetCache(ctx, s.client, guestCartKey(cart.ID), cart, s.ttl); err != nil {
		return fmt.Errorf("save guest cart %s: %w", cart.ID, err)
	}
	return nil
}

// Take removes and returns the cart so concurrent merges see it at most once; nil when absent
func (s *redisGuestCartStore) Take(ctx context.Context, cartID string) (*domain.GuestCart, error) {
	var cart domain.GuestCart
	found, err := utils.TakeCache(ctx, s.client, guestCartKey(cartID), &cart)
	if err != nil {
		return nil, fmt.Errorf("take guest cart %s: %w", cartID, err)
	}
	if !found {
		return nil, nil
	}
	return &cart, nil
}

// Update applies fn to the stored cart (or a new empty one) inside WATCH/MULTI and
// retries when another writer changed the cart in between
func (s *redisGuestCartStore) Update(ctx context.Context, cartID string, fn func(*domain.GuestCart) error) (*domain.GuestCart, error) {
	key := guestCartKey(cartID)
	var updated *domain.GuestCart
	txf := func(tx *redis.Tx) error {
		cart := domain.NewGuestCart(cartID)
		if _, err := utils.GetCache(ctx, tx, key, cart); err != nil {
			return err
		}
		if err := fn(cart); err != nil {
			return err
		}
		cart.UpdatedAt = time.Now().UTC()
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return utils.SetCache(ctx, pipe, key, cart, s.ttl) // Queued, runs in EXEC
		})
		if err == nil {
			updated = cart
		}
		return err
	}
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue // Lost the race, read again
		}
		if err != nil {
			return nil, fmt.Errorf("update guest cart %s: %w", cartID, err)
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update guest cart %s: %w", cartID, redis.TxFailedErr)
}

// Restore adds the lines of a taken cart back, summing with lines written since
func (s *redisGuestCartStore) Restore(ctx context.Context, cart *domain.GuestCart) error {
	if cart.IsEmpty() {
		return nil
	}
	_, err := s.Update(ctx, cart.ID, func(current *domain.GuestCart) error {
		for _, line := range cart.Items {
			if err := current.AddItem(line.ProductID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	return err
}

func (s *redisGuestCartStore) Delete(ctx context.Context, cartID string) error {
	if err := utils.DeleteCache(ctx, s.client, guestCartKey(cartID)); err != nil {
		return fmt.Errorf("delete guest cart %s: %w", cartID, err)
	}
	return nil
}
