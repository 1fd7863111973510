// Package repository is the credential store and cart persistence layer.
// Storage errors are translated to domain errors at this boundary.
package repository

import (
	"booknet/internal/domain" // Importing domain models
	"context"                 // Request scoped cancellation
	"errors"                  // Error inspection
	"fmt"                     // Error wrapping
	"strings"                 // Identifier normalization
	"time"                    // Reset token expiry

	"gorm.io/gorm" // GORM ORM library
)

// UserRepository persists users, their profiles and password reset state
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindIdentity(ctx context.Context, id string) (*domain.Identity, error)
	FindWithProfile(ctx context.Context, id string) (*domain.User, error)
	FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error)
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id, token, passwordHash string) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error)
	UpsertProfile(ctx context.Context, userID string, fields domain.ProfileFields) (*domain.Profile, bool, error)
	PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM backed UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

func (r *gormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err == nil {
		return nil
	}
	if !isDuplicateKey(err) {
		return fmt.Errorf("create user: %w", err)
	}
	// Identify which unique column collided
	var count int64
	if cerr := r.db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", user.Email).Count(&count).Error; cerr != nil {
		return fmt.Errorf("create user: %w", cerr)
	}
	if count > 0 {
		return &domain.DuplicateKeyError{Field: "email"}
	}
	return &domain.DuplicateKeyError{Field: "username"}
}

func (r *gormUserRepository) FindByEmailOrUsername(ctx context.Context, identifier string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Preload("Profile").
		Where("email = ? OR username = ?", strings.ToLower(strings.TrimSpace(identifier)), strings.TrimSpace(identifier)).
		Take(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) FindIdentity(ctx context.Context, id string) (*domain.Identity, error) {
	var identity domain.Identity
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Select("id", "email", "username", "role").
		Where("id = ?", id).Limit(1).Scan(&identity)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, domain.ErrNotFound
	}
	return &identity, nil
}

func (r *gormUserRepository) FindWithProfile(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	if err := r.db.WithContext(ctx).Preload("Profile").Where("id = ?", id).Take(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// FindByResetToken matches a token whose expiry is at or after now
func (r *gormUserRepository) FindByResetToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where("password_reset_token = ? AND password_reset_expires >= ?", token, now).
		Take(&user).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *gormUserRepository) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(map[string]any{
		"password_reset_token":   token,
		"password_reset_expires": expires,
	})
	if res.Error != nil {
		return fmt.Errorf("set reset token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ResetPassword swaps the hash and clears the reset fields in one statement guarded by token
func (r *gormUserRepository) ResetPassword(ctx context.Context, id, token, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ? AND password_reset_token = ?", id, token).
		Updates(map[string]any{
			"password_hash":          passwordHash,
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if res.Error != nil {
		return fmt.Errorf("reset password: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidOrExpiredReset // Token consumed concurrently
	}
	return nil
}

// Delete removes a user together with its profile and cart
func (r *gormUserRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&domain.Profile{}).Error; err != nil {
			return fmt.Errorf("delete profile: %w", err)
		}
		cartIDs := tx.Model(&domain.Cart{}).Select("id").Where("user_id = ?", id)
		if err := tx.Where("cart_id IN (?)", cartIDs).Delete(&domain.CartItem{}).Error; err != nil {
			return fmt.Errorf("delete cart items: %w", err)
		}
		if err := tx.Where("user_id = ?", id).Delete(&domain.Cart{}).Error; err != nil {
			return fmt.Errorf("delete cart: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&domain.User{})
		if res.Error != nil {
			return fmt.Errorf("delete user: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound // Rolls back the dependent deletes
		}
		return nil
	})
}

// List returns one page of users, newest first, with the total count
func (r *gormUserRepository) List(ctx context.Context, page, pageSize int) ([]domain.User, int64, error) {
	var total int64 // Total user count
	if err := r.db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	offset := (page - 1) * pageSize // Calculate offset for pagination
	var users []domain.User         // Slice to hold users
	err := r.db.WithContext(ctx).Preload("Profile").
		Omit("password_hash", "password_reset_token", "password_reset_expires").
		Order("created_at desc").Order("id").
		Offset(offset).Limit(pageSize).
		Find(&users).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return users, total, nil
}

// UpsertProfile creates the user's profile or applies the non-nil fields to it
func (r *gormUserRepository) UpsertProfile(ctx context.Context, userID string, fields domain.ProfileFields) (*domain.Profile, bool, error) {
	var profile domain.Profile
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).Take(&profile).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err != nil {
			profile = domain.Profile{UserID: userID}
			applyProfileFields(&profile, fields)
			created = true
			return tx.Create(&profile).Error
		}
		applyProfileFields(&profile, fields)
		return tx.Save(&profile).Error
	})
	if err != nil {
		return nil, false, fmt.Errorf("upsert profile: %w", err)
	}
	return &profile, created, nil
}

func applyProfileFields(p *domain.Profile, f domain.ProfileFields) {
	if f.Designation != nil {
		p.Designation = *f.Designation
	}
	if f.Mobile != nil {
		p.Mobile = *f.Mobile
	}
	if f.Address != nil {
		p.Address = *f.Address
	}
	if f.DOB != nil {
		dob := *f.DOB
		p.DOB = &dob
	}
	if f.Gender != nil {
		p.Gender = *f.Gender
	}
	if f.Image != nil {
		p.Image = *f.Image
	}
}

// PurgeExpiredResetTokens clears reset state whose expiry has passed
func (r *gormUserRepository) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("password_reset_expires < ?", now).
		Updates(map[string]any{
			"password_reset_token":   nil,
			"password_reset_expires": nil,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("purge reset tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
