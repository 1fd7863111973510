// Package service holds the account, cart and profile flows behind the HTTP handlers.
package service

import (
	"booknet/internal/domain"
	"booknet/internal/events"
	"booknet/internal/metrics"
	"booknet/internal/repository"
	"booknet/internal/utils"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for stored passwords
const PasswordCost = 10

// Notifier sends account emails; delivery is asynchronous and best-effort
type Notifier interface {
	Welcome(user *domain.User)
	PasswordResetLink(user *domain.User, link string)
	PasswordChanged(user *domain.User)
}

// RegisterInput is a validated registration request
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// AuthResult is the outcome of a successful register or login
type AuthResult struct {
	User       *domain.User
	Token      string // Session token, login only
	CartMerged bool   // Guest cart merged, the cart cookie may be cleared
}

// AuthService implements registration, login and password reset
type AuthService struct {
	users       repository.UserRepository
	carts       *CartService
	tokens      *utils.TokenService
	notifier    Notifier
	events      events.Publisher
	frontendURL string
	now         func() time.Time
}

func NewAuthService(users repository.UserRepository, carts *CartService, tokens *utils.TokenService,
	notifier Notifier, publisher events.Publisher, frontendURL string) *AuthService {
	return &AuthService{
		users:       users,
		carts:       carts,
		tokens:      tokens,
		notifier:    notifier,
		events:      publisher,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the service clock
func (s *AuthService) WithClock(now func() time.Time) *AuthService {
	s.now = now
	return s
}

// Register creates a CUSTOMER account and merges the guest cart into it
func (s *AuthService) Register(ctx context.Context, in RegisterInput, guestCartID string) (*AuthResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), PasswordCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user := &domain.User{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Username:     strings.TrimSpace(in.Username),
		Email:        strings.ToLower(strings.TrimSpace(in.Email)),
		PasswordHash: string(hash),
		Role:         domain.RoleCustomer,
	}
	if err := s.users.Create(ctx, user); err != nil {
		var dup *domain.DuplicateKeyError
		if errors.As(err, &dup) {
			metrics.AuthEventsTotal.WithLabelValues("register", "duplicate").Inc()
		}
		return nil, err
	}
	result := &AuthResult{User: user, CartMerged: s.mergeGuestCart(ctx, user.ID, guestCartID)}

	s.notifier.Welcome(user)
	events.PublishBestEffort(ctx, s.events, events.UserRegistered, events.UserEvent{
		UserID:     user.ID,
		Email:      user.Email,
		Role:       string(user.Role),
		OccurredAt: s.now(),
	})
	metrics.AuthEventsTotal.WithLabelValues("register", "success").Inc()
	logrus.WithFields(logrus.Fields{"user_id": user.ID, "username": user.Username}).Info("user registered")
	return result, nil
}

// Login authenticates by email or username and issues a session token
func (s *AuthService) Login(ctx context.Context, identifier, password, guestCartID string) (*AuthResult, error) {
	user, err := s.users.FindByEmailOrUsername(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.AuthEventsTotal.WithLabelValues("login", "not_registered").Inc()
		return nil, domain.ErrNotRegistered
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.AuthEventsTotal.WithLabelValues("login", "bad_password").Inc()
		logrus.WithField("user_id", user.ID).Info("login rejected: invalid credentials")
		return nil, domain.ErrInvalidCredentials
	}
	merged := s.mergeGuestCart(ctx, user.ID, guestCartID)
	token, err := s.tokens.IssueSessionToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	events.PublishBestEffort(ctx, s.events, events.UserLoggedIn, events.UserEvent{UserID: user.ID, OccurredAt: s.now()})
	metrics.AuthEventsTotal.WithLabelValues("login", "success").Inc()
	logrus.WithField("user_id", user.ID).Info("user logged in")
	return &AuthResult{User: user, Token: token, CartMerged: merged}, nil
}

// mergeGuestCart merges and reports success; failures are logged and never fail the caller
func (s *AuthService) mergeGuestCart(ctx context.Context, userID, guestCartID string) bool {
	if guestCartID == "" {
		return false
	}
	if err := s.carts.MergeCarts(ctx, userID, guestCartID); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{"user_id": userID, "cart_id": guestCartID}).Warn("guest cart merge failed")
		return false
	}
	return true
}

// ForgotPassword stores a reset token and mails the link. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		metrics.AuthEventsTotal.WithLabelValues("forgot_password", "unknown_email").Inc()
		return nil
	}
	if err != nil {
		return err
	}
	token, expires, err := utils.NewPasswordResetToken(s.now())
	if err != nil {
		return err
	}
	if err := s.users.SetResetToken(ctx, user.ID, token, expires); err != nil {
		return err
	}
	s.notifier.PasswordResetLink(user, s.ResetLink(token))
	metrics.AuthEventsTotal.WithLabelValues("forgot_password", "success").Inc()
	logrus.WithField("user_id", user.ID).Info("password reset requested")
	return nil
}

// ResetLink is the frontend URL that consumes token
func (s *AuthService) ResetLink(token string) string {
	return s.frontendURL + "/reset-password/" + token
}

// ResetPassword consumes an unexpired token and sets the new password
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.users.FindByResetToken(ctx, token, s.now())
	if errors.Is(err, domain.ErrNotFound) {
		metrics.AuthEventsTotal.WithLabelValues("reset_password", "invalid_token").Inc()
		return domain.ErrInvalidOrExpiredReset
	}
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), PasswordCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.ResetPassword(ctx, user.ID, token, string(hash)); err != nil {
		return err
	}
	s.notifier.PasswordChanged(user)
	events.PublishBestEffort(ctx, s.events, events.PasswordResetDone, events.UserEvent{UserID: user.ID, OccurredAt: s.now()})
	metrics.AuthEventsTotal.WithLabelValues("reset_password", "success").Inc()
	logrus.WithField("user_id", user.ID).Info("password reset completed")
	return nil
}
