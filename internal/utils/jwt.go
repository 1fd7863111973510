package utils

import (
	"booknet/internal/domain" // Domain errors
	"crypto/rand"             // Secure random bytes for reset tokens
	"encoding/hex"            // Hex encoding of reset tokens
	"fmt"                     // Error wrapping
	"time"                    // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// Token lifetimes
const (
	SessionTokenTTL    = 24 * time.Hour  // Session token lifetime
	ShortLivedTokenTTL = 5 * time.Minute // Short-lived token lifetime
	PasswordResetTTL   = time.Hour       // Password reset token lifetime
	resetTokenBytes    = 32              // Random bytes in a reset token
)

// JWT Claims
type Claims struct {
	UserID               string         `json:"userId,omitempty"` // Custom claim for user ID
	Data                 map[string]any `json:"data,omitempty"`   // Arbitrary payload of short-lived tokens
	jwt.RegisteredClaims                // Standard JWT claims
}

// TokenService issues and verifies HS256 tokens
type TokenService struct {
	secret []byte           // Signing secret
	now    func() time.Time // Clock, replaceable in tests
}

// NewTokenService creates a TokenService signing with secret
func NewTokenService(secret string) *TokenService {
	return &TokenService{secret: []byte(secret), now: time.Now}
}

// WithClock returns a copy of the service reading time from now
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	return &TokenService{secret: s.secret, now: now}
}

// Now returns the service clock reading
func (s *TokenService) Now() time.Time {
	return s.now()
}

// IssueSessionToken creates a session token for a given user ID
func (s *TokenService) IssueSessionToken(userID string) (string, error) {
	return s.sign(Claims{UserID: userID}, SessionTokenTTL) // Session tokens live one day
}

// IssueShortLivedToken creates a token carrying data that expires after five minutes
func (s *TokenService) IssueShortLivedToken(data map[string]any) (string, error) {
	return s.sign(Claims{Data: data}, ShortLivedTokenTTL)
}

func (s *TokenService) sign(claims Claims, ttl time.Duration) (string, error) {
	now := s.now()
	// Standard claims
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expiry
		IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString(s.secret)                        // Sign the token with the secret
}

// Verify parses and validates a token string, pinning the algorithm to HS256
func (s *TokenService) Verify(tokenStr string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), // Reject other algorithms
		jwt.WithTimeFunc(s.now),                                      // Use the service clock
		jwt.WithExpirationRequired(),                                 // Tokens without exp are invalid
	)
	token, err := parser.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return s.secret, nil // Return the secret key for validation
	})
	// Check for parsing errors
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidOrExpiredToken, err)
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil // Return claims if valid
	}
	return nil, domain.ErrInvalidOrExpiredToken
}

// Decode reads claims without checking signature or expiry. Diagnostics only.
func (s *TokenService) Decode(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// NewPasswordResetToken returns a 64 character hex token and its expiry one hour after now
func NewPasswordResetToken(now time.Time) (string, time.Time, error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", time.Time{}, fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(buf), now.Add(PasswordResetTTL), nil
}
