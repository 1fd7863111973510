package middleware

import (
	"booknet/internal/domain"   // Identity projection
	"booknet/internal/response" // Error envelope
	"booknet/internal/utils"    // Token verification
	"context"                   // Identity lookup context
	"errors"                    // Error inspection
	"net/http"                  // HTTP status codes and cookies
	"strings"                   // Header parsing
	"time"                      // Cookie expiry

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging
)

// Context keys and cookie names
const (
	IdentityKey       = "identity"
	UserIDKey         = "userID"
	SessionCookieName = "jwt"
)

// IdentityFinder loads the identity projection of a user
type IdentityFinder interface {
	FindIdentity(ctx context.Context, id string) (*domain.Identity, error)
}

// tokenFromRequest reads the bearer token, falling back to the session cookie.
// fromCookie reports whether the token came from the cookie.
func tokenFromRequest(c *gin.Context) (token string, fromCookie bool) {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t, false
		}
	}
	if t, err := c.Cookie(SessionCookieName); err == nil && t != "" {
		return t, true
	}
	return "", false
}

// resolve verifies the token and re-fetches the identity so deleted users are rejected
func resolve(ctx context.Context, tokens *utils.TokenService, users IdentityFinder, token string) (*domain.Identity, error) {
	claims, err := tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, domain.ErrInvalidOrExpiredToken
	}
	return users.FindIdentity(ctx, claims.UserID)
}

// RequireAuth rejects requests without a valid session and attaches the identity
func RequireAuth(tokens *utils.TokenService, users IdentityFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := tokenFromRequest(c)
		if token == "" {
			response.FailWithDetail(c, http.StatusUnauthorized, response.MsgAuthentication, "Not authorized, no token")
			return
		}
		identity, err := resolve(c.Request.Context(), tokens, users, token)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logrus.WithField("path", c.FullPath()).Info("token of a deleted user rejected")
			response.FailWithDetail(c, http.StatusUnauthorized, response.MsgAuthentication, "User no longer exists")
			return
		case errors.Is(err, domain.ErrInvalidOrExpiredToken):
			response.FailWithDetail(c, http.StatusUnauthorized, response.MsgAuthentication, "Invalid or expired token")
			return
		case err != nil:
			response.Error(c, err)
			return
		}
		setIdentity(c, identity)
		c.Next()
	}
}

// OptionalAuth attaches the identity when the request carries a valid session and
// proceeds anonymously otherwise. The session cookie is cleared only when it carried
// the token and the token was rejected or its user is gone.
func OptionalAuth(tokens *utils.TokenService, users IdentityFinder, isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, fromCookie := tokenFromRequest(c)
		if token == "" {
			c.Next()
			return
		}
		identity, err := resolve(c.Request.Context(), tokens, users, token)
		if err != nil {
			entry := logrus.WithError(err).WithField("path", c.FullPath())
			if claims, derr := tokens.Decode(token); derr == nil {
				entry = entry.WithField("token_user_id", claims.UserID) // Diagnostics only
			}
			entry.Debug("optional auth ignored an unusable token")
			if fromCookie && (errors.Is(err, domain.ErrInvalidOrExpiredToken) || errors.Is(err, domain.ErrNotFound)) {
				ClearSessionCookie(c, isProd) // Stale session
			}
			c.Next()
			return
		}
		setIdentity(c, identity)
		c.Next()
	}
}

func setIdentity(c *gin.Context, identity *domain.Identity) {
	c.Set(IdentityKey, identity)  // Full identity
	c.Set(UserIDKey, identity.ID) // Store userID in context
}

// CurrentIdentity returns the identity attached by RequireAuth or OptionalAuth
func CurrentIdentity(c *gin.Context) (*domain.Identity, bool) {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil, false
	}
	identity, ok := v.(*domain.Identity)
	return identity, ok && identity != nil
}

// SetSessionCookie stores the session token in an http-only strict cookie
func SetSessionCookie(c *gin.Context, token string, isProd bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(utils.SessionTokenTTL / time.Second), // Matches token expiry
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
	})
}

// ClearSessionCookie expires the session cookie
func ClearSessionCookie(c *gin.Context, isProd bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   isProd,
		SameSite: http.SameSiteStrictMode,
	})
}
