package middleware

import (
	"net/http" // Cookies
	"time"     // Cookie lifetime

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Cart identifiers
)

// Cart identity constants
const (
	CartIDKey      = "cartID"
	CartCookieName = "cartToken"
	CartCookieTTL  = 30 * 24 * time.Hour
)

// IdentifyCart reuses the cartToken cookie or mints a new identifier. The cookie
// is only written when minting, so its 30-day lifetime counts from creation.
// It never fails the request.
func IdentifyCart(isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID, err := c.Cookie(CartCookieName)
		if err != nil || cartID == "" {
			cartID = uuid.NewString() // Fresh v4 identifier
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     CartCookieName,
				Value:    cartID,
				Path:     "/",
				MaxAge:   int(CartCookieTTL / time.Second),
				HttpOnly: true,
				Secure:   isProd,
			})
		}
		c.Set(CartIDKey, cartID)
		c.Next()
	}
}

// CartID returns the cart identifier attached by IdentifyCart, or the raw cookie
func CartID(c *gin.Context) string {
	if v, ok := c.Get(CartIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	id, _ := c.Cookie(CartCookieName)
	return id
}

// ClearCartCookie expires the cartToken cookie after its cart was merged
func ClearCartCookie(c *gin.Context, isProd bool) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     CartCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   isProd,
	})
}
