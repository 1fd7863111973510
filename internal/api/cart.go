package api

import (
	"booknet/internal/middleware" // Cart identity and optional session
	"booknet/internal/response"   // Error envelope
	"booknet/internal/service"    // Cart flow
	"net/http"                    // HTTP status codes
	"strings"                     // Input trimming

	"github.com/gin-gonic/gin" // Gin web framework
)

// CartItemRequest adds a product to the current cart
type CartItemRequest struct {
	ProductID string `json:"productId" binding:"required"`     // Product reference
	Quantity  int    `json:"quantity" binding:"required,gt=0"` // Positive quantity
}

func (r *CartItemRequest) trim() { r.ProductID = strings.TrimSpace(r.ProductID) }

// cartOwner returns the user ID when signed in, otherwise the guest cart identifier
func cartOwner(c *gin.Context) (userID, guestID string) {
	if identity, ok := middleware.CurrentIdentity(c); ok {
		return identity.ID, ""
	}
	return "", middleware.CartID(c)
}

// GetCartHandler returns the user's cart or the guest cart
func GetCartHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, guestID := cartOwner(c)
		cart, err := carts.GetCart(c.Request.Context(), userID, guestID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}

// AddCartItemHandler adds a product line to the current cart
func AddCartItemHandler(carts *service.CartService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CartItemRequest
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		userID, guestID := cartOwner(c)
		cart, err := carts.AddItem(c.Request.Context(), userID, guestID, req.ProductID, req.Quantity)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "cart": cart})
	}
}
