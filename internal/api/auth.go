package api

import (
	"booknet/internal/middleware" // Cookies and cart identity
	"booknet/internal/response"   // Error envelope
	"booknet/internal/service"    // Authentication flow
	"net/http"                    // HTTP status codes
	"strings"                     // Input trimming

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Request struct for registration
type RegisterRequest struct {
	FirstName       string `json:"firstName" binding:"required"`                        // First name must be provided
	LastName        string `json:"lastName" binding:"required"`                         // Last name must be provided
	Username        string `json:"username" binding:"required"`                         // Username must be provided
	Email           string `json:"email" binding:"required,email"`                      // Valid email must be provided
	Password        string `json:"password" binding:"required,strongpassword"`          // Strong password must be provided
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=Password"` // Must repeat password
}

// Request struct for login
type LoginRequest struct {
	EmailOrUsername string `json:"emailOrUsername" binding:"required"` // Email or username must be provided
	Password        string `json:"password" binding:"required"`        // Password must be provided
}

// Request struct for forgot password
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"` // Account email
}

// Request struct for reset password
type ResetPasswordRequest struct {
	NewPassword     string `json:"newPassword" binding:"required,strongpassword"`          // New password
	ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"` // Must repeat new password
}

// Generic answer of forgot-password, identical whether or not the email is registered
const ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent."

// trimAll trims surrounding whitespace from each string
func trimAll(fields ...*string) {
	for _, f := range fields {
		*f = strings.TrimSpace(*f)
	}
}

func (r *RegisterRequest) trim() {
	trimAll(&r.FirstName, &r.LastName, &r.Username, &r.Email)
}

func (r *LoginRequest) trim()          { trimAll(&r.EmailOrUsername) }
func (r *ForgotPasswordRequest) trim() { trimAll(&r.Email) }

// RegisterHandler creates a CUSTOMER account and merges the guest cart
func RegisterHandler(auth *service.AuthService, rdb redis.Cmdable, isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err) // 400 with every failed field
			return
		}
		result, err := auth.Register(c.Request.Context(), service.RegisterInput{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Username:  req.Username,
			Email:     req.Email,
			Password:  req.Password,
		}, middleware.CartID(c))
		if err != nil {
			response.Error(c, err) // 409 on duplicate email or username
			return
		}
		invalidateUserList(c.Request.Context(), rdb) // New user on the admin list
		if result.CartMerged {
			middleware.ClearCartCookie(c, isProd) // Guest cart now lives on the account
		}
		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"message": "User registered successfully",
			"user":    result.User,
		})
	}
}

// LoginHandler authenticates a user and sets the session cookie
func LoginHandler(auth *service.AuthService, isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		result, err := auth.Login(c.Request.Context(), req.EmailOrUsername, req.Password, middleware.CartID(c))
		if err != nil {
			response.Error(c, err) // 401, no cookie set
			return
		}
		if result.CartMerged {
			middleware.ClearCartCookie(c, isProd)
		}
		middleware.SetSessionCookie(c, result.Token, isProd) // Session cookie
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Login successful",
			"user":    result.User,
		})
	}
}

// LogoutHandler expires the session cookie; calling it twice is harmless
func LogoutHandler(isProd bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearSessionCookie(c, isProd)
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
	}
}

// ForgotPasswordHandler issues a reset link without revealing whether the email exists
func ForgotPasswordHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ForgotPasswordRequest
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		if err := auth.ForgotPassword(c.Request.Context(), req.Email); err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": ForgotPasswordMessage})
	}
}

// ResetPasswordHandler consumes the token in the path and sets the new password
func ResetPasswordHandler(auth *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ResetPasswordRequest
		if err := bindJSON(c, &req); err != nil {
			response.Error(c, err)
			return
		}
		if err := auth.ResetPassword(c.Request.Context(), c.Param("token"), req.NewPassword); err != nil {
			response.Error(c, err) // 400 on unknown, used or expired token
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Password has been reset successfully."})
	}
}
