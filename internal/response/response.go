// Package response writes the JSON error envelope and maps domain errors to HTTP statuses.
package response

import (
	"booknet/internal/domain" // Domain errors
	"errors"                  // Error inspection
	"net/http"                // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging of unexpected errors
)

// User facing messages
const (
	MsgNotRegistered      = "User Name or Email Not Registered in System"
	MsgInvalidCredentials = "Invalid credentials"
	MsgInvalidReset       = "Password reset token is invalid or has expired."
	MsgValidation         = "Validation failed"
	MsgAuthentication     = "Authentication Error"
	MsgInternal           = "Internal Server Error"
	MsgNotFound           = "Resource not found"
	MsgForbidden          = "Access Denied"
)

// Envelope is the body of every error response
type Envelope struct {
	Success bool                    `json:"success"`          // Always false
	Message string                  `json:"message"`          // Summary
	Error   string                  `json:"error,omitempty"`  // Detail
	Errors  []domain.FieldViolation `json:"errors,omitempty"` // Field level validation failures
	Code    string                  `json:"code,omitempty"`   // Machine readable code
	Stack   string                  `json:"stack,omitempty"`  // Panic stack, non-production only
}

// Fail aborts the request with status and message
func Fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Envelope{Message: message})
}

// FailWithDetail aborts the request with status, message and error detail
func FailWithDetail(c *gin.Context, status int, message, detail string) {
	c.AbortWithStatusJSON(status, Envelope{Message: message, Error: detail})
}

// Error maps err to its status and envelope and aborts the request
func Error(c *gin.Context, err error) {
	status, body := Map(err)
	if status == http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"path":   c.FullPath(),
			"method": c.Request.Method,
		}).WithError(err).Error("request failed")
		_ = c.Error(err) // Visible to the request logger
	}
	c.AbortWithStatusJSON(status, body)
}

// Map returns the HTTP status and envelope for err
func Map(err error) (int, Envelope) {
	var (
		validation *domain.ValidationError
		duplicate  *domain.DuplicateKeyError
		rejected   *domain.UploadRejectedError
	)
	switch {
	case errors.As(err, &validation):
		return http.StatusBadRequest, Envelope{Message: MsgValidation, Errors: validation.Fields}
	case errors.As(err, &duplicate):
		return http.StatusConflict, Envelope{Message: duplicate.Error()}
	case errors.As(err, &rejected):
		return http.StatusBadRequest, Envelope{Message: rejected.Message, Code: rejected.Code}
	case errors.Is(err, domain.ErrNotRegistered):
		return http.StatusUnauthorized, Envelope{Message: MsgNotRegistered}
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, Envelope{Message: MsgInvalidCredentials}
	case errors.Is(err, domain.ErrInvalidOrExpiredReset):
		return http.StatusBadRequest, Envelope{Message: MsgInvalidReset}
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		return http.StatusUnauthorized, Envelope{Message: MsgAuthentication, Error: "Invalid or expired token"}
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, Envelope{Message: MsgForbidden}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, Envelope{Message: MsgNotFound}
	default:
		return http.StatusInternalServerError, Envelope{Message: MsgInternal}
	}
}
