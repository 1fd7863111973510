package domain

import (
	"errors" // Sentinel errors
	"fmt"    // Error formatting
)

// Domain-level errors, mapped to HTTP statuses by the response package
var (
	ErrNotFound              = errors.New("record not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrNotRegistered         = errors.New("identifier not registered")
	ErrInvalidOrExpiredToken = errors.New("token is invalid or has expired")
	ErrInvalidOrExpiredReset = errors.New("password reset token is invalid or has expired")
	ErrForbidden             = errors.New("access denied")
)

// DuplicateKeyError reports a unique constraint violation on Field
type DuplicateKeyError struct {
	Field string // Conflicting column, e.g. email or username
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("%s is already taken.", e.Field)
}

// FieldViolation is one failed input rule
type FieldViolation struct {
	Field   string `json:"field"`   // Request field name
	Message string `json:"message"` // Human readable message
}

// ValidationError carries every failed input rule of a request
type ValidationError struct {
	Fields []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return "validation failed: " + e.Fields[0].Field + ": " + e.Fields[0].Message
}

// UploadRejectedError reports a file upload refused before anything was stored
type UploadRejectedError struct {
	Message string // User facing reason
	Code    string // Limit code, empty for type rejections
}

func (e *UploadRejectedError) Error() string {
	return e.Message
}
