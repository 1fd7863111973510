package domain

import (
	"strings" // String helpers for role formatting
	"time"    // Timestamps

	"github.com/google/uuid" // UUID generation for primary keys
	"gorm.io/gorm"           // GORM ORM library
)

// Role is the authorization scope of a user
type Role string

// Fixed set of roles
const (
	RoleAdmin    Role = "ADMIN"
	RoleCustomer Role = "CUSTOMER"
	RoleDelivery Role = "DELIVERY"
)

// Valid reports whether r is one of the fixed roles
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCustomer || r == RoleDelivery
}

// In reports whether r is a member of permitted
func (r Role) In(permitted ...Role) bool {
	for _, p := range permitted {
		if r == p {
			return true
		}
	}
	return false
}

// JoinRoles renders roles as "A, B"
func JoinRoles(roles []Role) string {
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ", ")
}

// User Model
type User struct {
	ID                   string     `gorm:"type:char(36);primaryKey" json:"id"`                                     // UUID primary key
	FirstName            string     `gorm:"size:100;not null" json:"firstName"`                                     // First name
	LastName             string     `gorm:"size:100;not null" json:"lastName"`                                      // Last name
	Email                string     `gorm:"size:191;uniqueIndex;not null" json:"email"`                             // Unique, lower-cased email
	Username             string     `gorm:"size:191;uniqueIndex;not null" json:"username"`                          // Unique username
	PasswordHash         string     `gorm:"not null" json:"-"`                                                      // bcrypt hash, never serialized
	Role                 Role       `gorm:"type:varchar(20);not null;default:CUSTOMER" json:"role"`                 // Authorization scope
	PasswordResetToken   *string    `gorm:"size:64;index" json:"-"`                                                 // Pending reset token
	PasswordResetExpires *time.Time `json:"-"`                                                                      // Reset token expiry
	Profile              *Profile   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"profile,omitempty"` // Optional 1:1 profile
	CreatedAt            time.Time  `json:"createdAt"`                                                              // Creation timestamp
	UpdatedAt            time.Time  `json:"updatedAt"`                                                              // Update timestamp
}

// BeforeCreate assigns a UUID and the default role
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = RoleCustomer
	}
	return nil
}

// Identity is the projection attached to authenticated requests
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
