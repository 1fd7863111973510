package domain

import "time"

// Profile Model, owned by exactly one User
type Profile struct {
	ID          uint       `gorm:"primaryKey" json:"id"`                             // Primary key
	UserID      string     `gorm:"type:char(36);uniqueIndex;not null" json:"userId"` // Owning user
	Designation string     `gorm:"size:100" json:"designation"`                      // Job title
	Mobile      string     `gorm:"size:30" json:"mobile"`                            // Phone number
	Address     string     `gorm:"size:255" json:"address"`                          // Postal address
	DOB         *time.Time `gorm:"column:dob;type:date" json:"dob,omitempty"`        // Date of birth
	Gender      string     `gorm:"size:20" json:"gender"`                            // Gender
	Image       string     `gorm:"size:255" json:"image"`                            // Public URL of the profile picture
	CreatedAt   time.Time  `json:"createdAt"`                                        // Creation timestamp
	UpdatedAt   time.Time  `json:"updatedAt"`                                        // Update timestamp
}

// ProfileFields carries a partial profile update; nil fields are left untouched
type ProfileFields struct {
	Designation *string
	Mobile      *string
	Address     *string
	DOB         *time.Time
	Gender      *string
	Image       *string
}
