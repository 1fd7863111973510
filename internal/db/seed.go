package db

import (
	"booknet/internal/domain"
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedPassword is the password of every seeded account
const SeedPassword = "password123"

// SeedUsers are the demo accounts, one per role
var SeedUsers = []domain.User{
	{
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@booknet.com",
		Username:  "admin",
		Role:      domain.RoleAdmin,
		Profile:   &domain.Profile{Designation: "Administrator", Mobile: "+10000000001", Address: "BookNet HQ", Gender: "other"},
	},
	{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "customer@booknet.com",
		Username:  "johndoe",
		Role:      domain.RoleCustomer,
		Profile:   &domain.Profile{Designation: "Reader", Mobile: "+10000000002", Address: "12 Library Lane", Gender: "male"},
	},
	{
		FirstName: "Dana",
		LastName:  "Driver",
		Email:     "delivery@booknet.com",
		Username:  "delivery",
		Role:      domain.RoleDelivery,
		Profile:   &domain.Profile{Designation: "Courier", Mobile: "+10000000003", Address: "Depot 4", Gender: "female"},
	},
}

// Seed inserts the demo accounts that do not exist yet and returns how many were created
func Seed(ctx context.Context, gdb *gorm.DB) (int, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(SeedPassword), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash seed password: %w", err)
	}
	created := 0
	for _, tmpl := range SeedUsers {
		var existing domain.User
		err := gdb.WithContext(ctx).Where("email = ?", tmpl.Email).Take(&existing).Error
		if err == nil {
			logrus.WithField("email", tmpl.Email).Info("seed user already present")
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("look up seed user %s: %w", tmpl.Email, err)
		}
		user := tmpl
		profile := *tmpl.Profile
		user.Profile = &profile
		user.PasswordHash = string(hash)
		if err := gdb.WithContext(ctx).Create(&user).Error; err != nil {
			return created, fmt.Errorf("create seed user %s: %w", tmpl.Email, err)
		}
		created++
		logrus.WithFields(logrus.Fields{"email": user.Email, "role": user.Role}).Info("seed user created")
	}
	return created, nil
}
