package service

import (
	"booknet/internal/domain"
	"booknet/internal/repository"
	"booknet/internal/upload"
	"context"

	"github.com/sirupsen/logrus"
)

// ProfileService creates and updates user profiles
type ProfileService struct {
	users repository.UserRepository
	files upload.Storage // Holds profile pictures
}

func NewProfileService(users repository.UserRepository, files upload.Storage) *ProfileService {
	return &ProfileService{users: users, files: files}
}

// MyProfile returns the caller's user row with its profile
func (s *ProfileService) MyProfile(ctx context.Context, actor domain.Identity) (*domain.User, error) {
	return s.users.FindWithProfile(ctx, actor.ID)
}

// Upsert applies fields to the profile of targetID. Only the owner or an ADMIN may
// do so. created is true when the profile did not exist before.
func (s *ProfileService) Upsert(ctx context.Context, actor domain.Identity, targetID string, fields domain.ProfileFields) (*domain.Profile, bool, error) {
	if actor.ID != targetID && actor.Role != domain.RoleAdmin {
		return nil, false, domain.ErrForbidden
	}
	target, err := s.users.FindWithProfile(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	profile, created, err := s.users.UpsertProfile(ctx, targetID, fields)
	if err != nil {
		return nil, false, err
	}

	// Replaced picture
	if fields.Image != nil && target.Profile != nil && target.Profile.Image != "" && target.Profile.Image != *fields.Image {
		if _, err := upload.DeleteByURL(ctx, s.files, target.Profile.Image); err != nil {
			logrus.WithError(err).WithField("image", target.Profile.Image).Warn("failed to delete previous profile picture")
		}
	}
	logrus.WithFields(logrus.Fields{"user_id": targetID, "actor_id": actor.ID, "created": created}).Info("profile saved")
	return profile, created, nil
}
