package repository_test

import (
	"booknet/internal/domain"
	"booknet/internal/repository"
	"booknet/internal/testutil"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(email, username string) *domain.User {
	return &domain.User{
		FirstName:    "Ada",
		LastName:     "Lovelace",
		Email:        email,
		Username:     username,
		PasswordHash: "hash",
	}
}

func TestCreateAssignsIDAndDefaultRole(t *testing.T) {
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	user := newUser("ada@example.com", "ada")

	require.NoError(t, repo.Create(context.Background(), user))
	assert.Len(t, user.ID, 36)
	assert.Equal(t, domain.RoleCustomer, user.Role)
}

func TestCreateReportsDuplicateField(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	require.NoError(t, repo.Create(ctx, newUser("ada@example.com", "ada")))

	err := repo.Create(ctx, newUser("ada@example.com", "other"))
	var dup *domain.DuplicateKeyError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "email", dup.Field)
	assert.Equal(t, "email is already taken.", err.Error())

	err = repo.Create(ctx, newUser("other@example.com", "ada"))
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "username", dup.Field)
}

func TestFindByEmailOrUsername(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	user := newUser("ada@example.com", "ada")
	require.NoError(t, repo.Create(ctx, user))

	byEmail, err := repo.FindByEmailOrUsername(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	byName, err := repo.FindByEmailOrUsername(ctx, "ada")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	_, err = repo.FindByEmailOrUsername(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFindIdentity(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	user := newUser("ada@example.com", "ada")
	user.Role = domain.RoleDelivery
	require.NoError(t, repo.Create(ctx, user))

	identity, err := repo.FindIdentity(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{ID: user.ID, Email: "ada@example.com", Username: "ada", Role: domain.RoleDelivery}, *identity)

	_, err = repo.FindIdentity(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResetTokenLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	user := newUser("ada@example.com", "ada")
	require.NoError(t, repo.Create(ctx, user))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := now.Add(time.Hour)
	require.NoError(t, repo.SetResetToken(ctx, user.ID, "tok", expires))

	found, err := repo.FindByResetToken(ctx, "tok", expires)
	require.NoError(t, err, "expiry equal to now still matches")
	assert.Equal(t, user.ID, found.ID)

	_, err = repo.FindByResetToken(ctx, "tok", expires.Add(time.Second))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, repo.ResetPassword(ctx, user.ID, "tok", "new-hash"))
	assert.ErrorIs(t, repo.ResetPassword(ctx, user.ID, "tok", "other-hash"), domain.ErrInvalidOrExpiredReset)

	stored, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", stored.PasswordHash)
	assert.Nil(t, stored.PasswordResetToken)
	assert.Nil(t, stored.PasswordResetExpires)
}

func TestPurgeExpiredResetTokens(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	stale := newUser("stale@example.com", "stale")
	fresh := newUser("fresh@example.com", "fresh")
	require.NoError(t, repo.Create(ctx, stale))
	require.NoError(t, repo.Create(ctx, fresh))

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SetResetToken(ctx, stale.ID, "old", now.Add(-time.Minute)))
	require.NoError(t, repo.SetResetToken(ctx, fresh.ID, "new", now.Add(time.Minute)))

	purged, err := repo.PurgeExpiredResetTokens(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	_, err = repo.FindByResetToken(ctx, "new", now)
	assert.NoError(t, err)
}

func TestDeleteRemovesProfileAndCart(t *testing.T) {
	ctx := context.Background()
	gdb := testutil.NewTestDB(t)
	repo := repository.NewUserRepository(gdb)
	carts := repository.NewCartRepository(gdb)
	user := newUser("ada@example.com", "ada")
	require.NoError(t, repo.Create(ctx, user))
	designation := "Reader"
	_, _, err := repo.UpsertProfile(ctx, user.ID, domain.ProfileFields{Designation: &designation})
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, user.ID, "book-1", 2)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, user.ID))
	assert.ErrorIs(t, repo.Delete(ctx, user.ID), domain.ErrNotFound)

	var profiles, items int64
	require.NoError(t, gdb.Model(&domain.Profile{}).Count(&profiles).Error)
	require.NoError(t, gdb.Model(&domain.CartItem{}).Count(&items).Error)
	assert.Zero(t, profiles)
	assert.Zero(t, items)
}

func TestListPaginates(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Create(ctx, newUser(name+"@example.com", name)))
	}

	users, total, err := repo.List(ctx, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, users, 2)
	assert.Empty(t, users[0].PasswordHash)

	users, _, err = repo.List(ctx, 2, 2)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestUpsertProfile(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewUserRepository(testutil.NewTestDB(t))
	user := newUser("ada@example.com", "ada")
	require.NoError(t, repo.Create(ctx, user))

	mobile := "+100"
	profile, created, err := repo.UpsertProfile(ctx, user.ID, domain.ProfileFields{Mobile: &mobile})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "+100", profile.Mobile)

	address := "1 Main St"
	profile, created, err = repo.UpsertProfile(ctx, user.ID, domain.ProfileFields{Address: &address})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "+100", profile.Mobile)
	assert.Equal(t, "1 Main St", profile.Address)

	withProfile, err := repo.FindWithProfile(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, withProfile.Profile)
	assert.Equal(t, "1 Main St", withProfile.Profile.Address)
}
