package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Keoroanthony/go-storefront/internal/apperrors"
	"github.com/Keoroanthony/go-storefront/internal/db/dbtest"
	"github.com/Keoroanthony/go-storefront/internal/models"
	"github.com/Keoroanthony/go-storefront/internal/services"
)

func TestRegister(t *testing.T) {
	conn := dbtest.Open(t)
	dbtest.Seed(t, conn)
	svc := services.NewUserService(conn)
	ctx := context.Background()

	t.Run("defaults to customer", func(t *testing.T) {
		user, err := svc.Register(ctx, services.RegisterInput{Username: "carol", Email: "Carol@Example.com", Password: "blue-lagoon-77"})
		require.NoError(t, err)
		assert.Equal(t, models.RoleCustomer, user.Role)
		assert.Equal(t, "carol@example.com", user.Email)
		assert.Equal(t, "carol", user.Slug)
		assert.NotEqual(t, "blue-lagoon-77", user.PasswordHash)
	})

	t.Run("sellers may register", func(t *testing.T) {
		user, err := svc.Register(ctx, services.RegisterInput{Username: "dave", Email: "dave@example.com", Password: "blue-lagoon-77", Role: models.RoleSeller})
		require.NoError(t, err)
		assert.Equal(t, models.RoleSeller, user.Role)
	})

	t.Run("admin cannot be self-assigned", func(t *testing.T) {
		_, err := svc.Register(ctx, services.RegisterInput{Username: "mallory", Email: "m@example.com", Password: "blue-lagoon-77", Role: models.RoleAdmin})
		assert.ErrorIs(t, err, apperrors.ErrRoleNotAllowed)
	})

	t.Run("weak passwords are refused", func(t *testing.T) {
		_, err := svc.Register(ctx, services.RegisterInput{Username: "erin", Email: "erin@example.com", Password: "12345"})
		require.ErrorIs(t, err, apperrors.ErrWeakPassword)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Contains(t, appErr.Fields["password"], "too short")
	})

	t.Run("colliding slugs get a numeric suffix", func(t *testing.T) {
		upper, err := svc.Register(ctx, services.RegisterInput{Username: "Alice", Email: "alice.upper@example.com", Password: "blue-lagoon-77"})
		require.NoError(t, err)
		assert.Equal(t, "alice-2", upper.Slug)

		dotted, err := svc.Register(ctx, services.RegisterInput{Username: "alice!", Email: "alice.bang@example.com", Password: "blue-lagoon-77"})
		require.NoError(t, err)
		assert.Equal(t, "alice-3", dotted.Slug)

		symbols, err := svc.Register(ctx, services.RegisterInput{Username: "!!!", Email: "bang@example.com", Password: "blue-lagoon-77"})
		require.NoError(t, err)
		assert.Equal(t, "user", symbols.Slug)
	})

	t.Run("username and email must be unique", func(t *testing.T) {
		_, err := svc.Register(ctx, services.RegisterInput{Username: "alice", Email: "new@example.com", Password: "blue-lagoon-77"})
		assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)

		_, err = svc.Register(ctx, services.RegisterInput{Username: "alice2", Email: "ALICE@example.com", Password: "blue-lagoon-77"})
		assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	})
}

func TestAuthenticateAndProfile(t *testing.T) {
	conn := dbtest.Open(t)
	fx := dbtest.Seed(t, conn)
	svc := services.NewUserService(conn)
	ctx := context.Background()

	user, err := svc.Authenticate(ctx, services.LoginInput{Username: "alice", Password: dbtest.Password})
	require.NoError(t, err)
	assert.Equal(t, fx.User.ID, user.ID)

	user, err = svc.Authenticate(ctx, services.LoginInput{Username: "alice@example.com", Password: dbtest.Password})
	require.NoError(t, err)
	assert.Equal(t, fx.User.ID, user.ID)

	_, err = svc.Authenticate(ctx, services.LoginInput{Username: "alice", Password: "nope"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Authenticate(ctx, services.LoginInput{Username: "ghost", Password: dbtest.Password})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	profile, err := svc.GetProfile(ctx, fx.User.ID)
	require.NoError(t, err)
	assert.Len(t, profile.Addresses, 1)

	name, bio, password := "Alice Wanjiru", "Keyboard enthusiast", "new-secret-pass-9"
	updated, err := svc.UpdateProfile(ctx, &fx.User, services.ProfileInput{Name: &name, Bio: &bio, Password: &password})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	require.NotNil(t, updated.Bio)
	assert.Equal(t, bio, *updated.Bio)

	_, err = svc.Authenticate(ctx, services.LoginInput{Username: "alice", Password: password})
	assert.NoError(t, err)

	taken := "bob@example.com"
	_, err = svc.UpdateProfile(ctx, &fx.User, services.ProfileInput{Email: &taken})
	assert.ErrorIs(t, err, apperrors.ErrEmailTaken)

	_, err = svc.GetProfile(ctx, 4040)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}
