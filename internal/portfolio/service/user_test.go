package service

import (
	"context"
	"testing"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	setTestPepper(t)
	st := newTestStore(t)
	svc := &UserService{Store: st}
	ctx := context.Background()

	t.Run("creates an unverified account with a default project", func(t *testing.T) {
		user, err := svc.Register(ctx, RegisterParams{
			Email:     "carol@example.com",
			Password:  "hunter2hunter2",
			FirstName: "Carol",
			LastName:  "Jones",
		})
		require.NoError(t, err)
		require.NotZero(t, user.ID)

		stored, err := st.Users().GetUserByID(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "CAROL@EXAMPLE.COM", stored.NormalizedEmail)
		require.Equal(t, []string{"member"}, stored.Roles)
		require.False(t, stored.EmailVerified)
		require.True(t, stored.Enabled)
		require.Len(t, stored.SecurityStamp, domain.SecurityStampSize)
		require.NoError(t, cryptox.VerifyPassword("hunter2hunter2", stored.PasswordHash))

		project, err := st.Projects().GetDefaultProjectForUser(ctx, user.ID)
		require.NoError(t, err)
		require.Equal(t, "default", project.Name)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{
			Email:    "Carol@Example.com",
			Password: "hunter2hunter2",
		})
		require.ErrorIs(t, err, ErrEmailTaken)
	})

	t.Run("invalid email", func(t *testing.T) {
		_, err := svc.Register(ctx, RegisterParams{Email: "not-an-email", Password: "hunter2hunter2"})
		require.ErrorIs(t, err, ErrInvalidEmail)
	})

	t.Run("weak passwords", func(t *testing.T) {
		for _, password := range []string{"short1", "alllettersonly", "123456789012"} {
			_, err := svc.Register(ctx, RegisterParams{Email: "dave@example.com", Password: password})
			require.ErrorIs(t, err, ErrWeakPassword, "password %q", password)
		}
	})
}

func TestRotateSecurityStamp(t *testing.T) {
	st := newTestStore(t)
	svc := &UserService{Store: st}
	ctx := context.Background()

	user := seedUser(t, st, "alice@example.com", "hunter2hunter2", verified())
	oldStamp := cryptox.EncodeStamp(user.SecurityStamp)

	require.NoError(t, svc.RotateSecurityStamp(ctx, user.ID))

	stored, err := st.Users().GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, stored.SecurityStamp, domain.SecurityStampSize)
	require.NotEqual(t, oldStamp, cryptox.EncodeStamp(stored.SecurityStamp))
}
