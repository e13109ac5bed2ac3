package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	require.Equal(t, "portfolio-toolkit", cfg.Issuer)
	require.Equal(t, "portfolio.db", cfg.DatabaseFile)
	require.Equal(t, time.Hour, cfg.TokenTTL)
	require.Equal(t, 15*time.Minute, cfg.ResendCooldown)
	require.Equal(t, 48*time.Hour, cfg.VerificationLinkTTL)
	require.Equal(t, 8080, cfg.Port)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORTFOLIO_TOKEN_TTL", "30m")
	t.Setenv("PORTFOLIO_RESEND_COOLDOWN", "5") // bare integers read as minutes
	t.Setenv("PORT", "9090")
	t.Setenv("SMTP_PORT", "2525")

	cfg := LoadConfig()
	require.Equal(t, 30*time.Minute, cfg.TokenTTL)
	require.Equal(t, 5*time.Minute, cfg.ResendCooldown)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, 2525, cfg.SMTPPort)
}

func TestConfigValidate(t *testing.T) {
	valid := Config{
		TokenTTL:            time.Hour,
		ResendCooldown:      15 * time.Minute,
		VerificationLinkTTL: 48 * time.Hour,
		Port:                8080,
	}
	require.NoError(t, valid.Validate())

	t.Run("non-positive token TTL", func(t *testing.T) {
		cfg := valid
		cfg.TokenTTL = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive resend cooldown", func(t *testing.T) {
		cfg := valid
		cfg.ResendCooldown = -time.Minute
		require.Error(t, cfg.Validate())
	})

	t.Run("non-positive link TTL", func(t *testing.T) {
		cfg := valid
		cfg.VerificationLinkTTL = 0
		require.Error(t, cfg.Validate())
	})

	t.Run("port out of range", func(t *testing.T) {
		cfg := valid
		cfg.Port = 70000
		require.Error(t, cfg.Validate())
	})
}
