package mail

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRenderVerification(t *testing.T) {
	t.Parallel()

	expiresAt := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	msg, err := RenderVerification("alice@example.com", "Alice",
		"https://portfolio.test/complete-signup?submission=abc", expiresAt)
	require.NoError(t, err)

	require.Equal(t, "alice@example.com", msg.To)
	require.Equal(t, "Verify your email address", msg.Subject)
	require.NotEmpty(t, msg.InlineLogo)

	require.Contains(t, msg.HTMLBody, "Alice")
	require.Contains(t, msg.HTMLBody, "https://portfolio.test/complete-signup?submission=abc")
	require.Contains(t, msg.HTMLBody, "cid:logo")
	require.Contains(t, msg.HTMLBody, expiresAt.Format(time.RFC1123))
}
