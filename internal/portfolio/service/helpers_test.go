package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/mail"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store/drivers/sqlite"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/presign"
	"github.com/stretchr/testify/require"
)

var pepperOnce sync.Once

// setTestPepper points the password pepper at a throwaway file. The pepper is
// memoized process-wide, so this only has to happen once per test binary.
func setTestPepper(t *testing.T) {
	t.Helper()
	pepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})
}

func newTestStore(t *testing.T) store.Store {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// captureMailer records messages instead of delivering them.
type captureMailer struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (m *captureMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mail.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

type userOption func(*domain.User)

func verified() userOption       { return func(u *domain.User) { u.EmailVerified = true } }
func disabled() userOption       { return func(u *domain.User) { u.Enabled = false } }
func withRoles(roles ...string) userOption {
	return func(u *domain.User) { u.Roles = roles }
}
func lastInvited(at time.Time) userOption {
	return func(u *domain.User) { u.LastInvitationSent = &at }
}

// seedUser inserts a user with a hashed password and a fresh security stamp,
// then reads it back so the caller sees exactly what the store holds.
func seedUser(t *testing.T, st store.Store, email, password string, opts ...userOption) domain.User {
	t.Helper()
	setTestPepper(t)

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	stamp, err := cryptox.NewStamp(domain.SecurityStampSize)
	require.NoError(t, err)

	now := time.Now().UTC()
	user := domain.User{
		Email:           email,
		NormalizedEmail: domain.NormalizeEmail(email),
		FirstName:       "Test",
		LastName:        "User",
		PasswordHash:    hash,
		SecurityStamp:   stamp,
		Roles:           []string{"member"},
		Enabled:         true,
		JoinedAt:        now,
		UpdatedAt:       now,
	}
	for _, opt := range opts {
		opt(&user)
	}

	id, err := st.Users().CreateUser(context.Background(), user)
	require.NoError(t, err)

	stored, err := st.Users().GetUserByID(context.Background(), id)
	require.NoError(t, err)
	return stored
}

func seedProject(t *testing.T, st store.Store, userID int64, name string) domain.Project {
	t.Helper()

	now := time.Now().UTC()
	id, err := st.Projects().CreateProject(context.Background(), domain.Project{
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	})
	require.NoError(t, err)

	project, err := st.Projects().GetProjectByID(context.Background(), id)
	require.NoError(t, err)
	return project
}

func seedPolicy(t *testing.T, st store.Store, projectID int64, prefix string) domain.AccessPolicy {
	t.Helper()

	id, err := st.Policies().CreatePolicy(context.Background(), domain.AccessPolicy{
		ProjectID:  projectID,
		PathPrefix: prefix,
		CreatedAt:  time.Now().UTC(),
	})
	require.NoError(t, err)
	return domain.AccessPolicy{ID: id, ProjectID: projectID, PathPrefix: prefix}
}

func newTestSigner(t *testing.T) (*jwtx.EdDSASigner, jwtx.Verifier) {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test", pemKey)
	require.NoError(t, err)
	return signer, jwtx.NewVerifierEdDSA(signer.PublicKey(), "portfolio-test")
}

// countingSigner wraps a real signer and records how many tokens it minted,
// so tests can pin the signing work done on each login path.
type countingSigner struct {
	jwtx.Signer
	signs int
}

func (c *countingSigner) Sign(claims jwtx.Claims) (string, error) {
	c.signs++
	return c.Signer.Sign(claims)
}

// credentialFixture wires a CredentialService against an in-memory store with
// a capturing mailer behind a real dispatcher.
type credentialFixture struct {
	store        store.Store
	creds        *CredentialService
	verification *VerificationService
	verifier     jwtx.Verifier
	signer       *countingSigner
	mailer       *captureMailer
	dispatcher   *mail.Dispatcher
}

func newCredentialFixture(t *testing.T, resendCooldown time.Duration) *credentialFixture {
	t.Helper()

	st := newTestStore(t)
	realSigner, verifier := newTestSigner(t)
	signer := &countingSigner{Signer: realSigner}

	mailer := &captureMailer{}
	dispatcher := mail.NewDispatcher(mailer, discardLogger(), 1, 8, time.Second)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	verification := &VerificationService{
		Store:          st,
		Dispatcher:     dispatcher,
		Presigner:      presign.NewSigner([]byte("test-presign-secret")),
		BackendOrigin:  "http://localhost:8080",
		FrontendOrigin: "http://localhost:3000",
		LinkTTL:        48 * time.Hour,
	}

	creds, err := NewCredentialService(st, signer, verification, "portfolio-test", time.Hour, resendCooldown)
	require.NoError(t, err)

	return &credentialFixture{
		store:        st,
		creds:        creds,
		verification: verification,
		verifier:     verifier,
		signer:       signer,
		mailer:       mailer,
		dispatcher:   dispatcher,
	}
}
