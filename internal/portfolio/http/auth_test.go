package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/mail"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store/drivers/sqlite"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/presign"
	"github.com/stretchr/testify/require"
)

var testPepperOnce sync.Once

type authFixture struct {
	store        store.Store
	users        *service.UserService
	creds        *service.CredentialService
	verification *service.VerificationService
	dispatcher   *mail.Dispatcher
}

type sinkMailer struct{}

func (sinkMailer) Send(context.Context, mail.Message) error { return nil }

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	testPepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("test", pemKey)
	require.NoError(t, err)

	dispatcher := mail.NewDispatcher(sinkMailer{}, slog.New(slog.NewTextHandler(io.Discard, nil)), 1, 8, time.Second)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	verification := &service.VerificationService{
		Store:          st,
		Dispatcher:     dispatcher,
		Presigner:      presign.NewSigner([]byte("test-presign-secret")),
		BackendOrigin:  "http://localhost:8080",
		FrontendOrigin: "http://localhost:3000",
		LinkTTL:        48 * time.Hour,
	}

	creds, err := service.NewCredentialService(st, signer, verification, "portfolio-test", time.Hour, 15*time.Minute)
	require.NoError(t, err)

	return &authFixture{
		store:        st,
		users:        &service.UserService{Store: st},
		creds:        creds,
		verification: verification,
		dispatcher:   dispatcher,
	}
}

// register creates an account through the service layer; verified accounts
// get their flag flipped directly in the store.
func (fx *authFixture) register(t *testing.T, email string, verified bool) int64 {
	t.Helper()

	user, err := fx.users.Register(context.Background(), service.RegisterParams{
		Email:     email,
		Password:  "hunter2hunter2",
		FirstName: "Test",
	})
	require.NoError(t, err)

	if verified {
		require.NoError(t, fx.store.Users().MarkEmailVerified(context.Background(), user.ID))
	}
	return user.ID
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var envelope ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&envelope))
	return envelope
}

func postForm(handler http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestLoginEndpoint(t *testing.T) {
	fx := newAuthFixture(t)
	handler := &LoginHandler{CredentialService: fx.creds}

	userID := fx.register(t, "alice@example.com", true)
	fx.register(t, "pending@example.com", false)

	t.Run("success", func(t *testing.T) {
		rec := postForm(handler, "/v1/auth/login", url.Values{
			"email": {"alice@example.com"}, "password": {"hunter2hunter2"},
		})
		require.Equal(t, http.StatusOK, rec.Code)

		var resp CredentialResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.Equal(t, userID, resp.UserID)
		require.Equal(t, "alice@example.com", resp.Email)
		require.NotEmpty(t, resp.Token)
	})

	t.Run("failures share one 401 shape", func(t *testing.T) {
		for name, form := range map[string]url.Values{
			"unknown email":  {"email": {"nobody@example.com"}, "password": {"hunter2hunter2"}},
			"wrong password": {"email": {"alice@example.com"}, "password": {"wrong-password1"}},
		} {
			t.Run(name, func(t *testing.T) {
				rec := postForm(handler, "/v1/auth/login", form)
				require.Equal(t, http.StatusUnauthorized, rec.Code)
				require.Equal(t, `Bearer error="invalid_token"`, rec.Header().Get("WWW-Authenticate"))
				require.Equal(t, "unauthorized", decodeError(t, rec).Error)
			})
		}
	})

	t.Run("unverified account gets 409", func(t *testing.T) {
		rec := postForm(handler, "/v1/auth/login", url.Values{
			"email": {"pending@example.com"}, "password": {"hunter2hunter2"},
		})
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "verification_pending", decodeError(t, rec).Error)
	})

	t.Run("missing fields", func(t *testing.T) {
		rec := postForm(handler, "/v1/auth/login", url.Values{"email": {"alice@example.com"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("wrong content type", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRegisterEndpoint(t *testing.T) {
	fx := newAuthFixture(t)
	handler := &RegisterHandler{UserService: fx.users}

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/register", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("created", func(t *testing.T) {
		rec := post(`{"email":"carol@example.com","password":"hunter2hunter2","first_name":"Carol"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp UserResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		require.NotZero(t, resp.ID)
		require.Equal(t, "carol@example.com", resp.Email)
		require.Equal(t, "Carol", resp.FirstName)
	})

	t.Run("email taken", func(t *testing.T) {
		rec := post(`{"email":"carol@example.com","password":"hunter2hunter2"}`)
		require.Equal(t, http.StatusConflict, rec.Code)
		require.Equal(t, "email_taken", decodeError(t, rec).Error)
	})

	t.Run("invalid email", func(t *testing.T) {
		rec := post(`{"email":"nope","password":"hunter2hunter2"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_email", decodeError(t, rec).Error)
	})

	t.Run("weak password", func(t *testing.T) {
		rec := post(`{"email":"dave@example.com","password":"short"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "weak_password", decodeError(t, rec).Error)
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := post(`{not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCompleteEndpoint(t *testing.T) {
	fx := newAuthFixture(t)
	handler := &CompleteHandler{VerificationService: fx.verification}

	userID := fx.register(t, "bob@example.com", false)
	user, err := fx.store.Users().GetUserByID(context.Background(), userID)
	require.NoError(t, err)

	link, _, err := fx.verification.CompletionURL(user, time.Now().UTC())
	require.NoError(t, err)
	front, err := url.Parse(link)
	require.NoError(t, err)
	submission := front.Query().Get("submission")
	require.NotEmpty(t, submission)

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	t.Run("verifies once", func(t *testing.T) {
		rec := get(submission)
		require.Equal(t, http.StatusOK, rec.Code)

		stored, err := fx.store.Users().GetUserByID(context.Background(), userID)
		require.NoError(t, err)
		require.True(t, stored.EmailVerified)
	})

	t.Run("replay rejected", func(t *testing.T) {
		rec := get(submission)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "invalid_link", decodeError(t, rec).Error)
	})

	t.Run("unsigned URL rejected", func(t *testing.T) {
		rec := get("/v1/auth/complete?userId=1&stamp=whatever")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
