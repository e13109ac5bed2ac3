package portfolio_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	porthttp "github.com/cycastic/portfolio-toolkit/internal/portfolio/http"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/mail"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store/drivers/sqlite"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/presign"
	"github.com/stretchr/testify/require"
)

/*
 * In-process end-to-end tests: the full router with real services against an
 * in-memory database, a capturing mailer and a fake blob store. Only SMTP and
 * S3 are faked; everything else is the production wiring.
 */

var pepperOnce sync.Once

// channelMailer hands every message to the test through a buffered channel.
type channelMailer struct {
	inbox chan mail.Message
}

func (m *channelMailer) Send(_ context.Context, msg mail.Message) error {
	m.inbox <- msg
	return nil
}

// fakeBlobStore pretends to be the S3 client.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string]bool
}

func (f *fakeBlobStore) PresignPut(_ context.Context, key, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = true
	return "https://blobs.test/put/" + key, nil
}

func (f *fakeBlobStore) PresignGet(_ context.Context, key string) (string, error) {
	return "https://blobs.test/get/" + key, nil
}

func (f *fakeBlobStore) Copy(_ context.Context, srcKey, dstKey string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.objects[srcKey] {
		return fmt.Errorf("no such object: %s", srcKey)
	}
	f.objects[dstKey] = true
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

type env struct {
	server *httptest.Server
	store  store.Store
	inbox  chan mail.Message
}

func newEnv(t *testing.T) *env {
	t.Helper()

	pepperOnce.Do(func() {
		cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	})

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)
	signer, err := jwtx.NewSignerEdDSA("e2e", pemKey)
	require.NoError(t, err)
	verifier := jwtx.NewVerifierEdDSA(signer.PublicKey(), "portfolio-e2e")

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	inbox := make(chan mail.Message, 16)
	dispatcher := mail.NewDispatcher(&channelMailer{inbox: inbox}, logger, 1, 16, time.Second)
	dispatcher.Start()
	t.Cleanup(dispatcher.Stop)

	verification := &service.VerificationService{
		Store:          st,
		Dispatcher:     dispatcher,
		Presigner:      presign.NewSigner([]byte("e2e-presign-secret")),
		BackendOrigin:  "http://localhost:8080",
		FrontendOrigin: "http://localhost:3000",
		LinkTTL:        48 * time.Hour,
	}

	creds, err := service.NewCredentialService(st, signer, verification, "portfolio-e2e", time.Hour, 15*time.Minute)
	require.NoError(t, err)

	access := &service.AccessService{Store: st}
	router := porthttp.NewRouter(signer, verifier, "e2e", st, logger)
	router.CredentialService = creds
	router.UserService = &service.UserService{Store: st}
	router.VerificationService = verification
	router.ProjectService = &service.ProjectService{Store: st}
	router.ListingService = &service.ListingService{
		Store:  st,
		Access: access,
		Blobs:  &fakeBlobStore{objects: make(map[string]bool)},
	}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &env{server: server, store: st, inbox: inbox}
}

func (e *env) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := e.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (e *env) request(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, e.server.URL+path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *env) register(t *testing.T, email string) {
	t.Helper()

	resp := e.do(t, e.request(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":      email,
		"password":   "hunter2hunter2",
		"first_name": "E2E",
	}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func (e *env) login(t *testing.T, email string) *http.Response {
	t.Helper()

	form := url.Values{"email": {email}, "password": {"hunter2hunter2"}}
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/v1/auth/login",
		strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return e.do(t, req)
}

var hrefPattern = regexp.MustCompile(`href="([^"]+)"`)

// completionTarget waits for the verification email and turns its link into a
// server-relative completion path.
func (e *env) completionTarget(t *testing.T) string {
	t.Helper()

	var msg mail.Message
	select {
	case msg = <-e.inbox:
	case <-time.After(5 * time.Second):
		t.Fatal("verification email never arrived")
	}

	match := hrefPattern.FindStringSubmatch(msg.HTMLBody)
	require.Len(t, match, 2)

	front, err := url.Parse(match[1])
	require.NoError(t, err)

	submission, err := url.Parse(front.Query().Get("submission"))
	require.NoError(t, err)
	return submission.Path + "?" + submission.RawQuery
}

// signUp registers, triggers the verification email via a login attempt,
// completes verification and returns a session token.
func (e *env) signUp(t *testing.T, email string) string {
	t.Helper()

	e.register(t, email)

	resp := e.login(t, email)
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	complete := e.do(t, e.request(t, http.MethodGet, e.completionTarget(t), "", nil))
	require.Equal(t, http.StatusOK, complete.StatusCode)

	logged := e.login(t, email)
	require.Equal(t, http.StatusOK, logged.StatusCode)
	return decodeBody[credentialResponse](t, logged).Token
}

// Wire shapes the tests decode into.
type credentialResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type projectResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type listingResponse struct {
	Path        string `json:"path"`
	Kind        string `json:"kind"`
	Content     string `json:"content"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

type pageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type policyResponse struct {
	ID         int64  `json:"id"`
	PathPrefix string `json:"path_prefix"`
}

type uploadURLResponse struct {
	Path      string `json:"path"`
	UploadURL string `json:"upload_url"`
}

type downloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}
