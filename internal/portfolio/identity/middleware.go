package identity

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
)

type ctxKey struct{}

// Middleware attaches the caller's Identity to every request context. It
// never rejects: handlers that need an authenticated caller check the
// identity themselves. For authenticated requests the resolved subject and
// roles are also published under the httpx context keys, so per-user rate
// limiting buckets on the caller instead of the shared IP.
func Middleware(verifier jwtx.Verifier, users store.Users) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident := New(verifier, users, bearerToken(r), r.Header.Get(HeaderProjectID))
			ctx := WithContext(r.Context(), ident)

			if userID, ok := ident.UserID(ctx); ok {
				ctx = context.WithValue(ctx, httpx.CtxKeyUserID, strconv.FormatInt(userID, 10))
				ctx = context.WithValue(ctx, httpx.CtxKeyRoles, ident.Roles(ctx))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithContext(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, ident)
}

// FromContext returns the request's identity, or an anonymous one when the
// middleware did not run (e.g. bare handler tests).
func FromContext(ctx context.Context) *Identity {
	if ident, ok := ctx.Value(ctxKey{}).(*Identity); ok {
		return ident
	}
	return Anonymous()
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}
