// Package identity provides a request-scoped view of the caller. Claims are
// decoded lazily and at most once per request; the decoded stamp claim is
// checked against the live stored stamp so rotated-out tokens resolve to an
// anonymous caller rather than an error.
package identity

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
)

// HeaderProjectID selects an explicit project for listing reads.
const HeaderProjectID = "X-Project-Id"

// Identity is built once per request and owned by that request's goroutine.
// It is not safe for concurrent use.
type Identity struct {
	token     string
	projectID string

	verifier jwtx.Verifier
	users    store.Users

	loaded bool
	claims *jwtx.Claims // nil after load means anonymous
}

// New builds an identity from the raw bearer token and an optional explicit
// project id. Nothing is decoded until the first accessor call.
func New(verifier jwtx.Verifier, users store.Users, bearerToken, projectID string) *Identity {
	return &Identity{
		token:     strings.TrimSpace(bearerToken),
		projectID: strings.TrimSpace(projectID),
		verifier:  verifier,
		users:     users,
	}
}

// Anonymous returns an identity with no claims, useful in tests.
func Anonymous() *Identity {
	return &Identity{loaded: true}
}

// AnonymousInProject returns an anonymous identity with an explicit project
// scope, the shape of an unauthenticated visitor browsing a shared project.
func AnonymousInProject(projectID int64) *Identity {
	return &Identity{loaded: true, projectID: strconv.FormatInt(projectID, 10)}
}

// ForUser returns a pre-resolved identity for the given subject and roles,
// bypassing token verification. Useful in tests.
func ForUser(userID int64, roles ...string) *Identity {
	return &Identity{
		loaded: true,
		claims: &jwtx.Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: strconv.FormatInt(userID, 10)},
			Roles:            roles,
		},
	}
}

// ForUserInProject is ForUser with an explicit project scope attached.
func ForUserInProject(userID, projectID int64, roles ...string) *Identity {
	ident := ForUser(userID, roles...)
	ident.projectID = strconv.FormatInt(projectID, 10)
	return ident
}

// load memoizes exactly one decode + revocation check. A malformed token, a
// failed verification, an unknown subject or a stale stamp all collapse into
// anonymity; only the absence of claims is observable downstream.
func (id *Identity) load(ctx context.Context) *jwtx.Claims {
	if id.loaded {
		return id.claims
	}
	id.loaded = true

	if id.token == "" {
		return nil
	}

	claims, err := id.verifier.Verify(id.token)
	if err != nil {
		slogx.FromContext(ctx).Debug("bearer token rejected", "err", err)
		return nil
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil
	}

	user, err := id.users.GetUserByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			slogx.FromContext(ctx).Warn("identity stamp lookup failed", "err", err)
		}
		return nil
	}

	// Stamp rotation is the logout-everywhere primitive: a token minted
	// before the rotation carries the old stamp and is silently dropped.
	if cryptox.EncodeStamp(user.SecurityStamp) != claims.SecurityStamp {
		return nil
	}

	id.claims = &claims
	return id.claims
}

// UserID returns the authenticated subject, or false for anonymous callers.
func (id *Identity) UserID(ctx context.Context) (int64, bool) {
	claims := id.load(ctx)
	if claims == nil {
		return 0, false
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, false
	}
	return userID, true
}

// Roles returns the caller's roles, nil for anonymous callers.
func (id *Identity) Roles(ctx context.Context) []string {
	claims := id.load(ctx)
	if claims == nil {
		return nil
	}
	return claims.Roles
}

// IsAdmin reports whether the caller carries the admin role.
func (id *Identity) IsAdmin(ctx context.Context) bool {
	for _, role := range id.Roles(ctx) {
		if role == domain.RoleAdmin {
			return true
		}
	}
	return false
}

// ProjectID returns the explicit project id from the request, if one was
// supplied and parses as an integer.
func (id *Identity) ProjectID() (int64, bool) {
	if id.projectID == "" {
		return 0, false
	}
	projectID, err := strconv.ParseInt(id.projectID, 10, 64)
	if err != nil {
		return 0, false
	}
	return projectID, true
}
