package service

import (
	"context"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
)

// AccessService decides whether a caller may read a set of listing paths
// within a project. Decisions are all-or-nothing over the candidate set and
// are a pure function of the project's current policy rows.
type AccessService struct {
	Store store.Store
}

// VerifyAccess allows the request when the caller is an admin or owns the
// project. Otherwise every candidate path must be covered by at least one of
// the project's path-prefix policies; a single uncovered path rejects the
// whole set. An empty candidate set is vacuously allowed.
func (s *AccessService) VerifyAccess(
	ctx context.Context,
	ident *identity.Identity,
	project domain.Project,
	paths []string,
) error {
	if ident.IsAdmin(ctx) {
		return nil
	}

	if userID, ok := ident.UserID(ctx); ok && userID == project.UserID {
		return nil
	}

	if len(paths) == 0 {
		return nil
	}

	policies, err := s.Store.Policies().ListPoliciesByProject(ctx, project.ID)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if !covered(path, policies) {
			return ErrForbidden
		}
	}

	return nil
}

func covered(path string, policies []domain.AccessPolicy) bool {
	for _, p := range policies {
		if matchesPrefix(path, p.PathPrefix) {
			return true
		}
	}
	return false
}

// matchesPrefix reports whether prefix covers path on whole segments:
// "a/b" covers "a/b" and "a/b/c" but never "a/bc".
func matchesPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix+"/")
}
