package service

import (
	"context"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
)

type ProjectService struct {
	Store store.Store
}

// GetProject fetches a project the caller owns. Admins may fetch any
// project.
func (s *ProjectService) GetProject(ctx context.Context, ident *identity.Identity, projectID int64) (domain.Project, error) {
	project, err := s.Store.Projects().GetProjectByID(ctx, projectID)
	if err != nil {
		return domain.Project{}, err
	}

	if ident.IsAdmin(ctx) {
		return project, nil
	}
	if userID, ok := ident.UserID(ctx); ok && userID == project.UserID {
		return project, nil
	}

	return domain.Project{}, ErrForbidden
}

// QueryProjects pages through an owner's projects. Callers may only list
// their own unless they are admins.
func (s *ProjectService) QueryProjects(ctx context.Context, ident *identity.Identity, ownerID int64, page store.Page) ([]domain.Project, int, error) {
	callerID, ok := ident.UserID(ctx)
	if !ok {
		return nil, 0, ErrForbidden
	}

	if ownerID == 0 {
		ownerID = callerID
	}
	if ownerID != callerID && !ident.IsAdmin(ctx) {
		return nil, 0, ErrForbidden
	}

	return s.Store.Projects().ListProjectsByUser(ctx, ownerID, page)
}

// ListPolicies returns a project's access policies in creation order.
// Owner/admin only.
func (s *ProjectService) ListPolicies(ctx context.Context, ident *identity.Identity, projectID int64) ([]domain.AccessPolicy, error) {
	if _, err := s.GetProject(ctx, ident, projectID); err != nil {
		return nil, err
	}
	return s.Store.Policies().ListPoliciesByProject(ctx, projectID)
}

// CreatePolicy grants read access under a path prefix. Owner/admin only.
func (s *ProjectService) CreatePolicy(ctx context.Context, ident *identity.Identity, projectID int64, pathPrefix string) (domain.AccessPolicy, error) {
	if _, err := s.GetProject(ctx, ident, projectID); err != nil {
		return domain.AccessPolicy{}, err
	}

	policy := domain.AccessPolicy{
		ProjectID:  projectID,
		PathPrefix: domain.CleanPath(pathPrefix),
		CreatedAt:  time.Now().UTC(),
	}

	id, err := s.Store.Policies().CreatePolicy(ctx, policy)
	if err != nil {
		return domain.AccessPolicy{}, err
	}
	policy.ID = id
	return policy, nil
}

// DeletePolicies revokes the given policy ids. Owner/admin only.
func (s *ProjectService) DeletePolicies(ctx context.Context, ident *identity.Identity, projectID int64, ids []int64) error {
	if _, err := s.GetProject(ctx, ident, projectID); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return s.Store.Policies().DeletePolicies(ctx, projectID, ids)
}
