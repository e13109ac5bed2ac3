package service

import (
	"context"
	"testing"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/stretchr/testify/require"
)

func TestGetProject(t *testing.T) {
	st := newTestStore(t)
	svc := &ProjectService{Store: st}
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "hunter2hunter2", verified())
	project := seedProject(t, st, owner.ID, "portfolio")

	t.Run("owner", func(t *testing.T) {
		got, err := svc.GetProject(ctx, identity.ForUser(owner.ID, "member"), project.ID)
		require.NoError(t, err)
		require.Equal(t, project.ID, got.ID)
	})

	t.Run("admin", func(t *testing.T) {
		_, err := svc.GetProject(ctx, identity.ForUser(999, domain.RoleAdmin), project.ID)
		require.NoError(t, err)
	})

	t.Run("stranger", func(t *testing.T) {
		_, err := svc.GetProject(ctx, identity.ForUser(owner.ID+1, "member"), project.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, err := svc.GetProject(ctx, identity.Anonymous(), project.ID)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("unknown project", func(t *testing.T) {
		_, err := svc.GetProject(ctx, identity.ForUser(owner.ID, "member"), project.ID+1000)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestQueryProjects(t *testing.T) {
	st := newTestStore(t)
	svc := &ProjectService{Store: st}
	ctx := context.Background()

	alice := seedUser(t, st, "alice@example.com", "hunter2hunter2", verified())
	bob := seedUser(t, st, "bob@example.com", "hunter2hunter2", verified())
	seedProject(t, st, alice.ID, "one")
	seedProject(t, st, alice.ID, "two")
	seedProject(t, st, bob.ID, "theirs")

	page := store.Page{Limit: 50}

	t.Run("defaults to the caller's projects", func(t *testing.T) {
		projects, total, err := svc.QueryProjects(ctx, identity.ForUser(alice.ID, "member"), 0, page)
		require.NoError(t, err)
		require.Equal(t, 2, total)
		require.Len(t, projects, 2)
	})

	t.Run("caller cannot list another owner", func(t *testing.T) {
		_, _, err := svc.QueryProjects(ctx, identity.ForUser(alice.ID, "member"), bob.ID, page)
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("admin lists any owner", func(t *testing.T) {
		projects, total, err := svc.QueryProjects(ctx, identity.ForUser(999, domain.RoleAdmin), bob.ID, page)
		require.NoError(t, err)
		require.Equal(t, 1, total)
		require.Equal(t, "theirs", projects[0].Name)
	})

	t.Run("anonymous", func(t *testing.T) {
		_, _, err := svc.QueryProjects(ctx, identity.Anonymous(), 0, page)
		require.ErrorIs(t, err, ErrForbidden)
	})
}

func TestPolicyAdministration(t *testing.T) {
	st := newTestStore(t)
	svc := &ProjectService{Store: st}
	ctx := context.Background()

	owner := seedUser(t, st, "owner@example.com", "hunter2hunter2", verified())
	project := seedProject(t, st, owner.ID, "portfolio")
	ownerIdent := identity.ForUser(owner.ID, "member")
	stranger := identity.ForUser(owner.ID+1, "member")

	t.Run("create normalizes the prefix", func(t *testing.T) {
		policy, err := svc.CreatePolicy(ctx, ownerIdent, project.ID, "/reports//2024/")
		require.NoError(t, err)
		require.Equal(t, "reports/2024", policy.PathPrefix)
		require.NotZero(t, policy.ID)
	})

	t.Run("list returns creation order", func(t *testing.T) {
		_, err := svc.CreatePolicy(ctx, ownerIdent, project.ID, "media")
		require.NoError(t, err)

		policies, err := svc.ListPolicies(ctx, ownerIdent, project.ID)
		require.NoError(t, err)
		require.Len(t, policies, 2)
		require.Equal(t, "reports/2024", policies[0].PathPrefix)
		require.Equal(t, "media", policies[1].PathPrefix)
	})

	t.Run("stranger cannot administer", func(t *testing.T) {
		_, err := svc.CreatePolicy(ctx, stranger, project.ID, "x")
		require.ErrorIs(t, err, ErrForbidden)

		_, err = svc.ListPolicies(ctx, stranger, project.ID)
		require.ErrorIs(t, err, ErrForbidden)

		err = svc.DeletePolicies(ctx, stranger, project.ID, []int64{1})
		require.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("delete revokes", func(t *testing.T) {
		policies, err := svc.ListPolicies(ctx, ownerIdent, project.ID)
		require.NoError(t, err)

		ids := []int64{policies[0].ID}
		require.NoError(t, svc.DeletePolicies(ctx, ownerIdent, project.ID, ids))

		remaining, err := svc.ListPolicies(ctx, ownerIdent, project.ID)
		require.NoError(t, err)
		require.Len(t, remaining, 1)
		require.Equal(t, "media", remaining[0].PathPrefix)
	})

	t.Run("empty id set is a no-op", func(t *testing.T) {
		require.NoError(t, svc.DeletePolicies(ctx, ownerIdent, project.ID, nil))
	})
}
