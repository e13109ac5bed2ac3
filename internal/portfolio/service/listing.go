package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/idx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// BlobStore is the attachment storage surface ListingService needs. The S3
// client satisfies it; tests supply fakes.
type BlobStore interface {
	PresignPut(ctx context.Context, key, contentType string) (string, error)
	PresignGet(ctx context.Context, key string) (string, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	Delete(ctx context.Context, key string) error
}

// ListingService reads listings within a project scope, gated by
// AccessService, and brokers attachment transfers through presigned URLs.
type ListingService struct {
	Store  store.Store
	Access *AccessService
	Blobs  BlobStore
}

// resolveProject picks the project a listing request operates on. An
// explicit project id (X-Project-Id) may point at someone else's project, in
// which case policies decide; without one the caller's own default project
// is used and no policy check applies.
func (s *ListingService) resolveProject(ctx context.Context, ident *identity.Identity) (domain.Project, bool, error) {
	if projectID, ok := ident.ProjectID(); ok {
		project, err := s.Store.Projects().GetProjectByID(ctx, projectID)
		if err != nil {
			// An anonymous caller gets forbidden whether the project is
			// missing or merely unshared, so probing ids reveals nothing.
			if errors.Is(err, store.ErrNotFound) {
				if _, authed := ident.UserID(ctx); !authed {
					return domain.Project{}, false, ErrForbidden
				}
			}
			return domain.Project{}, false, err
		}
		return project, true, nil
	}

	userID, ok := ident.UserID(ctx)
	if !ok {
		return domain.Project{}, false, ErrForbidden
	}

	project, err := s.Store.Projects().GetDefaultProjectForUser(ctx, userID)
	if err != nil {
		return domain.Project{}, false, err
	}
	return project, false, nil
}

// GetListing fetches one listing by path.
func (s *ListingService) GetListing(ctx context.Context, ident *identity.Identity, path string) (domain.Listing, error) {
	path = domain.CleanPath(path)

	project, explicit, err := s.resolveProject(ctx, ident)
	if err != nil {
		return domain.Listing{}, err
	}

	if explicit {
		if err := s.Access.VerifyAccess(ctx, ident, project, []string{path}); err != nil {
			return domain.Listing{}, err
		}
	}

	return s.Store.Listings().GetListingByPath(ctx, project.ID, path)
}

// QueryListings pages listings under a path prefix. The whole page must be
// readable: one uncovered path rejects the request.
func (s *ListingService) QueryListings(ctx context.Context, ident *identity.Identity, prefix string, page store.Page) ([]domain.Listing, int, error) {
	prefix = domain.CleanPath(prefix)

	project, explicit, err := s.resolveProject(ctx, ident)
	if err != nil {
		return nil, 0, err
	}

	listings, total, err := s.Store.Listings().ListListingsByPrefix(ctx, project.ID, prefix, page)
	if err != nil {
		return nil, 0, err
	}

	if explicit {
		paths := make([]string, len(listings))
		for i, l := range listings {
			paths[i] = l.Path
		}
		if err := s.Access.VerifyAccess(ctx, ident, project, paths); err != nil {
			return nil, 0, err
		}
	}

	return listings, total, nil
}

// QueryFolder returns the immediate children of a folder, folders first then
// names ascending. Folder queries are owner-or-default scoped; explicit
// project scopes still go through the policy evaluator using the folder
// itself as the candidate path.
func (s *ListingService) QueryFolder(ctx context.Context, ident *identity.Identity, folder string, page store.Page) ([]domain.FolderItem, int, error) {
	folder = domain.CleanPath(folder)

	project, explicit, err := s.resolveProject(ctx, ident)
	if err != nil {
		return nil, 0, err
	}

	if explicit {
		var candidates []string
		if folder != "" {
			candidates = []string{folder}
		}
		if err := s.Access.VerifyAccess(ctx, ident, project, candidates); err != nil {
			return nil, 0, err
		}
	}

	return s.Store.Listings().ListFolder(ctx, project.ID, folder, page)
}

// CreateTextListing stores an inline text listing in the caller's project.
func (s *ListingService) CreateTextListing(ctx context.Context, ident *identity.Identity, path, content string) (domain.Listing, error) {
	project, err := s.ownProject(ctx, ident)
	if err != nil {
		return domain.Listing{}, err
	}

	now := time.Now().UTC()
	listing := domain.Listing{
		ProjectID: project.ID,
		Path:      domain.CleanPath(path),
		Kind:      domain.ListingText,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	id, err := s.Store.Listings().CreateListing(ctx, listing)
	if err != nil {
		return domain.Listing{}, err
	}
	listing.ID = id
	return listing, nil
}

// AttachmentUploadURL registers an attachment listing and returns a
// presigned PUT URL for its bytes. Only the project owner uploads.
func (s *ListingService) AttachmentUploadURL(ctx context.Context, ident *identity.Identity, path, contentType string, size int64) (domain.Listing, string, error) {
	project, err := s.ownProject(ctx, ident)
	if err != nil {
		return domain.Listing{}, "", err
	}

	now := time.Now().UTC()
	listing := domain.Listing{
		ProjectID:   project.ID,
		Path:        domain.CleanPath(path),
		Kind:        domain.ListingAttachment,
		ObjectKey:   objectKey(project.ID, now),
		ContentType: contentType,
		Size:        size,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	id, err := s.Store.Listings().CreateListing(ctx, listing)
	if err != nil {
		return domain.Listing{}, "", err
	}
	listing.ID = id

	uploadURL, err := s.Blobs.PresignPut(ctx, listing.ObjectKey, contentType)
	if err != nil {
		return domain.Listing{}, "", err
	}
	return listing, uploadURL, nil
}

// AttachmentDownloadURL resolves a listing like GetListing and returns a
// presigned GET URL for its bytes.
func (s *ListingService) AttachmentDownloadURL(ctx context.Context, ident *identity.Identity, path string) (string, error) {
	listing, err := s.GetListing(ctx, ident, path)
	if err != nil {
		return "", err
	}
	if listing.Kind != domain.ListingAttachment {
		return "", store.ErrNotFound
	}
	return s.Blobs.PresignGet(ctx, listing.ObjectKey)
}

// OverwriteAttachment replaces dst's bytes with src's via a server-side
// copy, then deletes the source listing and its object. Owner only.
func (s *ListingService) OverwriteAttachment(ctx context.Context, ident *identity.Identity, srcPath, dstPath string) error {
	project, err := s.ownProject(ctx, ident)
	if err != nil {
		return err
	}

	src, err := s.Store.Listings().GetListingByPath(ctx, project.ID, domain.CleanPath(srcPath))
	if err != nil {
		return err
	}
	dst, err := s.Store.Listings().GetListingByPath(ctx, project.ID, domain.CleanPath(dstPath))
	if err != nil {
		return err
	}
	if src.Kind != domain.ListingAttachment || dst.Kind != domain.ListingAttachment {
		return store.ErrNotFound
	}

	if err := s.Blobs.Copy(ctx, src.ObjectKey, dst.ObjectKey); err != nil {
		return err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Listings().UpdateAttachment(ctx, dst.ID, dst.ObjectKey, src.ContentType, src.Size); err != nil {
			return err
		}
		return tx.Listings().DeleteListing(ctx, src.ID)
	})
	if err != nil {
		return err
	}

	// Source object cleanup is best-effort; the copy already landed.
	if err := s.Blobs.Delete(ctx, src.ObjectKey); err != nil {
		slogx.FromContext(ctx).Warn("attachment source cleanup failed", "key", src.ObjectKey, "error", err)
	}
	return nil
}

// ownProject resolves the caller's write scope: the explicit project when it
// is theirs (or they are admin), otherwise their default project.
func (s *ListingService) ownProject(ctx context.Context, ident *identity.Identity) (domain.Project, error) {
	project, explicit, err := s.resolveProject(ctx, ident)
	if err != nil {
		return domain.Project{}, err
	}

	if explicit && !ident.IsAdmin(ctx) {
		userID, ok := ident.UserID(ctx)
		if !ok || userID != project.UserID {
			return domain.Project{}, ErrForbidden
		}
	}
	return project, nil
}

func objectKey(projectID int64, now time.Time) string {
	return fmt.Sprintf("projects/%d/%s", projectID, idx.NewAt(now).String())
}
