package store

import (
	"context"
	"errors"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Page describes an offset/limit window for query operations.
type Page struct {
	Offset int
	Limit  int
}

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and let tests swap a
// single repo without faking the whole store.
type Store interface {
	Users() Users
	Projects() Projects
	Listings() Listings
	Policies() Policies

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scope.
type Tx interface {
	Users() Users
	Projects() Projects
	Listings() Listings
	Policies() Policies
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id int64) (domain.User, error)

	// GetUserByEmail looks a user up by normalized (upper-cased) email.
	GetUserByEmail(ctx context.Context, normalizedEmail string) (domain.User, error)

	// CreateUser inserts a new user and returns the generated id.
	CreateUser(ctx context.Context, u domain.User) (int64, error)

	// UpdateLastInvitationSent stamps the verification-mail throttle field.
	UpdateLastInvitationSent(ctx context.Context, userID int64, at time.Time) error

	// UpdateSecurityStamp overwrites the stored revocation nonce.
	UpdateSecurityStamp(ctx context.Context, userID int64, stamp []byte) error

	// MarkEmailVerified flips email_verified on.
	MarkEmailVerified(ctx context.Context, userID int64) error

	// UpdatePasswordHash sets the password hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error
}

type Projects interface {
	// GetProjectByID fetches a project by id.
	GetProjectByID(ctx context.Context, id int64) (domain.Project, error)

	// GetDefaultProjectForUser returns the user's oldest project, used when
	// no explicit project scope accompanies a request.
	GetDefaultProjectForUser(ctx context.Context, userID int64) (domain.Project, error)

	// ListProjectsByUser returns a page of the user's projects, newest first.
	ListProjectsByUser(ctx context.Context, userID int64, page Page) ([]domain.Project, int, error)

	// CreateProject inserts a project and returns the generated id.
	CreateProject(ctx context.Context, p domain.Project) (int64, error)
}

type Listings interface {
	// GetListingByPath fetches a listing by exact path within a project.
	GetListingByPath(ctx context.Context, projectID int64, path string) (domain.Listing, error)

	// ListListingsByPrefix returns a page of listings whose path starts with
	// prefix (raw string prefix; access checks apply their own semantics).
	ListListingsByPrefix(ctx context.Context, projectID int64, prefix string, page Page) ([]domain.Listing, int, error)

	// ListFolder returns the immediate children of folder, folders first then
	// names ascending.
	ListFolder(ctx context.Context, projectID int64, folder string, page Page) ([]domain.FolderItem, int, error)

	// CreateListing inserts a listing and returns the generated id.
	CreateListing(ctx context.Context, l domain.Listing) (int64, error)

	// UpdateAttachment repoints an attachment listing at a new object.
	UpdateAttachment(ctx context.Context, listingID int64, objectKey, contentType string, size int64) error

	// DeleteListing removes a listing.
	DeleteListing(ctx context.Context, listingID int64) error
}

type Policies interface {
	// ListPoliciesByProject returns a project's policies in creation order,
	// which keeps prefix evaluation deterministic under overlapping grants.
	ListPoliciesByProject(ctx context.Context, projectID int64) ([]domain.AccessPolicy, error)

	// CreatePolicy inserts a policy and returns the generated id.
	CreatePolicy(ctx context.Context, p domain.AccessPolicy) (int64, error)

	// DeletePolicies removes the given policy ids within a project.
	DeletePolicies(ctx context.Context, projectID int64, ids []int64) error
}
