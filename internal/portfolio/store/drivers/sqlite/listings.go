package sqlite

import (
	"context"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
)

type listingsRepo struct {
	q querier
}

const listingColumns = `id, project_id, path, kind, content, object_key,
	content_type, size, created_at, updated_at`

func (r *listingsRepo) GetListingByPath(ctx context.Context, projectID int64, path string) (domain.Listing, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+listingColumns+` FROM listings WHERE project_id = ? AND path = ?`,
		projectID, path)
	var l domain.Listing
	err := row.Scan(&l.ID, &l.ProjectID, &l.Path, &l.Kind, &l.Content, &l.ObjectKey,
		&l.ContentType, &l.Size, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.Listing{}, mapNotFound(err)
	}
	return l, nil
}

func (r *listingsRepo) ListListingsByPrefix(ctx context.Context, projectID int64, prefix string, page store.Page) ([]domain.Listing, int, error) {
	pattern := escapeLike(prefix) + "%"

	var total int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM listings WHERE project_id = ? AND path LIKE ? ESCAPE '\'`,
		projectID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		`SELECT `+listingColumns+` FROM listings
		 WHERE project_id = ? AND path LIKE ? ESCAPE '\'
		 ORDER BY path ASC LIMIT ? OFFSET ?`,
		projectID, pattern, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var listings []domain.Listing
	for rows.Next() {
		var l domain.Listing
		if err := rows.Scan(&l.ID, &l.ProjectID, &l.Path, &l.Kind, &l.Content, &l.ObjectKey,
			&l.ContentType, &l.Size, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, 0, err
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

// ListFolder derives the immediate children of folder from listing paths.
// A child that still has path segments below it is reported as a folder.
func (r *listingsRepo) ListFolder(ctx context.Context, projectID int64, folder string, page store.Page) ([]domain.FolderItem, int, error) {
	prefix := ""
	if folder != "" {
		prefix = folder + "/"
	}
	pattern := escapeLike(prefix) + "%"
	// substr is 1-based, so children start one past the prefix.
	start := len(prefix) + 1

	const derive = `
		SELECT DISTINCT
			CASE WHEN instr(substr(path, ?), '/') > 0
				THEN substr(substr(path, ?), 1, instr(substr(path, ?), '/') - 1)
				ELSE substr(path, ?) END AS name,
			CASE WHEN instr(substr(path, ?), '/') > 0 THEN 1 ELSE 0 END AS is_folder
		FROM listings
		WHERE project_id = ? AND path LIKE ? ESCAPE '\'`

	var total int
	if err := r.q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM (`+derive+`)`,
		start, start, start, start, start, projectID, pattern).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.q.QueryContext(ctx,
		derive+` ORDER BY is_folder DESC, name ASC LIMIT ? OFFSET ?`,
		start, start, start, start, start, projectID, pattern, page.Limit, page.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []domain.FolderItem
	for rows.Next() {
		var (
			item     domain.FolderItem
			isFolder int
		)
		if err := rows.Scan(&item.Name, &isFolder); err != nil {
			return nil, 0, err
		}
		item.IsFolder = isFolder != 0
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *listingsRepo) CreateListing(ctx context.Context, l domain.Listing) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO listings (project_id, path, kind, content, object_key,
			content_type, size, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.ProjectID, l.Path, l.Kind, l.Content, l.ObjectKey,
		l.ContentType, l.Size, l.CreatedAt, l.CreatedAt)
	if err != nil {
		return 0, mapConflict(err)
	}
	return res.LastInsertId()
}

func (r *listingsRepo) UpdateAttachment(ctx context.Context, listingID int64, objectKey, contentType string, size int64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE listings SET object_key = ?, content_type = ?, size = ?, updated_at = ?
		 WHERE id = ?`,
		objectKey, contentType, size, time.Now().UTC(), listingID)
	return err
}

func (r *listingsRepo) DeleteListing(ctx context.Context, listingID int64) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM listings WHERE id = ?`, listingID)
	return err
}
