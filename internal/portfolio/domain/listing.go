package domain

import (
	"strings"
	"time"
)

// ListingKind discriminates inline text listings from S3-backed attachments.
type ListingKind string

const (
	ListingText       ListingKind = "text"
	ListingAttachment ListingKind = "attachment"
)

type Listing struct {
	ID          int64
	ProjectID   int64
	Path        string // segments joined by '/', no leading slash
	Kind        ListingKind
	Content     string // text listings only
	ObjectKey   string // attachments only
	ContentType string
	Size        int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FolderItem is one entry of a single-level folder query.
type FolderItem struct {
	Name     string
	IsFolder bool
}

// CleanPath canonicalizes a listing path: trimmed, no leading or trailing
// slashes, no empty segments.
func CleanPath(path string) string {
	segments := strings.Split(strings.TrimSpace(path), "/")
	kept := segments[:0]
	for _, seg := range segments {
		if seg != "" {
			kept = append(kept, seg)
		}
	}
	return strings.Join(kept, "/")
}
