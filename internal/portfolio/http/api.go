package http

import (
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
)

// Wire types. Listings serialize differently depending on kind: text
// listings inline their content, attachments expose metadata only (bytes
// move through presigned URLs).

type CredentialResponse struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Token  string `json:"token"`
}

type UserResponse struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProjectResponse struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type ListingResponse struct {
	Path        string    `json:"path"`
	Kind        string    `json:"kind"`
	Content     string    `json:"content,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Size        int64     `json:"size,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type FolderItemResponse struct {
	Name     string `json:"name"`
	IsFolder bool   `json:"is_folder"`
}

type PolicyResponse struct {
	ID         int64  `json:"id"`
	PathPrefix string `json:"path_prefix"`
}

type PageResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

type UploadURLResponse struct {
	Path      string `json:"path"`
	UploadURL string `json:"upload_url"`
}

type DownloadURLResponse struct {
	DownloadURL string `json:"download_url"`
}

type HealthChecks struct {
	Database string `json:"database,omitempty"`
	Signer   string `json:"signer,omitempty"`
}

type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

func toListingResponse(l domain.Listing) ListingResponse {
	resp := ListingResponse{
		Path:      l.Path,
		Kind:      string(l.Kind),
		UpdatedAt: l.UpdatedAt,
	}
	switch l.Kind {
	case domain.ListingText:
		resp.Content = l.Content
	case domain.ListingAttachment:
		resp.ContentType = l.ContentType
		resp.Size = l.Size
	}
	return resp
}

func toProjectResponse(p domain.Project) ProjectResponse {
	return ProjectResponse{ID: p.ID, UserID: p.UserID, Name: p.Name}
}
