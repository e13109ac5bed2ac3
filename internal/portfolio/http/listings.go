package http

import (
	"encoding/json"
	"net/http"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
)

// ListingsHandler serves listing reads and attachment transfers. The project
// scope comes from the X-Project-Id header; without it the caller's default
// project is used.
type ListingsHandler struct {
	ListingService *service.ListingService
}

// HandleGet godoc
//
//	@Summary		Get Listing
//	@Description	Fetches one listing by path. Explicit project scopes are checked against the project's access policies.
//	@Tags			Listings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-Project-Id	header		int		false	"Explicit project scope"
//	@Param			path			path		string	true	"Listing path"
//	@Success		200				{object}	ListingResponse
//	@Failure		403				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Router			/v1/listings/{path} [get].
func (h *ListingsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listing, err := h.ListingService.GetListing(ctx, identity.FromContext(ctx), r.PathValue("path"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toListingResponse(listing))
}

// HandleQuery godoc
//
//	@Summary		Query Listings
//	@Description	Pages listings under a path prefix. With an explicit project scope the whole page must be covered by policies.
//	@Tags			Listings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-Project-Id	header		int		false	"Explicit project scope"
//	@Param			prefix			query		string	false	"Path prefix"
//	@Param			offset			query		int		false	"Page offset"
//	@Param			limit			query		int		false	"Page size (max 100)"
//	@Success		200				{object}	PageResponse[ListingResponse]
//	@Failure		403				{object}	ErrorResponse
//	@Router			/v1/listings [get].
func (h *ListingsHandler) HandleQuery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	listings, total, err := h.ListingService.QueryListings(
		ctx,
		identity.FromContext(ctx),
		r.URL.Query().Get("prefix"),
		pageFromQuery(r),
	)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]ListingResponse, len(listings))
	for i, l := range listings {
		items[i] = toListingResponse(l)
	}
	httpx.WriteJSON(w, http.StatusOK, PageResponse[ListingResponse]{Items: items, Total: total})
}

// HandleFolder godoc
//
//	@Summary		Query Folder
//	@Description	Returns the immediate children of a folder, folders first then names ascending.
//	@Tags			Listings
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-Project-Id	header		int		false	"Explicit project scope"
//	@Param			folder			query		string	false	"Folder path (empty for root)"
//	@Param			offset			query		int		false	"Page offset"
//	@Param			limit			query		int		false	"Page size (max 100)"
//	@Success		200				{object}	PageResponse[FolderItemResponse]
//	@Failure		403				{object}	ErrorResponse
//	@Router			/v1/folders [get].
func (h *ListingsHandler) HandleFolder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	items, total, err := h.ListingService.QueryFolder(
		ctx,
		identity.FromContext(ctx),
		r.URL.Query().Get("folder"),
		pageFromQuery(r),
	)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	resp := make([]FolderItemResponse, len(items))
	for i, item := range items {
		resp[i] = FolderItemResponse{Name: item.Name, IsFolder: item.IsFolder}
	}
	httpx.WriteJSON(w, http.StatusOK, PageResponse[FolderItemResponse]{Items: resp, Total: total})
}

type createListingRequest struct {
	Content string `json:"content"`
}

// HandleCreateText godoc
//
//	@Summary		Create Text Listing
//	@Description	Stores an inline text listing in the caller's project.
//	@Tags			Listings
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			path	path		string					true	"Listing path"
//	@Param			body	body		createListingRequest	true	"Listing content"
//	@Success		201		{object}	ListingResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/v1/listings/{path} [post].
func (h *ListingsHandler) HandleCreateText(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	listing, err := h.ListingService.CreateTextListing(ctx, identity.FromContext(ctx), r.PathValue("path"), req.Content)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, toListingResponse(listing))
}

type uploadRequest struct {
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// HandleUploadURL godoc
//
//	@Summary		Attachment Upload URL
//	@Description	Registers an attachment listing and returns a presigned PUT URL for its bytes. Project owner only.
//	@Tags			Attachments
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			path	path		string			true	"Listing path"
//	@Param			body	body		uploadRequest	true	"Attachment metadata"
//	@Success		201		{object}	UploadURLResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/v1/attachments/{path} [post].
func (h *ListingsHandler) HandleUploadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	listing, uploadURL, err := h.ListingService.AttachmentUploadURL(
		ctx, identity.FromContext(ctx), r.PathValue("path"), req.ContentType, req.Size)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, UploadURLResponse{
		Path:      listing.Path,
		UploadURL: uploadURL,
	})
}

// HandleDownloadURL godoc
//
//	@Summary		Attachment Download URL
//	@Description	Returns a presigned GET URL for an attachment's bytes. Access rules match Get Listing.
//	@Tags			Attachments
//	@Produce		json
//	@Security		BearerAuth
//	@Param			X-Project-Id	header		int		false	"Explicit project scope"
//	@Param			path			path		string	true	"Listing path"
//	@Success		200				{object}	DownloadURLResponse
//	@Failure		403				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Router			/v1/attachments/{path} [get].
func (h *ListingsHandler) HandleDownloadURL(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	downloadURL, err := h.ListingService.AttachmentDownloadURL(ctx, identity.FromContext(ctx), r.PathValue("path"))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, DownloadURLResponse{DownloadURL: downloadURL})
}

type overwriteRequest struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// HandleOverwrite godoc
//
//	@Summary		Overwrite Attachment
//	@Description	Replaces the target attachment's bytes with the source's via a server-side copy, then removes the source listing.
//	@Tags			Attachments
//	@Accept			json
//	@Security		BearerAuth
//	@Param			body	body	overwriteRequest	true	"Source and target listing paths"
//	@Success		204
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/v1/attachments/overwrite [post].
func (h *ListingsHandler) HandleOverwrite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req overwriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Source == "" || req.Target == "" {
		errInvalidRequest.WriteError(w)
		return
	}

	err := h.ListingService.OverwriteAttachment(ctx, identity.FromContext(ctx), req.Source, req.Target)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
