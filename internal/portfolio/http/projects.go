package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/identity"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// ProjectsHandler serves project reads and policy administration.
type ProjectsHandler struct {
	ProjectService *service.ProjectService
}

// HandleGet godoc
//
//	@Summary		Get Project
//	@Description	Fetches one project. Owner or admin only.
//	@Tags			Projects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Project id"
//	@Success		200	{object}	ProjectResponse
//	@Failure		403	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/v1/projects/{id} [get].
func (h *ProjectsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	project, err := h.ProjectService.GetProject(ctx, identity.FromContext(ctx), projectID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, toProjectResponse(project))
}

// HandleList godoc
//
//	@Summary		List Projects
//	@Description	Pages through the caller's projects, newest first. Admins may pass user_id to list another owner's.
//	@Tags			Projects
//	@Produce		json
//	@Security		BearerAuth
//	@Param			user_id	query		int	false	"Owner id (admin only)"
//	@Param			offset	query		int	false	"Page offset"
//	@Param			limit	query		int	false	"Page size (max 100)"
//	@Success		200		{object}	PageResponse[ProjectResponse]
//	@Failure		403		{object}	ErrorResponse
//	@Router			/v1/projects [get].
func (h *ProjectsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	ownerID, _ := strconv.ParseInt(r.URL.Query().Get("user_id"), 10, 64)

	projects, total, err := h.ProjectService.QueryProjects(ctx, identity.FromContext(ctx), ownerID, pageFromQuery(r))
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]ProjectResponse, len(projects))
	for i, p := range projects {
		items[i] = toProjectResponse(p)
	}
	httpx.WriteJSON(w, http.StatusOK, PageResponse[ProjectResponse]{Items: items, Total: total})
}

// HandleListPolicies godoc
//
//	@Summary		List Access Policies
//	@Description	Returns a project's path-prefix policies in creation order. Owner or admin only.
//	@Tags			Policies
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"Project id"
//	@Success		200	{array}		PolicyResponse
//	@Failure		403	{object}	ErrorResponse
//	@Router			/v1/projects/{id}/policies [get].
func (h *ProjectsHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	policies, err := h.ProjectService.ListPolicies(ctx, identity.FromContext(ctx), projectID)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	items := make([]PolicyResponse, len(policies))
	for i, p := range policies {
		items[i] = PolicyResponse{ID: p.ID, PathPrefix: p.PathPrefix}
	}
	httpx.WriteJSON(w, http.StatusOK, items)
}

type createPolicyRequest struct {
	PathPrefix string `json:"path_prefix"`
}

// HandleCreatePolicy godoc
//
//	@Summary		Create Access Policy
//	@Description	Grants read access to listings under a path prefix. Owner or admin only.
//	@Tags			Policies
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int					true	"Project id"
//	@Param			body	body		createPolicyRequest	true	"Policy"
//	@Success		201		{object}	PolicyResponse
//	@Failure		403		{object}	ErrorResponse
//	@Router			/v1/projects/{id}/policies [post].
func (h *ProjectsHandler) HandleCreatePolicy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	var req createPolicyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.PathPrefix == "" {
		errInvalidRequest.WriteError(w)
		return
	}

	policy, err := h.ProjectService.CreatePolicy(ctx, identity.FromContext(ctx), projectID, req.PathPrefix)
	if err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, PolicyResponse{ID: policy.ID, PathPrefix: policy.PathPrefix})
}

type deletePoliciesRequest struct {
	IDs []int64 `json:"ids"`
}

// HandleDeletePolicies godoc
//
//	@Summary		Delete Access Policies
//	@Description	Revokes the given policy ids. Owner or admin only.
//	@Tags			Policies
//	@Accept			json
//	@Security		BearerAuth
//	@Param			id		path	int						true	"Project id"
//	@Param			body	body	deletePoliciesRequest	true	"Policy ids"
//	@Success		204
//	@Failure		403	{object}	ErrorResponse
//	@Router			/v1/projects/{id}/policies [delete].
func (h *ProjectsHandler) HandleDeletePolicies(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	projectID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	var req deletePoliciesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	if err := h.ProjectService.DeletePolicies(ctx, identity.FromContext(ctx), projectID, req.IDs); err != nil {
		writeServiceError(ctx, w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pageFromQuery reads offset/limit with a hard cap so a client can't demand
// unbounded pages.
func pageFromQuery(r *http.Request) store.Page {
	q := r.URL.Query()
	offset, _ := strconv.Atoi(q.Get("offset"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	if offset < 0 {
		offset = 0
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return store.Page{Offset: offset, Limit: limit}
}

// writeServiceError maps service and store sentinels onto the error
// envelope.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrForbidden):
		errForbidden.WriteError(w)
	case errors.Is(err, store.ErrNotFound):
		errNotFound.WriteError(w)
	case errors.Is(err, store.ErrAlreadyExists):
		errConflict.WriteError(w)
	default:
		slogx.FromContext(ctx).Error("request failed", "err", err)
		errServerError.WriteError(w)
	}
}
