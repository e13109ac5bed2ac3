package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// RegisterHandler serves POST /v1/auth/register.
type RegisterHandler struct {
	UserService *service.UserService
}

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// ServeHTTP godoc
//
//	@Summary		Registration Endpoint
//	@Description	Creates a new unverified account. The first login attempt sends the verification email.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			body	body		registerRequest	true	"Registration details"
//	@Success		201		{object}	UserResponse	"id, email, first_name, last_name"
//	@Failure		400		{object}	ErrorResponse	"invalid_email, weak_password"
//	@Failure		409		{object}	ErrorResponse	"email_taken"
//	@Router			/v1/auth/register [post].
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errInvalidRequest.WriteError(w)
		return
	}

	user, err := h.UserService.Register(ctx, service.RegisterParams{
		Email:     strings.TrimSpace(req.Email),
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidEmail):
			errInvalidEmail.WriteError(w)
		case errors.Is(err, service.ErrWeakPassword):
			errWeakPassword.WriteError(w)
		case errors.Is(err, service.ErrEmailTaken):
			errEmailTaken.WriteError(w)
		default:
			log.Error("registration failed", "err", err)
			errServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	})
}
