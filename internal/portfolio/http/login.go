package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// LoginHandler serves POST /v1/auth/login.
// Accepts application/x-www-form-urlencoded.
type LoginHandler struct {
	CredentialService *service.CredentialService
}

// ServeHTTP godoc
//
//	@Summary		Login Endpoint
//	@Description	Issues a signed session token for a verified, enabled account.
//	@Description	Unknown email, wrong password and disabled accounts all return the same 401 shape.
//	@Tags			Auth
//	@Accept			application/x-www-form-urlencoded
//	@Produce		json
//	@Param			email		formData	string				true	"Account email"
//	@Param			password	formData	string				true	"Account password"
//	@Success		200			{object}	CredentialResponse	"user_id, email, token"
//	@Failure		400			{object}	ErrorResponse		"error, error_description"
//	@Failure		401			{object}	ErrorResponse		"error, error_description"
//	@Failure		409			{object}	ErrorResponse		"verification_pending"
//	@Header			200			{string}	Cache-Control		"no-store"
//	@Router			/v1/auth/login [post].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		errInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		errInvalidFormBody.WriteError(w)
		return
	}

	email := strings.TrimSpace(r.Form.Get("email"))
	password := r.Form.Get("password")
	if email == "" || password == "" {
		errInvalidRequest.WriteError(w)
		return
	}

	credential, err := h.CredentialService.Issue(ctx, email, password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			errUnauthorized.WriteError(w)
		case errors.Is(err, service.ErrVerificationPending):
			errVerificationPending.WriteError(w)
		case errors.Is(err, service.ErrVerificationEmailSent):
			errVerificationSent.WriteError(w)
		default:
			log.Error("credential issuance failed", "err", err)
			errServerError.WriteError(w)
		}
		return
	}

	httpx.WriteJSON(w, http.StatusOK, CredentialResponse{
		UserID: credential.UserID,
		Email:  credential.Email,
		Token:  credential.Token,
	})
}
