package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/service"
	"github.com/cycastic/portfolio-toolkit/pkg/httpx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// CompleteHandler serves GET /v1/auth/complete, the target of presigned
// verification links.
type CompleteHandler struct {
	VerificationService *service.VerificationService
}

// ServeHTTP godoc
//
//	@Summary		Verification Completion Endpoint
//	@Description	Marks an email verified. The URL must carry a valid HMAC signature and validity window;
//	@Description	completing rotates the security stamp so the link cannot be replayed.
//	@Tags			Auth
//	@Produce		json
//	@Param			userId	query		string	true	"User id"
//	@Param			stamp	query		string	true	"Security stamp at link issuance"
//	@Param			nvb		query		int		true	"Not valid before (unix)"
//	@Param			nva		query		int		true	"Not valid after (unix)"
//	@Param			sig		query		string	true	"HMAC signature"
//	@Success		200		{object}	map[string]string
//	@Failure		400		{object}	ErrorResponse	"invalid_link"
//	@Router			/v1/auth/complete [get].
func (h *CompleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	err := h.VerificationService.Complete(ctx, r.URL, time.Now().UTC())
	if err != nil {
		if errors.Is(err, service.ErrInvalidLink) {
			errInvalidLink.WriteError(w)
			return
		}
		log.Error("verification completion failed", "err", err)
		errServerError.WriteError(w)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "verified"})
}
