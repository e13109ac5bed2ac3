package service

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/mail"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/presign"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// CompletionPath is the backend endpoint a presigned verification link hits.
const CompletionPath = "/v1/auth/complete"

// VerificationService builds presigned email-verification links, queues the
// verification email and completes verification when the link is followed.
type VerificationService struct {
	Store      store.Store
	Dispatcher *mail.Dispatcher
	Presigner  *presign.Signer

	// BackendOrigin is where the completion endpoint lives; FrontendOrigin
	// hosts the page that submits the presigned URL back to us.
	BackendOrigin  string
	FrontendOrigin string
	LinkTTL        time.Duration
}

// CompletionURL builds the presigned backend URL that marks the email
// verified, wrapped into the frontend's complete-signup page.
func (s *VerificationService) CompletionURL(user domain.User, now time.Time) (string, time.Time, error) {
	if s.LinkTTL <= 0 {
		return "", time.Time{}, ErrMisconfigured
	}

	base, err := url.Parse(s.BackendOrigin + CompletionPath)
	if err != nil {
		return "", time.Time{}, err
	}

	expiresAt := now.Add(s.LinkTTL)

	q := base.Query()
	q.Set("userId", strconv.FormatInt(user.ID, 10))
	q.Set("stamp", cryptox.EncodeStamp(user.SecurityStamp))
	base.RawQuery = q.Encode()

	signed := s.Presigner.Sign(base, now, expiresAt)

	front, err := url.Parse(s.FrontendOrigin + "/complete-signup")
	if err != nil {
		return "", time.Time{}, err
	}
	fq := front.Query()
	fq.Set("submission", signed.String())
	front.RawQuery = fq.Encode()

	return front.String(), expiresAt, nil
}

// SendVerificationEmail renders and queues the verification email. It is
// fire-and-forget: every failure is logged and swallowed so issuance never
// depends on delivery.
func (s *VerificationService) SendVerificationEmail(ctx context.Context, user domain.User, now time.Time) {
	l := slogx.FromContext(ctx)

	link, expiresAt, err := s.CompletionURL(user, now)
	if err != nil {
		l.Error("verification link build failed", "error", err)
		return
	}

	msg, err := mail.RenderVerification(user.Email, user.FirstName, link, expiresAt)
	if err != nil {
		l.Error("verification mail render failed", "error", err)
		return
	}

	s.Dispatcher.Enqueue(msg)
}

// Complete validates a presigned completion URL, marks the email verified
// and rotates the security stamp so the link cannot be replayed.
func (s *VerificationService) Complete(ctx context.Context, u *url.URL, now time.Time) error {
	if err := s.Presigner.Verify(u, now); err != nil {
		return ErrInvalidLink
	}

	q := u.Query()
	userID, err := strconv.ParseInt(q.Get("userId"), 10, 64)
	if err != nil {
		return ErrInvalidLink
	}

	return s.Store.WithTx(ctx, func(tx store.Tx) error {
		user, err := tx.Users().GetUserByID(ctx, userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidLink
			}
			return err
		}

		// The stamp in the link must match the live one: rotating the stamp
		// (or completing once) invalidates every outstanding link.
		if q.Get("stamp") != cryptox.EncodeStamp(user.SecurityStamp) {
			return ErrInvalidLink
		}

		if err := tx.Users().MarkEmailVerified(ctx, userID); err != nil {
			return err
		}

		if err := cryptox.RotateStamp(user.SecurityStamp); err != nil {
			return err
		}
		return tx.Users().UpdateSecurityStamp(ctx, userID, user.SecurityStamp)
	})
}
