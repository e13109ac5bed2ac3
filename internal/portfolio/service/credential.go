package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
	"github.com/cycastic/portfolio-toolkit/pkg/jwtx"
	"github.com/cycastic/portfolio-toolkit/pkg/slogx"
)

// dummyText is hashed once at construction and verified against on every
// failure path that never reaches a real password check, so a login against
// an unknown email costs the same as one against a known email.
const dummyText = "correct-horse-battery-staple"

// CredentialService issues signed session tokens for verified, enabled
// accounts. Every failure path performs the same cryptographic work as the
// success path so response latency does not leak account state.
type CredentialService struct {
	Store          store.Store
	Signer         jwtx.Signer
	Verification   *VerificationService
	Issuer         string
	TokenTTL       time.Duration
	ResendCooldown time.Duration

	dummyHash string
}

func NewCredentialService(
	st store.Store,
	signer jwtx.Signer,
	verification *VerificationService,
	issuer string,
	tokenTTL, resendCooldown time.Duration,
) (*CredentialService, error) {
	dummyHash, err := cryptox.HashPassword(dummyText)
	if err != nil {
		return nil, err
	}

	return &CredentialService{
		Store:          st,
		Signer:         signer,
		Verification:   verification,
		Issuer:         issuer,
		TokenTTL:       tokenTTL,
		ResendCooldown: resendCooldown,
		dummyHash:      dummyHash,
	}, nil
}

// Issue authenticates email+password and returns a signed credential.
//
// Unknown email, wrong password and disabled account all collapse into
// ErrInvalidCredentials after equivalent compute. An unverified account
// terminates issuance with either ErrVerificationPending (inside the resend
// cooldown) or ErrVerificationEmailSent (a fresh mail was queued).
func (s *CredentialService) Issue(ctx context.Context, email, password string) (domain.Credential, error) {
	now := time.Now().UTC()
	l := slogx.FromContext(ctx)

	if s.ResendCooldown <= 0 {
		return domain.Credential{}, ErrMisconfigured
	}

	user, err := s.Store.Users().GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Credential{}, s.wasteCompute(now)
		}
		return domain.Credential{}, err
	}

	if err := cryptox.VerifyPassword(password, user.PasswordHash); err != nil {
		// Burn one signing operation so a wrong password costs the same as a
		// successful login.
		_, _ = s.sign(user, now)
		l.Info("login rejected", slog.String("reason", "password_mismatch"))
		return domain.Credential{}, ErrInvalidCredentials
	}

	if !user.EmailVerified {
		return domain.Credential{}, s.handleUnverified(ctx, user, now)
	}

	if !user.Enabled {
		l.Info("login rejected", slog.String("reason", "account_disabled"))
		return domain.Credential{}, s.wasteCompute(now)
	}

	token, err := s.sign(user, now)
	if err != nil {
		return domain.Credential{}, err
	}

	return domain.Credential{
		UserID: user.ID,
		Email:  user.Email,
		Token:  token,
	}, nil
}

// handleUnverified throttles verification resends. Inside the cooldown the
// stored timestamp is left untouched and no mail goes out.
func (s *CredentialService) handleUnverified(ctx context.Context, user domain.User, now time.Time) error {
	if user.LastInvitationSent != nil && now.Sub(*user.LastInvitationSent) < s.ResendCooldown {
		return ErrVerificationPending
	}

	if err := s.Store.Users().UpdateLastInvitationSent(ctx, user.ID, now); err != nil {
		return err
	}

	// Fire-and-forget: delivery happens on the dispatcher's workers and
	// failures are logged there, never surfaced to the caller.
	s.Verification.SendVerificationEmail(ctx, user, now)

	return ErrVerificationEmailSent
}

// wasteCompute performs one password verification and one token signing with
// throwaway inputs, then reports invalid credentials.
func (s *CredentialService) wasteCompute(now time.Time) error {
	_ = cryptox.VerifyPassword(dummyText, s.dummyHash)
	_, _ = s.Signer.Sign(jwtx.NewSessionClaims("0", nil, "", s.TokenTTL, s.Issuer, now))
	return ErrInvalidCredentials
}

func (s *CredentialService) sign(user domain.User, now time.Time) (string, error) {
	claims := jwtx.NewSessionClaims(
		strconv.FormatInt(user.ID, 10),
		user.Roles,
		cryptox.EncodeStamp(user.SecurityStamp),
		s.TokenTTL,
		s.Issuer,
		now,
	)
	return s.Signer.Sign(claims)
}
