package service

import "errors"

var (
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrForbidden          = errors.New("forbidden")

	// ErrVerificationPending is returned when a login hits an unverified
	// account inside the resend cooldown window. No mail is sent.
	ErrVerificationPending = errors.New("verification_pending")

	// ErrVerificationEmailSent is returned when a login hits an unverified
	// account outside the cooldown window and a fresh verification email has
	// been queued.
	ErrVerificationEmailSent = errors.New("verification_email_sent")

	ErrInvalidEmail  = errors.New("invalid_email")
	ErrWeakPassword  = errors.New("weak_password")
	ErrEmailTaken    = errors.New("email_taken")
	ErrInvalidLink   = errors.New("invalid_link")
	ErrMisconfigured = errors.New("misconfigured")
)
