package service

import (
	"context"
	"errors"
	"net/mail"
	"time"
	"unicode"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
	"github.com/cycastic/portfolio-toolkit/internal/portfolio/store"
	"github.com/cycastic/portfolio-toolkit/pkg/cryptox"
)

// MinPasswordLength is the minimum accepted password length at registration.
const MinPasswordLength = 8

type UserService struct {
	Store store.Store
}

type RegisterParams struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Register creates a new unverified account with a fresh security stamp and
// a default project. The first login triggers the verification email.
func (s *UserService) Register(ctx context.Context, params RegisterParams) (domain.User, error) {
	if _, err := mail.ParseAddress(params.Email); err != nil {
		return domain.User{}, ErrInvalidEmail
	}
	if err := validatePassword(params.Password); err != nil {
		return domain.User{}, err
	}

	hash, err := cryptox.HashPassword(params.Password)
	if err != nil {
		return domain.User{}, err
	}

	stamp, err := cryptox.NewStamp(domain.SecurityStampSize)
	if err != nil {
		return domain.User{}, err
	}

	now := time.Now().UTC()
	user := domain.User{
		Email:           params.Email,
		NormalizedEmail: domain.NormalizeEmail(params.Email),
		FirstName:       params.FirstName,
		LastName:        params.LastName,
		PasswordHash:    hash,
		SecurityStamp:   stamp,
		Roles:           []string{"member"},
		Enabled:         true,
		JoinedAt:        now,
		UpdatedAt:       now,
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		id, err := tx.Users().CreateUser(ctx, user)
		if err != nil {
			return err
		}
		user.ID = id

		_, err = tx.Projects().CreateProject(ctx, domain.Project{
			UserID:    id,
			Name:      "default",
			CreatedAt: now,
			UpdatedAt: now,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrEmailTaken
		}
		return domain.User{}, err
	}

	return user, nil
}

// GetByID fetches a user by id.
func (s *UserService) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	return s.Store.Users().GetUserByID(ctx, userID)
}

// RotateSecurityStamp replaces the user's stamp with fresh random bytes,
// invalidating every token issued against the old value.
func (s *UserService) RotateSecurityStamp(ctx context.Context, userID int64) error {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := cryptox.RotateStamp(user.SecurityStamp); err != nil {
		return err
	}

	return s.Store.Users().UpdateSecurityStamp(ctx, userID, user.SecurityStamp)
}

// validatePassword enforces the registration password policy: minimum length
// plus at least one letter and one digit.
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if !hasLetter || !hasDigit {
		return ErrWeakPassword
	}
	return nil
}
