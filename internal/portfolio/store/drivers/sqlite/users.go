package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/cycastic/portfolio-toolkit/internal/portfolio/domain"
)

type usersRepo struct {
	q querier
}

const userColumns = `id, email, normalized_email, first_name, last_name,
	password_hash, security_stamp, roles, email_verified, enabled,
	last_invitation_sent, joined_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id int64) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, normalizedEmail string) (domain.User, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE normalized_email = ?`, normalizedEmail)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`INSERT INTO users (email, normalized_email, first_name, last_name,
			password_hash, security_stamp, roles, email_verified, enabled,
			last_invitation_sent, joined_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Email, u.NormalizedEmail, u.FirstName, u.LastName,
		u.PasswordHash, u.SecurityStamp, joinRoles(u.Roles), u.EmailVerified, u.Enabled,
		mapOptionalTime(u.LastInvitationSent), u.JoinedAt, u.JoinedAt)
	if err != nil {
		return 0, mapConflict(err)
	}
	return res.LastInsertId()
}

func (r *usersRepo) UpdateLastInvitationSent(ctx context.Context, userID int64, at time.Time) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET last_invitation_sent = ?, updated_at = ? WHERE id = ?`,
		at, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdateSecurityStamp(ctx context.Context, userID int64, stamp []byte) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET security_stamp = ?, updated_at = ? WHERE id = ?`,
		stamp, time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) MarkEmailVerified(ctx context.Context, userID int64) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET email_verified = 1, updated_at = ? WHERE id = ?`,
		time.Now().UTC(), userID)
	return err
}

func (r *usersRepo) UpdatePasswordHash(ctx context.Context, userID int64, newHash string) error {
	_, err := r.q.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		newHash, time.Now().UTC(), userID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u        domain.User
		roles    string
		lastSent sql.NullTime
	)
	err := row.Scan(&u.ID, &u.Email, &u.NormalizedEmail, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.SecurityStamp, &roles, &u.EmailVerified, &u.Enabled,
		&lastSent, &u.JoinedAt, &u.UpdatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	u.Roles = splitAndFilter(roles)
	u.LastInvitationSent = mapNullTimePtr(lastSent)
	return u, nil
}
