package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
)

type usersRepo struct {
	db dbtx
}

const userColumns = `id, email, password_hash, role, totp_secret, totp_enabled, created_at, updated_at`

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	now := toUnix(time.Now())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, role, totp_secret, totp_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.Role.String(), u.TOTPSecret, boolToInt(u.TOTPEnabled), now, now)
	return mapConstraint(err)
}

func (r *usersRepo) UpdateUserRole(ctx context.Context, userID string, role domain.Role) error {
	return r.exec(ctx,
		`UPDATE users SET role = ?, updated_at = ? WHERE id = ?`,
		role.String(), toUnix(time.Now()), userID)
}

func (r *usersRepo) SetTOTPSecret(ctx context.Context, userID string, secret string) error {
	return r.exec(ctx,
		`UPDATE users SET totp_secret = ?, updated_at = ? WHERE id = ?`,
		secret, toUnix(time.Now()), userID)
}

func (r *usersRepo) EnableTOTP(ctx context.Context, userID string) error {
	return r.exec(ctx,
		`UPDATE users SET totp_enabled = 1, updated_at = ? WHERE id = ?`,
		toUnix(time.Now()), userID)
}

func (r *usersRepo) DisableTOTP(ctx context.Context, userID string) error {
	return r.exec(ctx,
		`UPDATE users SET totp_secret = NULL, totp_enabled = 0, updated_at = ? WHERE id = ?`,
		toUnix(time.Now()), userID)
}

// exec runs an update that must touch exactly one user row.
func (r *usersRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return mapNotFound(sql.ErrNoRows)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		roleText  string
		secret    sql.NullString
		enabled   int64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &roleText, &secret, &enabled, &createdAt, &updatedAt)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	role, err := domain.ParseRole(roleText)
	if err != nil {
		return domain.User{}, fmt.Errorf("user %s: %w", u.ID, err)
	}

	u.Role = role
	u.TOTPSecret = mapNullStringPtr(secret)
	u.TOTPEnabled = enabled != 0
	u.CreatedAt = fromUnix(createdAt)
	u.UpdatedAt = fromUnix(updatedAt)
	return u, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
