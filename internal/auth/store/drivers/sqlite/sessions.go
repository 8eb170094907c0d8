package sqlite

import (
	"context"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
)

type sessionsRepo struct {
	db dbtx
}

const sessionColumns = `token_hash, user_id, pending_2fa, expires_at, created_at, updated_at`

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	now := toUnix(time.Now())
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (token_hash, user_id, pending_2fa, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		s.TokenHash, s.UserID, boolToInt(s.Pending2FA), toUnix(s.ExpiresAt), now, now)
	return mapConstraint(err)
}

func (r *sessionsRepo) GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE token_hash = ?`, tokenHash)
	return scanSession(row)
}

func (r *sessionsRepo) GetPendingSessionByUser(ctx context.Context, userID string) (domain.Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE user_id = ? AND pending_2fa = 1 AND expires_at > ?
		 ORDER BY created_at DESC LIMIT 1`,
		userID, toUnix(time.Now()))
	return scanSession(row)
}

func (r *sessionsRepo) ClearSessionPending(ctx context.Context, tokenHash string) (bool, error) {
	// Conditional update: only one concurrent caller can observe the flip.
	res, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET pending_2fa = 0, updated_at = ?
		 WHERE token_hash = ? AND pending_2fa = 1`,
		toUnix(time.Now()), tokenHash)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *sessionsRepo) DeleteAllUserSessions(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (r *sessionsRepo) DeleteExpiredSessions(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, toUnix(time.Now()))
	return err
}

func scanSession(row rowScanner) (domain.Session, error) {
	var (
		s         domain.Session
		pending   int64
		expiresAt int64
		createdAt int64
		updatedAt int64
	)
	err := row.Scan(&s.TokenHash, &s.UserID, &pending, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.Session{}, mapNotFound(err)
	}

	s.Pending2FA = pending != 0
	s.ExpiresAt = fromUnix(expiresAt)
	s.CreatedAt = fromUnix(createdAt)
	s.UpdatedAt = fromUnix(updatedAt)
	return s, nil
}
