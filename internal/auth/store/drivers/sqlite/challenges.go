package sqlite

import (
	"context"
	"time"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
)

type challengesRepo struct {
	db dbtx
}

func (r *challengesRepo) UpsertChallenge(ctx context.Context, c domain.OTPChallenge) error {
	now := toUnix(time.Now())
	// Single-statement upsert; the user_id primary key makes re-issuance
	// overwrite (and invalidate) any outstanding code atomically.
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO otp_challenges (user_id, code_hash, email, expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			code_hash = excluded.code_hash,
			email = excluded.email,
			expires_at = excluded.expires_at,
			updated_at = excluded.updated_at`,
		c.UserID, c.CodeHash, c.Email, toUnix(c.ExpiresAt), now, now)
	return err
}

func (r *challengesRepo) GetChallengeByUser(ctx context.Context, userID string) (domain.OTPChallenge, error) {
	var (
		c         domain.OTPChallenge
		expiresAt int64
		createdAt int64
		updatedAt int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, code_hash, email, expires_at, created_at, updated_at
		 FROM otp_challenges WHERE user_id = ?`, userID).
		Scan(&c.UserID, &c.CodeHash, &c.Email, &expiresAt, &createdAt, &updatedAt)
	if err != nil {
		return domain.OTPChallenge{}, mapNotFound(err)
	}

	c.ExpiresAt = fromUnix(expiresAt)
	c.CreatedAt = fromUnix(createdAt)
	c.UpdatedAt = fromUnix(updatedAt)
	return c, nil
}

func (r *challengesRepo) ConsumeChallenge(ctx context.Context, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE user_id = ?`, userID)
	if err != nil {
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}

func (r *challengesRepo) DeleteExpiredChallenges(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM otp_challenges WHERE expires_at <= ?`, toUnix(time.Now()))
	return err
}
