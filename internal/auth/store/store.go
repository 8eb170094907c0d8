package store

import (
	"context"
	"errors"

	"github.com/majesticmotors/dealerauth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today,
// postgres later) implement this. Sub-repositories keep concerns tidy and
// let services depend on exactly the tables they touch.
type Store interface {
	Users() Users
	Sessions() Sessions
	Challenges() Challenges

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST Commit() or Rollback() the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, committing on nil and rolling
	// back on error. This is the recommended way to run multi-step mutations
	// that must be atomic (e.g. consuming an OTP challenge while unlocking
	// the session it belongs to).
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail is used during credential verification.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Returns ErrAlreadyExists on a duplicate email.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdateUserRole sets the role and bumps updated_at.
	UpdateUserRole(ctx context.Context, userID string, role domain.Role) error

	// SetTOTPSecret stores a (not yet confirmed) TOTP secret without
	// touching the enabled flag.
	SetTOTPSecret(ctx context.Context, userID string, secret string) error

	// EnableTOTP marks TOTP as enabled. Fails with ErrNotFound when the
	// user is missing.
	EnableTOTP(ctx context.Context, userID string) error

	// DisableTOTP clears both the secret and the enabled flag.
	DisableTOTP(ctx context.Context, userID string) error
}

type Sessions interface {
	// CreateSession stores a new session row keyed by token fingerprint.
	CreateSession(ctx context.Context, s domain.Session) error

	// GetSessionByTokenHash returns the session for a token fingerprint.
	GetSessionByTokenHash(ctx context.Context, tokenHash string) (domain.Session, error)

	// GetPendingSessionByUser returns a not-yet-expired session for the user
	// with pending_2fa still set, newest first.
	GetPendingSessionByUser(ctx context.Context, userID string) (domain.Session, error)

	// ClearSessionPending atomically flips pending_2fa from true to false
	// for the given token fingerprint. Returns false when the session was
	// missing or already cleared; concurrent verifications must not both
	// observe true.
	ClearSessionPending(ctx context.Context, tokenHash string) (bool, error)

	// DeleteAllUserSessions is mass logout for one user (all devices).
	DeleteAllUserSessions(ctx context.Context, userID string) error

	// DeleteExpiredSessions is housekeeping.
	DeleteExpiredSessions(ctx context.Context) error
}

type Challenges interface {
	// UpsertChallenge atomically creates or replaces the user's single
	// outstanding challenge. The user_id primary key plus ON CONFLICT
	// upsert enforces the one-row-per-user invariant without a
	// read-then-write race.
	UpsertChallenge(ctx context.Context, c domain.OTPChallenge) error

	// GetChallengeByUser returns the outstanding challenge, expired or not.
	GetChallengeByUser(ctx context.Context, userID string) (domain.OTPChallenge, error)

	// ConsumeChallenge deletes the user's challenge and reports whether a
	// row was actually removed, so two concurrent verifications cannot both
	// consume the same code.
	ConsumeChallenge(ctx context.Context, userID string) (bool, error)

	// DeleteExpiredChallenges is housekeeping.
	DeleteExpiredChallenges(ctx context.Context) error
}
