package domain

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string  // argon2id encoded
	Role         Role
	TOTPSecret   *string // base32 encoded (nullable; set during setup, before enable)
	TOTPEnabled  bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
