package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

// ErrMismatch is returned by VerifyPassword when the plaintext does not
// produce the stored hash. Callers must not surface which sub-check failed.
var ErrMismatch = errors.New("cryptox: hash mismatch")

// HashPassword derives a PHC-format Argon2id hash string for the given
// plaintext. The salt and tuning parameters are embedded in the result so
// parameters can be raised later without invalidating stored hashes.
//
// The same primitive is used for both account passwords and emailed OTP
// codes; both must survive a datastore leak.
func HashPassword(plaintext string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	key := argon2.IDKey([]byte(plaintext+GetPepper()), salt, iterations, memory, parallelism, keyLength)

	return fmt.Sprintf("$argon2id$v=19$m=%d,t=%d,p=%d$%s$%s",
		memory,
		iterations,
		parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword recomputes the Argon2id hash for plaintext using the
// parameters embedded in encoded and compares in constant time.
// Returns ErrMismatch on a wrong plaintext and a descriptive error for a
// malformed stored hash.
func VerifyPassword(plaintext, encoded string) error {
	// PHC layout: $argon2id$v=19$m=X,t=Y,p=Z$salt$hash
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 {
		return errors.New("cryptox: malformed hash: want 6 segments")
	}
	if parts[1] != "argon2id" {
		return errors.New("cryptox: malformed hash: not argon2id")
	}
	if parts[2] != "v=19" {
		return errors.New("cryptox: malformed hash: unsupported version")
	}

	var mem, iters uint32
	var par uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &iters, &par); err != nil {
		return fmt.Errorf("cryptox: malformed hash parameters: %w", err)
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return fmt.Errorf("cryptox: malformed salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return fmt.Errorf("cryptox: malformed hash body: %w", err)
	}

	got := argon2.IDKey([]byte(plaintext+GetPepper()), salt, iters, mem, par,
		uint32(len(want))) // #nosec G115 - hash lengths are tiny

	if subtle.ConstantTimeCompare(got, want) != 1 {
		return ErrMismatch
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummyHash string
)

// DummyHash returns a valid Argon2id hash of a throwaway value. Credential
// verification runs VerifyPassword against it when the account does not
// exist, so unknown-email and wrong-password attempts cost the same.
func DummyHash() string {
	dummyOnce.Do(func() {
		h, err := HashPassword("dealerauth-nonexistent-account")
		if err != nil {
			// rand.Read failing means the process cannot do anything useful
			panic(fmt.Sprintf("cryptox: dummy hash: %v", err))
		}
		dummyHash = h
	})
	return dummyHash
}
