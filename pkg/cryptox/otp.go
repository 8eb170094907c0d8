package cryptox

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
)

// OTPCodeDigits is the length of emailed one-time passcodes.
const OTPCodeDigits = 6

// otpCodeSpan is the number of valid 6-digit codes (100000-999999 inclusive).
const otpCodeSpan = 900000

// GenerateOTPCode returns a uniformly random 6-digit decimal code as a
// string. Rejection sampling avoids the modulo bias a bare `uint32 % span`
// would introduce.
func GenerateOTPCode() (string, error) {
	// Largest multiple of otpCodeSpan that fits a uint32.
	const limit = (1<<32 / otpCodeSpan) * otpCodeSpan

	var buf [4]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			return "", fmt.Errorf("failed to generate otp code: %w", err)
		}
		n := binary.BigEndian.Uint32(buf[:])
		if n >= limit {
			continue
		}
		return fmt.Sprintf("%06d", n%otpCodeSpan+100000), nil
	}
}
