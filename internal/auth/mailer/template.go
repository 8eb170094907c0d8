package mailer

import (
	"fmt"
	"time"
)

// ChallengeEmail renders the sign-in verification code message.
func ChallengeEmail(to, code string, ttl time.Duration) Message {
	minutes := int(ttl.Minutes())

	return Message{
		To:      to,
		Subject: "Your Majestic Motors verification code",
		TextBody: fmt.Sprintf(
			"Your verification code is %s.\n\nIt expires in %d minutes. If you did not try to sign in, you can ignore this email.\n",
			code, minutes),
		HTMLBody: fmt.Sprintf(
			`<p>Your verification code is:</p><p style="font-size:24px;font-weight:bold;letter-spacing:4px">%s</p><p>It expires in %d minutes. If you did not try to sign in, you can ignore this email.</p>`,
			code, minutes),
	}
}
