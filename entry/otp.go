package entry

import (
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp/totp"
)

// otpPeriod is the TOTP time step used by authenticator apps.
const otpPeriod = 30 * time.Second

// NormalizeOTPSecret strips the spaces and dashes authenticator apps use to
// group base32 secrets and upper-cases the result.
func NormalizeOTPSecret(secret string) string {
	r := strings.NewReplacer(" ", "", "-", "", "\t", "")
	return strings.ToUpper(r.Replace(strings.TrimSpace(secret)))
}

// OTPCode returns the TOTP code for secret at now and how long it remains
// valid.
func OTPCode(secret string, now time.Time) (string, time.Duration, error) {
	secret = NormalizeOTPSecret(secret)
	if secret == "" {
		return "", 0, fmt.Errorf("%w: empty otp secret", ErrEntryField)
	}

	code, err := totp.GenerateCode(secret, now)
	if err != nil {
		return "", 0, fmt.Errorf("generating otp code: %w", err)
	}

	elapsed := time.Duration(now.UnixNano()) % otpPeriod
	return code, otpPeriod - elapsed, nil
}

// OTP returns the current code of the entry's otp field, if it has one.
func (e *Entry) OTP(now time.Time) (code string, remaining time.Duration, ok bool) {
	f, found := e.Field(FieldOTP)
	if !found || f.Value == "" {
		return "", 0, false
	}
	code, remaining, err := OTPCode(f.Value, now)
	if err != nil {
		return "", 0, false
	}
	return code, remaining, true
}
