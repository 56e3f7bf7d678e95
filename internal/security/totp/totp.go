package totp

import (
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pquerna/otp"
	ptotp "github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"
)

const (
	// RFC 6238 defaults: SHA1, 6 digits, 30s step.
	period = 30
	digits = otp.DigitsSix

	qrSize = 256
)

// GenerateSecret returns 20 random bytes encoded as base32 without padding
// (RFC 3548), suitable for provisioning URIs and code derivation.
func GenerateSecret() (string, error) {
	raw := make([]byte, 20)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(raw), nil
}

// OTPAuthURL builds the otpauth:// URI consumed by authenticator apps.
// otpauth://totp/{issuer}:{account}?secret=...&issuer=...&algorithm=SHA1&digits=6&period=30
func OTPAuthURL(issuer, accountName, secretB32 string) string {
	label := url.PathEscape(fmt.Sprintf("%s:%s", issuer, accountName))
	q := url.Values{}
	q.Set("secret", secretB32)
	q.Set("issuer", issuer)
	q.Set("algorithm", "SHA1")
	q.Set("digits", "6")
	q.Set("period", "30")
	return fmt.Sprintf("otpauth://totp/%s?%s", label, q.Encode())
}

// Verify checks a submitted code against the secret at time t, accepting
// +/- skew time steps of drift. Comparison inside the otp library is
// constant-time. No side effects.
func Verify(secretB32, code string, t time.Time, skew uint) bool {
	code = strings.TrimSpace(code)
	if len(code) != 6 {
		return false
	}
	ok, err := ptotp.ValidateCustom(code, strings.ToUpper(secretB32), t, ptotp.ValidateOpts{
		Period:    period,
		Skew:      skew,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	return err == nil && ok
}

// CodeAt derives the valid code for the secret at time t.
func CodeAt(secretB32 string, t time.Time) (string, error) {
	return ptotp.GenerateCodeCustom(strings.ToUpper(secretB32), t, ptotp.ValidateOpts{
		Period:    period,
		Digits:    digits,
		Algorithm: otp.AlgorithmSHA1,
	})
}

// QRCodePNG renders the URI as a scannable PNG. Pure function of its input.
func QRCodePNG(uri string) ([]byte, error) {
	png, err := qrcode.Encode(uri, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("totp: qr encode: %w", err)
	}
	return png, nil
}
