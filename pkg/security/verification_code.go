package security

import (
	"errors"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/hotp"
)

const codeIssuer = "file-share"

var codeOpts = hotp.ValidateOpts{
	Digits:    otp.DigitsSix,
	Algorithm: otp.AlgorithmSHA1,
}

var ErrNoAccount = errors.New("no account name provided")

// NewCodeSecret generates a fresh HOTP secret bound to account. Every code
// sent for a pending registration is derived from this secret and a counter
// that moves forward on each resend, which invalidates older codes.
func NewCodeSecret(account string) (string, error) {
	if account == "" {
		return "", ErrNoAccount
	}

	key, err := hotp.Generate(hotp.GenerateOpts{
		Issuer:      codeIssuer,
		AccountName: account,
		Digits:      codeOpts.Digits,
		Algorithm:   codeOpts.Algorithm,
	})
	if err != nil {
		return "", err
	}

	return key.Secret(), nil
}

// MakeCode returns the numeric one-time code for secret at counter
func MakeCode(secret string, counter uint64) (string, error) {
	return hotp.GenerateCodeCustom(secret, counter, codeOpts)
}

// CheckCode reports whether code is the one for secret at counter. The
// comparison is constant time.
func CheckCode(code, secret string, counter uint64) bool {
	ok, err := hotp.ValidateCustom(code, counter, secret, codeOpts)
	return err == nil && ok
}
