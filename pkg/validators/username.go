package validators

import (
	"errors"
	"regexp"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameInvalid = errors.New("username may only contain letters, digits, '.', '_' and '-'")
	ErrUsernameLength  = errors.New("username must be between 3 and 80 characters long")
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

func UsernameValidator(u string) error {
	if u == "" {
		return ErrUsernameEmpty
	}

	if len(u) < 3 || len(u) > 80 {
		return ErrUsernameLength
	}

	if !usernameRe.MatchString(u) {
		return ErrUsernameInvalid
	}

	return nil
}
