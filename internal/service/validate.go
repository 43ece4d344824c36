package service

import (
	"bitwise74/file-share-api/pkg/validators"
	"fmt"
)

func validateSignup(username, email, password string) error {
	if err := validators.UsernameValidator(username); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := validators.EmailValidator(email); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	if err := validators.PasswordValidator(password); err != nil {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	return nil
}
