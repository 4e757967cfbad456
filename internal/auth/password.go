package auth

import (
	"crypto/subtle"
	"unicode/utf8"

	kerrors "github.com/PolarWolf314/quill/internal/errors"
)

// MinPasswordLength is the minimum number of characters in a password.
const MinPasswordLength = 8

// ValidatePassword enforces the password policy for any password that will
// protect a secret key. It is shared by signup, password change and biometric enable.
func ValidatePassword(password []byte) error {
	if !utf8.Valid(password) || utf8.RuneCount(password) < MinPasswordLength {
		return kerrors.ErrInvalidPassword
	}
	return nil
}

// ValidatePasswordChange checks the new password against the policy and
// rejects reusing the current one.
func ValidatePasswordChange(current, next []byte) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(current, next) == 1 {
		return kerrors.ErrSamePassword
	}
	return nil
}
