package hash

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// ErrEmptyPassword is returned when a caller asks to hash an empty
// password. Verification of an empty password is not an error, it is
// simply a mismatch.
var ErrEmptyPassword = errors.New("password must not be empty")

// bcrypt ignores everything past 72 bytes, longer inputs are truncated
// so they hash instead of failing.
const maxPasswordBytes = 72

func Password(password string) (string, error) {
	const op = "hash.Password"

	if password == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyPassword)
	}

	digest, err := bcrypt.GenerateFromPassword(truncate(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return string(digest), nil
}

func Verify(password, digest string) bool {
	if password == "" || digest == "" {
		return false
	}

	return bcrypt.CompareHashAndPassword([]byte(digest), truncate(password)) == nil
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		b = b[:maxPasswordBytes]
	}

	return b
}
