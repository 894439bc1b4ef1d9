package auth

import (
	"strings"

	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
)

const maxUsernameLength = 256

// ValidateCredentials checks a login form before any request is sent.
// Passwords are taken verbatim; only an empty one is rejected.
func ValidateCredentials(username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperrors.Wrapf(apperrors.ErrMissingCredentials, "username")
	}
	if len(username) > maxUsernameLength {
		return apperrors.Wrapf(apperrors.ErrInvalidCredentials, "username longer than %d characters", maxUsernameLength)
	}
	if password == "" {
		return apperrors.Wrapf(apperrors.ErrMissingCredentials, "password")
	}
	return nil
}
