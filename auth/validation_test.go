package auth_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-materials-client/auth"
	apperrors "github.com/jrsteele09/go-materials-client/internal/errors"
	"github.com/stretchr/testify/require"
)

func TestValidateCredentials(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantErr  error
	}{
		{name: "valid", username: "admin@example.com", password: "secret"},
		{name: "password with spaces is kept", username: "admin", password: "  "},
		{name: "empty username", username: "", password: "secret", wantErr: apperrors.ErrMissingCredentials},
		{name: "blank username", username: " \t", password: "secret", wantErr: apperrors.ErrMissingCredentials},
		{name: "empty password", username: "admin", password: "", wantErr: apperrors.ErrMissingCredentials},
		{name: "username too long", username: strings.Repeat("a", 257), password: "secret", wantErr: apperrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateCredentials(tt.username, tt.password)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
