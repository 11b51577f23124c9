package auth_test

import (
	"errors"
	"testing"

	"labconnect/internal/apperr"
	"labconnect/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword_Salted(t *testing.T) {
	first, err := auth.HashPassword("student12345")
	require.NoError(t, err)
	second, err := auth.HashPassword("student12345")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.NotEqual(t, "student12345", first)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := auth.HashPassword("teacher12345")
	require.NoError(t, err)

	assert.True(t, auth.VerifyPassword(hash, "teacher12345"))
	assert.False(t, auth.VerifyPassword(hash, "teacher1234"))
	assert.False(t, auth.VerifyPassword("not-a-hash", "teacher12345"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "empty", password: "", wantErr: true},
		{name: "nine chars", password: "123456789", wantErr: true},
		{name: "ten chars", password: "1234567890"},
		{name: "multibyte counts runes", password: "пароль1234"},
		{name: "multibyte too short", password: "пароль123", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidatePassword(tt.password)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperr.ErrValidation))
				return
			}
			assert.NoError(t, err)
		})
	}
}
