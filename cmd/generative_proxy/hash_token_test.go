package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/generative-proxy/internal/config"
)

func TestHashTokenCommand(t *testing.T) {
	isolateEnv(t)

	stdout, _, err := executeCommand(t, "hash-token", "--cost", "4", "s3cret")
	require.NoError(t, err)

	hash := strings.TrimSpace(stdout)
	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, 4, cost)

	auth := config.AdminAuth{TokenHash: hash}
	assert.True(t, auth.Verify("s3cret"))
	assert.False(t, auth.Verify("wrong"))
}

func TestHashTokenCommand_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "blank token", args: []string{"hash-token", "--cost", "4", "   "}, wantErr: "token cannot be empty"},
		{name: "cost out of range", args: []string{"hash-token", "--cost", "99", "s3cret"}, wantErr: "bcrypt cost out of range: 99"},
		{name: "missing token", args: []string{"hash-token"}, wantErr: "accepts 1 arg(s), received 0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateEnv(t)

			_, _, err := executeCommand(t, tt.args...)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
