package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_JWT(t *testing.T) {
	cfg := Defaults()
	cfg.JWTSecret = "s3cret"

	jc, err := cfg.JWT()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", jc.Secret)
	assert.Equal(t, 24*time.Hour, jc.Expiration())
}

func TestConfig_JWT_MissingSecret(t *testing.T) {
	cfg := Defaults()

	jc, err := cfg.JWT()
	assert.Nil(t, jc)
	assert.Contains(t, err.Error(), "JWT_SECRET is required")
}

func TestConfig_JWT_BadExpiration(t *testing.T) {
	cfg := Defaults()
	cfg.JWTSecret = "x"
	cfg.JWTExpirationHours = 0

	_, err := cfg.JWT()
	assert.Contains(t, err.Error(), "at least 1 hour")
}
