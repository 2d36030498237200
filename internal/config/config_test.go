package config

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("test-signing-key"))

	t.Run("valid", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "host=localhost", "db/migrations", secret, []string{"http://localhost:3000"})
		require.NoError(t, err)
		assert.Equal(t, "localhost:8000", cfg.ServerAddr)
		assert.Equal(t, "host=localhost", cfg.DatabaseDSN)
		assert.Equal(t, []byte("test-signing-key"), cfg.SigningKey)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.AllowedOrigins)
	})

	t.Run("empty DSN is allowed", func(t *testing.T) {
		cfg, err := NewConfig("localhost:8000", "", "", secret, nil)
		require.NoError(t, err)
		assert.Empty(t, cfg.DatabaseDSN)
	})

	t.Run("empty address", func(t *testing.T) {
		_, err := NewConfig("", "", "", secret, nil)
		assert.Error(t, err)
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "", "", "", nil)
		assert.Error(t, err)
	})

	t.Run("invalid base64 secret", func(t *testing.T) {
		_, err := NewConfig("localhost:8000", "", "", "not base64!!!", nil)
		assert.Error(t, err)
	})
}
