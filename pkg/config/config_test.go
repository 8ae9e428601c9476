package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost dbname=tracle")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("ENV", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, developmentSecret, cfg.SecretKey)
	assert.Equal(t, "log", cfg.MailBackend)
	assert.Equal(t, 336*time.Hour, cfg.SessionTTL)
	assert.Equal(t, 72*time.Hour, cfg.TokenTTL)
}

func TestLoadRequiresPostgres(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRequiresSecretOutsideDevelopment(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost")
	t.Setenv("ENV", "production")
	t.Setenv("SECRET_KEY", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMongoMailBackendNeedsURI(t *testing.T) {
	t.Setenv("POSTGRES_CONN_STR", "host=localhost")
	t.Setenv("MAIL_BACKEND", "mongo")
	t.Setenv("MONGO_URI", "")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("MAIL_BACKEND", "carrier-pigeon")
	_, err = Load()
	assert.Error(t, err)
}
