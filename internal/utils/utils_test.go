package utils

import (
	"crypto/tls"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "  abc ")
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD", "nope")
	t.Setenv("X_NEG", "-3")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_SEC", "5")

	assert.Equal(t, "abc", EnvString("X_STR", "d"))
	assert.Equal(t, "d", EnvString("X_UNSET", "d"))
	assert.Equal(t, 12, EnvInt("X_INT", 1))
	assert.Equal(t, 1, EnvInt("X_BAD", 1))
	assert.Equal(t, 1, EnvInt("X_NEG", 1))
	assert.True(t, EnvBool("X_BOOL", false))
	assert.False(t, EnvBool("X_BAD", false))
	assert.Equal(t, 5*time.Second, EnvSeconds("X_SEC", time.Minute))
	assert.Equal(t, time.Minute, EnvSeconds("X_UNSET", time.Minute))
}

func TestBuildPostgresDSNFromEnv(t *testing.T) {
	t.Setenv("PG_HOST", "db")
	t.Setenv("PG_PORT", "6543")
	t.Setenv("PG_USER", "app")
	t.Setenv("PG_PASSWORD", "p@ss/w")
	t.Setenv("PG_DB", "")
	t.Setenv("PG_SSLMODE", "require")

	dsn := BuildPostgresDSNFromEnv()
	u, err := url.Parse(dsn)
	require.NoError(t, err)
	assert.Equal(t, "db:6543", u.Host)
	assert.Equal(t, "/tenants", u.Path)
	assert.Equal(t, "app", u.User.Username())
	pass, _ := u.User.Password()
	assert.Equal(t, "p@ss/w", pass)
	assert.Equal(t, "require", u.Query().Get("sslmode"))
}

func TestOpenRedisFromEnv_Disabled(t *testing.T) {
	t.Setenv("REDIS_ENABLED", "false")
	assert.Nil(t, OpenRedisFromEnv())
}

func TestEnsureSelfSignedCert(t *testing.T) {
	dir := t.TempDir()
	cert := filepath.Join(dir, "tls", "cert.pem")
	key := filepath.Join(dir, "tls", "key.pem")

	require.NoError(t, EnsureSelfSignedCert(cert, key, "tenants.local"))
	_, err := tls.LoadX509KeyPair(cert, key)
	require.NoError(t, err)

	st, err := os.Stat(key)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), st.Mode().Perm())

	before, _ := os.ReadFile(cert)
	require.NoError(t, EnsureSelfSignedCert(cert, key, "other"))
	after, _ := os.ReadFile(cert)
	assert.Equal(t, before, after)
}
