package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
server:
  mode: development
database:
  dsn: "file::memory:"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, DevJWTSecret, cfg.Auth.JWTSecret)
	assert.Equal(t, 24, cfg.Auth.TokenTTLHours)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 1, cfg.WorkerPool.Size)
	assert.Equal(t, 3600, cfg.Push.TTL)
	assert.False(t, cfg.Push.Enabled())
}

func TestLoad_RequiresSecretInProduction(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("SERVER_MODE", "")
	path := writeConfig(t, `
database:
  dsn: "host=db"
`)

	_, err := Load(path)
	assert.ErrorContains(t, err, "jwt_secret")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("DATABASE_DSN", "host=env-db")
	t.Setenv("PORT", "9090")

	path := writeConfig(t, `
server:
  port: 8000
database:
  dsn: "host=file-db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, "host=env-db", cfg.Database.DSN)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoad_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "Unknown mode",
			body: "server:\n  mode: staging\nauth:\n  jwt_secret: x\ndatabase:\n  dsn: d\n",
			want: "server.mode",
		},
		{
			name: "Missing DSN",
			body: "auth:\n  jwt_secret: x\n",
			want: "database.dsn",
		},
		{
			name: "Half bootstrap admin",
			body: "auth:\n  jwt_secret: x\n  bootstrap_admin:\n    username: root\ndatabase:\n  dsn: d\n",
			want: "bootstrap_admin",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
