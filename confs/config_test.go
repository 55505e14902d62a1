package confs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, SqliteDbType, cfg.Database.Type)
	assert.Equal(t, "users.db", cfg.Database.Path)
	assert.Equal(t, "session", cfg.Security.CookieName)
	assert.Equal(t, 24*time.Hour, cfg.Security.SessionTTL)
	assert.Equal(t, []string{"*"}, cfg.Security.CORSAllowOrigins)
}

func TestLoad_ReplacesPlaceholderSecret(t *testing.T) {
	first, err := Load("")
	require.NoError(t, err)
	second, err := Load("")
	require.NoError(t, err)

	assert.NotEqual(t, DefaultSecretKey, first.Security.SecretKey)
	assert.Len(t, first.Security.SecretKey, 64)
	assert.NotEqual(t, first.Security.SecretKey, second.Security.SecretKey)

	t.Setenv("SECRET_KEY", DefaultSecretKey)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.NotEqual(t, DefaultSecretKey, cfg.Security.SecretKey)
}

func TestLoad_KeepsConfiguredSecret(t *testing.T) {
	t.Setenv("SECRET_KEY", "35816d3b5542d2c486cdc0932b08c5bd")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "35816d3b5542d2c486cdc0932b08c5bd", cfg.Security.SecretKey)
}

func TestLoad_KeepsSecretFromFile(t *testing.T) {
	cfg, err := Load(writeYAML(t, "security:\n  secret_key: file-secret-0123456789\n"))
	require.NoError(t, err)
	assert.Equal(t, "file-secret-0123456789", cfg.Security.SecretKey)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeYAML(t, `
server:
  port: 8088
  shutdown_timeout: 3s
models:
  dir: /srv/models
logging:
  format: console
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8088, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "/srv/models", cfg.Models.Dir)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeYAML(t, "server:\n  port: 8088\n")
	t.Setenv("HM_SERVER_PORT", "9090")
	t.Setenv("HM_SECURITY_CORS_ALLOW_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("HM_SECURITY_SESSION_TTL", "90m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.Security.CORSAllowOrigins)
	assert.Equal(t, 90*time.Minute, cfg.Security.SessionTTL)
}

func TestLoad_LegacyEnvNames(t *testing.T) {
	t.Setenv("HM_DATABASE_TYPE", "postgres")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_USER", "health")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "health")
	t.Setenv("SECRET_KEY", "35816d3b5542d2c486cdc0932b08c5bd")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, PostgresDbType, cfg.Database.Type)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, "health", cfg.Database.Name)
	assert.Equal(t, "35816d3b5542d2c486cdc0932b08c5bd", cfg.Security.SecretKey)
}

func TestLoad_PostgresRequiresConnectionDetails(t *testing.T) {
	t.Setenv("HM_DATABASE_TYPE", "postgres")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required database configuration")
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string]string{
		"bad db type":   "database:\n  type: mysql\n",
		"short secret":  "security:\n  secret_key: short\n",
		"bad log level": "logging:\n  level: loud\n",
		"bad port":      "server:\n  port: 70000\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeYAML(t, body))
			assert.Error(t, err)
		})
	}
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "server.port", envKey("HM_SERVER_PORT"))
	assert.Equal(t, "database.max_open_conns", envKey("HM_DATABASE_MAX_OPEN_CONNS"))
	assert.Equal(t, "database.url", envKey("DB_URL"))
	assert.Equal(t, "", envKey("HOME"))
	assert.Equal(t, "", envKey("HM_NOSECTION"))
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:5000", ServerConfig{Host: "127.0.0.1", Port: 5000}.Addr())
}
