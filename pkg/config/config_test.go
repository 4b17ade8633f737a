package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
serverAddr: ":9000"
auth:
  accessTokenSecret: s3cret
postgres:
  host: db.internal
  dbname: approval
  user: approval
  replicas:
    - host=replica-0 dbname=approval
smtp:
  host: smtp.example.com
  notify: approvals@example.com
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.ServerAddr)
	assert.Equal(t, "s3cret", c.Auth.AccessTokenSecret)
	assert.Equal(t, 24*time.Hour, c.AccessTokenTTL())
	assert.Equal(t, "5432", c.Postgres.Port, "default kept when the file omits it")
	assert.Equal(t, []string{"host=replica-0 dbname=approval"}, c.Postgres.Replicas)
	assert.Equal(t, "approvals@example.com", c.SMTP.Notify)
	assert.Equal(t, "@every 1m", c.Metrics.RefreshSpec)
	assert.Contains(t, c.Postgres.DSN(), "host=db.internal")
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "auth:\n  accessTokenSecret: from-file\npostgres:\n  host: db.internal\n")
	t.Setenv("APPROVAL_POSTGRES_HOST", "db.override")
	t.Setenv("APPROVAL_AUTH_ACCESS_TOKEN_EXPIRY_HOUR", "2")
	t.Setenv("APPROVAL_WEBHOOK_URL", "https://robot.example.com/hook")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "db.override", c.Postgres.Host)
	assert.Equal(t, 2*time.Hour, c.AccessTokenTTL())
	assert.Equal(t, "https://robot.example.com/hook", c.Webhook.URL)
	assert.Equal(t, "from-file", c.Auth.AccessTokenSecret)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "serverAddr: [unclosed"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "serverAddr: \":9000\"\n"))
	require.ErrorContains(t, err, "accessTokenSecret")
}
