package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResolveEnv(t *testing.T) {
	t.Setenv("BMU_TEST_HOST", "db.internal")

	in := []byte("host: ${BMU_TEST_HOST}\nport: ${BMU_TEST_PORT:3306}\n")
	out := string(resolveEnv(in))
	assert.Contains(t, out, "host: db.internal")
	assert.Contains(t, out, "port: 3306")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "apiserver.yaml")
	content := `
port: 8081
database:
  type: mysql
  host: ${BMU_DB_HOST:127.0.0.1}
  user: root
backup:
  dir: /var/backups/mysql
  poll_interval: 10s
jwt:
  secret_key: test-secret-key-that-is-long-enough!!
  duration: 24h
`
	assert.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, cfgPath, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, path, cfgPath)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "127.0.0.1", cfg.Database.Host)
	assert.Equal(t, "/var/backups/mysql", cfg.Backup.Dir)
	assert.Equal(t, 10*time.Second, cfg.Backup.PollInterval)
	assert.Equal(t, 24*time.Hour, cfg.JWT.Duration)
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestSetDefaults(t *testing.T) {
	var cfg APIServerConfig
	cfg.SetDefaults()

	assert.Equal(t, "mysql", cfg.Database.Type)
	assert.Equal(t, 3306, cfg.Database.Port)
	assert.Equal(t, "backmeup_system", cfg.Database.DBName)
	assert.Equal(t, "poll", cfg.Backup.Detection)
	assert.Equal(t, 5*time.Second, cfg.Backup.PollInterval)
	assert.Equal(t, "mysqldump", cfg.Backup.MysqldumpPath)
	assert.Equal(t, "memory", cfg.TokenStore.Type)
}
