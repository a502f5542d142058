package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klabast/wb-services/residency-counter/internal/store"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"RC_PORT", "RC_DEBUG", "RC_WATCH", "AUTH_FILE", "RC_STORAGE_DRIVER", "RC_DATA_DIR", "RC_DB_PATH"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.Watch)
	assert.False(t, cfg.Debug)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.NotEmpty(t, cfg.Storage.DataDir)
}

func TestLoadConfig_YAMLAndEnv(t *testing.T) {
	clearConfigEnv(t)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yamlDoc := `port: 9090
debug: true
watch: false
storage:
  driver: sqlite
  db_path: /tmp/trips.db
`
	require.NoError(t, os.WriteFile(path, []byte(yamlDoc), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.False(t, cfg.Watch)
	assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "/tmp/trips.db", cfg.Storage.DBPath)

	t.Setenv("RC_PORT", "7070")
	t.Setenv("RC_STORAGE_DRIVER", "file")
	t.Setenv("RC_DATA_DIR", dir)
	t.Setenv("AUTH_FILE", filepath.Join(dir, "auth.secret"))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, DriverFile, cfg.Storage.Driver)
	assert.Equal(t, dir, cfg.Storage.DataDir)

	authFile, err := cfg.ResolveAuthFile()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "auth.secret"), authFile)
}

func TestLoadConfig_InvalidEnvIgnored(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("RC_PORT", "not-a-port")
	t.Setenv("RC_WATCH", "maybe")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.True(t, cfg.Watch)
}

func TestLoadConfig_Errors(t *testing.T) {
	clearConfigEnv(t)

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("port: [1, 2"), 0644))
	_, err = LoadConfig(bad)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Port = 70000 }, true},
		{"unknown driver", func(c *Config) { c.Storage.Driver = "postgres" }, true},
		{"file without dir", func(c *Config) { c.Storage.DataDir = "" }, true},
		{"sqlite without path", func(c *Config) {
			c.Storage.Driver = DriverSQLite
			c.Storage.DBPath = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()

	cfg := DefaultConfig()
	cfg.Storage.DataDir = dir
	b, err := cfg.OpenBackend()
	require.NoError(t, err)
	_, ok := b.(*store.FileBackend)
	assert.True(t, ok)
	require.NoError(t, b.Close())

	cfg.Storage.Driver = DriverSQLite
	cfg.Storage.DBPath = filepath.Join(dir, "residency.db")
	b, err = cfg.OpenBackend()
	require.NoError(t, err)
	_, ok = b.(*store.SQLiteBackend)
	assert.True(t, ok)
	require.NoError(t, b.Close())
}
