package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "DB_DRIVER", "NOTIFY_BACKEND", "DEFAULT_TIMER_SECONDS", "DEFAULT_TURN_TIMER_SECONDS", "CORS_ORIGINS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, "local", cfg.NotifyBackend)
	assert.Equal(t, 60, cfg.DefaultTimerSeconds)
	assert.Equal(t, 5, cfg.DefaultTurnTimerSeconds)
	assert.Equal(t, []string{"*"}, cfg.CORSOrigins)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DEFAULT_TIMER_SECONDS", "90")
	t.Setenv("DEFAULT_TURN_TIMER_SECONDS", "not-a-number")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg := Load()
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 90, cfg.DefaultTimerSeconds)
	assert.Equal(t, 5, cfg.DefaultTurnTimerSeconds)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins)
}

func TestLoadDotEnv(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("NAMINGTHINGS_TEST_KEY=from-file\n"), 0o600))
	t.Setenv("NAMINGTHINGS_TEST_KEY", "")
	os.Unsetenv("NAMINGTHINGS_TEST_KEY")

	require.NoError(t, LoadDotEnv(path))
	assert.Equal(t, "from-file", os.Getenv("NAMINGTHINGS_TEST_KEY"))
}

func TestInitDBSQLite(t *testing.T) {
	cfg := &Config{DBDriver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "test.db")}

	db, err := InitDB(cfg)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	defer sqlDB.Close()
	assert.NoError(t, sqlDB.Ping())

	_, err = InitDB(&Config{DBDriver: "oracle"})
	assert.Error(t, err)
}

func TestPostgresURL(t *testing.T) {
	cfg := &Config{DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "5432", DBName: "d"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PostgresURL())
}
