package config

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnv_Defaults(t *testing.T) {
	t.Setenv("TASKDASH_JWT_SECRET", "s3cret")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "local", env.Env)
	assert.Equal(t, "3100", env.HTTPPort)
	assert.Equal(t, "local", env.StorageEnv.Type)
	assert.Equal(t, 24*time.Hour, env.TokenTTL)
	assert.Equal(t, "@every 15m", env.ReminderEnv.Spec)
	assert.Equal(t, []string{"http://localhost:3000"}, env.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, env.SlogLevel())
}

func TestLoadEnv_RequiresSecret(t *testing.T) {
	t.Setenv("TASKDASH_JWT_SECRET", "")
	require.NoError(t, os.Unsetenv("TASKDASH_JWT_SECRET"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestLoadEnv_Overrides(t *testing.T) {
	t.Setenv("TASKDASH_JWT_SECRET", "x")
	t.Setenv("TASKDASH_STORAGE_TYPE", "mongo")
	t.Setenv("TASKDASH_LOG_LEVEL", "warn")
	t.Setenv("TASKDASH_REMINDER_TZ", "Asia/Tokyo")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, "mongo", env.StorageEnv.Type)
	assert.Equal(t, slog.LevelWarn, env.SlogLevel())
	assert.Equal(t, "Asia/Tokyo", env.ReminderEnv.Location().String())
}

func TestReminderEnv_BadZoneFallsBackToUTC(t *testing.T) {
	e := &ReminderEnv{TZ: "Nowhere/Else"}
	assert.Equal(t, time.UTC, e.Location())
}
