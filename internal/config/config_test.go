package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Address)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, dataDir, cfg.Storage.DataDir)
	assert.Equal(t, filepath.Join(dataDir, "medtrack.db"), cfg.Storage.SQLitePath)
	assert.Equal(t, filepath.Join(dataDir, "badger"), cfg.Storage.BadgerPath)
	assert.Equal(t, 60, cfg.Reminders.DefaultDelayMinutes)
	assert.NotEmpty(t, cfg.Security.JWTSecret, "a secret is generated when none is configured")
}

func TestLoad_ConfigFile(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "medtrack.yaml")

	content := `server:
  port: 9191
reminders:
  default_delay_minutes: 30
security:
  jwt_secret: file-secret
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath, dataDir)
	require.NoError(t, err)

	assert.Equal(t, 9191, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Reminders.DefaultDelayMinutes)
	assert.Equal(t, "file-secret", cfg.Security.JWTSecret)
}

func TestLoad_EnvOverrides(t *testing.T) {
	dataDir := t.TempDir()

	os.Setenv("MEDTRACK_SERVER_PORT", "7070")
	os.Setenv("MEDTRACK_SECURITY_JWT_SECRET", "env-secret")
	os.Setenv("MEDTRACK_NOTIFICATIONS_TELEGRAM_CHAT_IDS", "12345, 67890")
	defer func() {
		os.Unsetenv("MEDTRACK_SERVER_PORT")
		os.Unsetenv("MEDTRACK_SECURITY_JWT_SECRET")
		os.Unsetenv("MEDTRACK_NOTIFICATIONS_TELEGRAM_CHAT_IDS")
	}()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "env-secret", cfg.Security.JWTSecret)
	assert.Equal(t, []int64{12345, 67890}, cfg.Notifications.Telegram.ChatIDs)
}

func TestLoad_EnvAliases(t *testing.T) {
	dataDir := t.TempDir()

	os.Unsetenv("MEDTRACK_SECURITY_JWT_SECRET")
	os.Unsetenv("MEDTRACK_NOTIFICATIONS_TELEGRAM_BOT_TOKEN")
	os.Setenv("MEDTRACK_JWT_SECRET", "alias-secret")
	os.Setenv("TELEGRAM_BOT_TOKEN", "123:alias-token")
	defer func() {
		os.Unsetenv("MEDTRACK_JWT_SECRET")
		os.Unsetenv("TELEGRAM_BOT_TOKEN")
	}()

	cfg, err := Load("", dataDir)
	require.NoError(t, err)

	assert.Equal(t, "alias-secret", cfg.Security.JWTSecret)
	assert.Equal(t, "123:alias-token", cfg.Notifications.Telegram.BotToken)
}

func TestLoad_TelegramEnabledRequiresToken(t *testing.T) {
	dataDir := t.TempDir()
	configPath := filepath.Join(dataDir, "medtrack.yaml")

	content := `notifications:
  telegram:
    enabled: true
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := Load(configPath, dataDir)
	require.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a := generateRandomString(32)
	b := generateRandomString(32)

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
