package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all configuration for the medtrack daemon
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Security      SecurityConfig      `mapstructure:"security"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
	Reminders     RemindersConfig     `mapstructure:"reminders"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Address      string `mapstructure:"address"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`
	WriteTimeout int    `mapstructure:"write_timeout"`
}

// StorageConfig holds database settings
type StorageConfig struct {
	DataDir    string `mapstructure:"data_dir"`
	SQLitePath string `mapstructure:"sqlite_path"`
	BadgerPath string `mapstructure:"badger_path"`
}

// SecurityConfig holds security settings
type SecurityConfig struct {
	JWTSecret    string   `mapstructure:"jwt_secret"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// NotificationsConfig holds reminder delivery settings
type NotificationsConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// TelegramConfig holds Telegram delivery settings
type TelegramConfig struct {
	Enabled  bool    `mapstructure:"enabled"`
	BotToken string  `mapstructure:"bot_token"`
	ChatIDs  []int64 `mapstructure:"chat_ids"`
}

// RemindersConfig holds schedule behavior settings
type RemindersConfig struct {
	DefaultDelayMinutes int `mapstructure:"default_delay_minutes"`
}

// Load loads configuration from file, env, and defaults
func Load(configPath, dataDir string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if dataDir == "" {
		dataDir = getDefaultDataDir()
	}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	v.Set("storage.data_dir", dataDir)
	v.Set("storage.sqlite_path", filepath.Join(dataDir, "medtrack.db"))
	v.Set("storage.badger_path", filepath.Join(dataDir, "badger"))

	if configPath == "" {
		configPath = filepath.Join(dataDir, "medtrack.yaml")
	}

	if _, err := os.Stat(configPath); err == nil {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	// Environment variables (MEDTRACK_SERVER_PORT, MEDTRACK_SECURITY_JWT_SECRET, etc.)
	v.SetEnvPrefix("MEDTRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	loadEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.address", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)

	// Security defaults
	v.SetDefault("security.allow_origins", []string{"*"})

	// Reminder defaults
	v.SetDefault("reminders.default_delay_minutes", 60)
}

func getDefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "medtrack")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./data"
	}

	return filepath.Join(home, ".local", "share", "medtrack")
}

// loadEnvOverrides loads specific env vars that Viper doesn't handle well with nested keys
func loadEnvOverrides(cfg *Config) {
	getEnv := func(key, fallback string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		return fallback
	}

	// Server settings
	cfg.Server.Address = getEnv("MEDTRACK_SERVER_ADDRESS", cfg.Server.Address)
	if port := os.Getenv("MEDTRACK_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	// Storage settings
	cfg.Storage.DataDir = getEnv("MEDTRACK_STORAGE_DATA_DIR", cfg.Storage.DataDir)

	// Security settings
	if val := ResolveEnvWithAliases("MEDTRACK_SECURITY_JWT_SECRET"); val != "" {
		cfg.Security.JWTSecret = val
	}

	// Telegram settings
	if val := ResolveEnvWithAliases("MEDTRACK_NOTIFICATIONS_TELEGRAM_BOT_TOKEN"); val != "" {
		cfg.Notifications.Telegram.BotToken = val
	}
	if enabled := os.Getenv("MEDTRACK_NOTIFICATIONS_TELEGRAM_ENABLED"); enabled != "" {
		cfg.Notifications.Telegram.Enabled = enabled == "true" || enabled == "1"
	}
	if chats := os.Getenv("MEDTRACK_NOTIFICATIONS_TELEGRAM_CHAT_IDS"); chats != "" {
		var ids []int64
		for _, part := range strings.Split(chats, ",") {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			cfg.Notifications.Telegram.ChatIDs = ids
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", cfg.Server.Port)
	}

	if cfg.Notifications.Telegram.Enabled && cfg.Notifications.Telegram.BotToken == "" {
		return fmt.Errorf("notifications.telegram.bot_token is required when telegram is enabled")
	}

	if cfg.Reminders.DefaultDelayMinutes <= 0 {
		cfg.Reminders.DefaultDelayMinutes = 60
	}

	// Generate JWT secret if not provided
	if cfg.Security.JWTSecret == "" {
		cfg.Security.JWTSecret = generateRandomString(32)
	}

	return nil
}

func generateRandomString(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n*2)
	}
	return hex.EncodeToString(b)
}
