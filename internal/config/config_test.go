package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Telegram: TelegramConfig{
			BotToken:  "123:abc",
			PublicURL: "https://bot.example.com",
		},
		SMTP: SMTPConfig{
			Mode:        "calibre",
			RelayServer: "smtp.example.com",
			FromEmail:   "bot@example.com",
		},
	}
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid calibre mode", func(c *Config) {}, ""},
		{"valid direct mode", func(c *Config) { c.SMTP.Mode = "direct" }, ""},
		{"missing bot token", func(c *Config) { c.Telegram.BotToken = "" }, "telegram.bot_token"},
		{"missing public url", func(c *Config) { c.Telegram.PublicURL = "" }, "telegram.public_url"},
		{"bad smtp mode", func(c *Config) { c.SMTP.Mode = "carrier-pigeon" }, "smtp.mode"},
		{"missing relay", func(c *Config) { c.SMTP.RelayServer = "" }, "smtp.relay_server"},
		{"missing from email", func(c *Config) { c.SMTP.FromEmail = "" }, "smtp.from_email"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(&cfg)

			err := cfg.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
			}
		})
	}
}

func TestLoad_EnvVarsAndDefaults(t *testing.T) {
	t.Setenv("KINDLER_BOT_TELEGRAM_BOT_TOKEN", "123:abc")
	t.Setenv("KINDLER_BOT_TELEGRAM_PUBLIC_URL", "https://bot.example.com")
	t.Setenv("KINDLER_BOT_SMTP_RELAY_SERVER", "smtp.example.com")
	t.Setenv("KINDLER_BOT_SMTP_FROM_EMAIL", "bot@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, ":8080", cfg.Telegram.ListenAddr)
	assert.True(t, cfg.Telegram.EnableAuthorization)
	assert.Equal(t, "calibre", cfg.SMTP.Mode)
	assert.Equal(t, 587, cfg.SMTP.Port)
	assert.Equal(t, "TLS", cfg.SMTP.Encryption)
	assert.Equal(t, "info", cfg.Logging.Level)
}
