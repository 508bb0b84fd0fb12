package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Calibre  CalibreConfig  `mapstructure:"calibre"`
	SMTP     SMTPConfig     `mapstructure:"smtp"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Debug    DebugConfig    `mapstructure:"debug"`
}

type TelegramConfig struct {
	BotToken            string `mapstructure:"bot_token"`
	PublicURL           string `mapstructure:"public_url"`
	WebhookSecret       string `mapstructure:"webhook_secret"`
	ListenAddr          string `mapstructure:"listen_addr"`
	EnableAuthorization bool   `mapstructure:"enable_authorization"`
}

type StorageConfig struct {
	// Dir holds the persisted JSON documents. Empty means alongside the
	// running executable.
	Dir string `mapstructure:"dir"`
}

type CalibreConfig struct {
	// HomeDir is where the ebook-meta, ebook-convert and calibre-smtp
	// binaries live. Empty means resolve via PATH.
	HomeDir string `mapstructure:"home_dir"`
}

type SMTPConfig struct {
	// Mode selects how converted books are emailed: "calibre" shells out to
	// calibre-smtp, "direct" talks to the relay itself.
	Mode        string `mapstructure:"mode"`
	RelayServer string `mapstructure:"relay_server"`
	Port        int    `mapstructure:"port"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	FromEmail   string `mapstructure:"from_email"`
	Encryption  string `mapstructure:"encryption"`
}

type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	JSONFormat bool   `mapstructure:"json_format"`
}

type DebugConfig struct {
	KeepConversionWorkDir bool `mapstructure:"keep_conversion_work_dir"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Set defaults. Every key is declared here so environment variables bind
	// even without a config file.
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.public_url", "")
	v.SetDefault("telegram.webhook_secret", "")
	v.SetDefault("telegram.listen_addr", ":8080")
	v.SetDefault("telegram.enable_authorization", true)
	v.SetDefault("storage.dir", "")
	v.SetDefault("calibre.home_dir", "")
	v.SetDefault("smtp.mode", "calibre")
	v.SetDefault("smtp.relay_server", "")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("smtp.username", "")
	v.SetDefault("smtp.password", "")
	v.SetDefault("smtp.from_email", "")
	v.SetDefault("smtp.encryption", "TLS")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.json_format", false)
	v.SetDefault("debug.keep_conversion_work_dir", false)

	// Config file locations
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")
	v.AddConfigPath("/etc/kindler-bot")

	// Environment variables
	v.SetEnvPrefix("KINDLER_BOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Config file not found is OK, use env vars and defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("telegram.bot_token is required")
	}
	if c.Telegram.PublicURL == "" {
		return fmt.Errorf("telegram.public_url is required")
	}
	if c.SMTP.Mode != "calibre" && c.SMTP.Mode != "direct" {
		return fmt.Errorf("smtp.mode must be %q or %q", "calibre", "direct")
	}
	if c.SMTP.RelayServer == "" {
		return fmt.Errorf("smtp.relay_server is required")
	}
	if c.SMTP.FromEmail == "" {
		return fmt.Errorf("smtp.from_email is required")
	}
	return nil
}
