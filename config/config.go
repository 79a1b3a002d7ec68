package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the sitechat service
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Worker   WorkerConfig   `mapstructure:"worker"`
	Scrape   ScrapeConfig   `mapstructure:"scrape"`
	Chat     ChatConfig     `mapstructure:"chat"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
	Listen   string `mapstructure:"listen"`
}

// WorkerConfig describes how the external extraction worker is launched.
// The worker is an opaque process: it receives one JSON document as its sole
// argument and emits one JSON object somewhere on stdout.
type WorkerConfig struct {
	Python        string        `mapstructure:"python"`
	ScraperScript string        `mapstructure:"scraper_script"`
	ChatScript    string        `mapstructure:"chat_script"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func (w WorkerConfig) Validate() error {
	if strings.TrimSpace(w.ScraperScript) == "" {
		return fmt.Errorf("worker.scraper_script is required")
	}
	if strings.TrimSpace(w.ChatScript) == "" {
		return fmt.Errorf("worker.chat_script is required")
	}
	if w.Timeout <= 0 {
		return fmt.Errorf("worker.timeout must be > 0")
	}
	return nil
}

// ScrapeConfig contains fetch-orchestrator settings
type ScrapeConfig struct {
	BatchTimeout time.Duration `mapstructure:"batch_timeout"`
}

func (s ScrapeConfig) Validate() error {
	if s.BatchTimeout <= 0 {
		return fmt.Errorf("scrape.batch_timeout must be > 0")
	}
	return nil
}

// ChatConfig contains query-dispatcher settings
type ChatConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// TelegramConfig contains bot-surface settings
type TelegramConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	LongPollTimeout time.Duration `mapstructure:"long_poll_timeout"`
}

// StorageConfig contains storage and persistence settings
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a postgres connection string from the configured parts.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	port := p.Port
	if port == "" {
		port = "5432"
	}
	ssl := p.SSLMode
	if ssl == "" {
		ssl = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", p.User, p.Password, p.Host, port, p.DBName, ssl)
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json") // REQUIRED if the config file does not have the extension in the name
	viper.SetDefault("general.listen", ":5000")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("worker.python", "python3")
	viper.SetDefault("worker.timeout", "120s")
	viper.SetDefault("scrape.batch_timeout", "5m")
	viper.SetDefault("chat.timeout", "60s")
	viper.SetDefault("telegram.enabled", true)
	viper.SetDefault("telegram.long_poll_timeout", "30s")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)
		viper.AddConfigPath(filepath.Join(exeDir, ".."))
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("SITECHAT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match (SITECHAT_*)

	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Worker.Validate(); err != nil {
		panic(err)
	}
	if err := config.Scrape.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Postgres.Validate(); err != nil {
		panic(err)
	}
	return &config
}
