package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"TickerLens/internal/collector"
)

type ServerConfig struct {
	Host            string        `yaml:"host" default:"0.0.0.0"`
	Port            int           `yaml:"port" default:"8080" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
}

type LogConfig struct {
	Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
	Format string `yaml:"format" default:"console" validate:"oneof=console json"`
}

type DataSourceConfig struct {
	Provider       string        `yaml:"provider" default:"yahoo" validate:"oneof=yahoo twelvedata mock"`
	BaseURL        string        `yaml:"base_url" validate:"omitempty,url"`
	APIKey         string        `yaml:"api_key"`
	Lookback       string        `yaml:"lookback" default:"auto"`
	RequestsPerSec int           `yaml:"requests_per_sec" default:"2" validate:"min=1,max=50"`
	Timeout        time.Duration `yaml:"timeout" default:"15s"`
}

type AnalysisConfig struct {
	DefaultSymbol string `yaml:"default_symbol" default:"AAPL" validate:"required,max=15"`
	DefaultDays   int    `yaml:"default_days" default:"90" validate:"min=30,max=180"`
	PreviewRows   int    `yaml:"preview_rows" default:"10" validate:"min=1,max=180"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" default:"localhost:6379"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db" validate:"min=0"`
	Prefix   string `yaml:"prefix" default:"tickerlens:"`
}

type CacheConfig struct {
	Backend string        `yaml:"backend" default:"memory" validate:"oneof=memory redis none"`
	TTL     time.Duration `yaml:"ttl" default:"15m"`
	Redis   RedisConfig   `yaml:"redis"`
}

type TelegramConfig struct {
	BotToken  string   `yaml:"bot_token"`
	ChatID    string   `yaml:"chat_id"`
	Watchlist []string `yaml:"watchlist"`
}

type ScheduleConfig struct {
	DigestCron     string `yaml:"digest_cron" default:"0 30 16 * * 1-5"`
	CacheSweepCron string `yaml:"cache_sweep_cron" default:"0 */5 * * * *"`
}

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Log        LogConfig        `yaml:"log"`
	DataSource DataSourceConfig `yaml:"data_source"`
	Analysis   AnalysisConfig   `yaml:"analysis"`
	Cache      CacheConfig      `yaml:"cache"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Proxy      string           `yaml:"proxy" validate:"omitempty,url"`
}

// Load reads .env (if present) and the YAML file at path, then applies
// environment variable overrides and defaults. A missing YAML file is not an
// error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		cfg.Telegram.Watchlist = splitList(v)
	}
	if v := os.Getenv("DATA_PROVIDER"); v != "" {
		cfg.DataSource.Provider = v
	}
	if v := os.Getenv("TWELVEDATA_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		cfg.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToUpper(p))
		}
	}
	return out
}

var validate = validator.New()

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks field constraints and the rules that span sections.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := collector.ValidateLookback(c.DataSource.Lookback); err != nil {
		return fmt.Errorf("data_source.lookback: %w", err)
	}
	if c.DataSource.Provider == "twelvedata" && c.DataSource.APIKey == "" {
		return fmt.Errorf("data_source.api_key is required for twelvedata")
	}
	if c.Telegram.BotToken != "" {
		if _, err := c.ChatID(); err != nil {
			return err
		}
	}
	if _, err := cronParser.Parse(c.Schedule.DigestCron); err != nil {
		return fmt.Errorf("schedule.digest_cron: %w", err)
	}
	if _, err := cronParser.Parse(c.Schedule.CacheSweepCron); err != nil {
		return fmt.Errorf("schedule.cache_sweep_cron: %w", err)
	}
	return nil
}

// TelegramEnabled reports whether the bot should start.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != ""
}

// ChatID parses the configured Telegram chat id.
func (c *Config) ChatID() (int64, error) {
	if c.Telegram.ChatID == "" {
		return 0, fmt.Errorf("telegram.chat_id is required when bot_token is set")
	}
	id, err := strconv.ParseInt(c.Telegram.ChatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id must be numeric: %w", err)
	}
	return id, nil
}
