package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"StockLens/internal/analytics"
	"StockLens/internal/collector"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr            string        `yaml:"addr"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	DataSource struct {
		Source  string `yaml:"source"` // yahoo, rest or mock
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
		Retries int    `yaml:"retries"`
	} `yaml:"data_source"`
	Analysis analytics.Options `yaml:"analysis"`
	Schedule struct {
		ReportCron   string   `yaml:"report_cron"`
		Watchlist    []string `yaml:"watchlist"`
		LookbackDays int      `yaml:"lookback_days"`
		RunOnStart   bool     `yaml:"run_on_start"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log   LogConfig `yaml:"log"`
	Proxy string    `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{Analysis: analytics.DefaultOptions()}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "read config")
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.Wrap(err, "parse config")
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("DATA_SOURCE"); v != "" {
		c.DataSource.Source = v
	}
	if v := os.Getenv("DATA_SOURCE_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
	}
	if v := os.Getenv("DATA_SOURCE_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CRON_REPORT"); v != "" {
		c.Schedule.ReportCron = v
	}
	if v := os.Getenv("WATCHLIST"); v != "" {
		c.Schedule.Watchlist = nil
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.Schedule.Watchlist = append(c.Schedule.Watchlist, s)
			}
		}
	}
	if v := os.Getenv("RUN_ON_START"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "parse RUN_ON_START %q", v)
		}
		c.Schedule.RunOnStart = b
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 60 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if c.DataSource.Source == "" {
		c.DataSource.Source = "yahoo"
	}
	if c.DataSource.Retries == 0 {
		c.DataSource.Retries = 3
	}
	if c.Schedule.ReportCron == "" {
		c.Schedule.ReportCron = "0 0 22 * * 1-5"
	}
	if c.Schedule.LookbackDays == 0 {
		c.Schedule.LookbackDays = 400
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i, s := range c.Schedule.Watchlist {
		c.Schedule.Watchlist[i] = strings.ToUpper(strings.TrimSpace(s))
	}
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	switch c.DataSource.Source {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return errors.New("data_source.base_url is required for the rest source")
		}
	default:
		return errors.Errorf("data_source.source %q is not one of yahoo, rest, mock", c.DataSource.Source)
	}
	if c.DataSource.Retries < 0 {
		return errors.New("data_source.retries must not be negative")
	}
	if err := c.Analysis.Validate(); err != nil {
		return errors.Wrap(err, "analysis")
	}
	if _, err := CronParser.Parse(c.Schedule.ReportCron); err != nil {
		return errors.Wrapf(err, "schedule.report_cron %q", c.Schedule.ReportCron)
	}
	if c.Schedule.LookbackDays <= 0 {
		return errors.New("schedule.lookback_days must be positive")
	}
	for _, s := range c.Schedule.Watchlist {
		if !collector.ValidSymbol(s) {
			return errors.Errorf("schedule.watchlist: invalid symbol %q", s)
		}
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return errors.New("telegram.chat_id is required when bot_token is set")
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// CronParser accepts six-field specs with a leading seconds field.
var CronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)
