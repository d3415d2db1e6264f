package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	devenv "madischedule-backend/dev/env"
	"madischedule-backend/internal/components/db"
	"madischedule-backend/internal/components/telemetry"
	"madischedule-backend/internal/notify"
	"madischedule-backend/internal/scrapers/madi"
	"madischedule-backend/pkg/configutil"

	"github.com/joho/godotenv"
)

const (
	EnvConfigPath = "SCHEDULE_CONFIG"
	EnvPort       = "PORT"

	DefaultConfigPath = "config.json5"
	DefaultSchedule   = "0 3 * * 1"
	DefaultStoreDir   = "static"
	DefaultDatabase   = "schedule_runs.db"
	DefaultPort       = 8000
)

const (
	BrowserChrome = "chrome"
	BrowserHttp   = "http"
)

type ScraperConfig struct {
	Url         string `json:"url" validate:"required,url"`
	Placeholder string `json:"placeholder"`
	Browser     string `json:"browser" validate:"oneof=chrome http"`
	ChromePath  string `json:"chrome_path"`
	Classifier  string `json:"classifier" validate:"oneof=balanced marker"`
	// MaxGroups caps the groups scraped per run, 0 means every group.
	MaxGroups         *int    `json:"max_groups" validate:"omitnil,gte=0"`
	SelectTimeout     string  `json:"select_timeout"`
	SettleDelay       string  `json:"settle_delay"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gte=0"`
	// HttpDumpDir enables transcripts of the http browser's exchanges.
	HttpDumpDir string `json:"http_dump_dir"`
	// Schedule is the cron spec of the recurring scrape, in Europe/Moscow.
	Schedule   string `json:"schedule" validate:"required"`
	RunOnStart *bool  `json:"run_on_start"`
}

type StoreConfig struct {
	Dir string `json:"dir" validate:"required"`
}

type ApiConfig struct {
	Host string `json:"host"`
	Port int    `json:"port" validate:"gt=0,lte=65535"`
}

type Config struct {
	Scraper  ScraperConfig     `json:"scraper"`
	Store    StoreConfig       `json:"store"`
	Database db.Config         `json:"database"`
	Api      ApiConfig         `json:"api"`
	Smtp     notify.SmtpConfig `json:"smtp"`
}

func intPtr(v int) *int {
	return &v
}

func boolPtr(v bool) *bool {
	return &v
}

func (c *Config) applyDefaults() {
	if c.Scraper.Url == "" {
		c.Scraper.Url = madi.DefaultUrl
	}
	if c.Scraper.Placeholder == "" {
		c.Scraper.Placeholder = madi.DefaultPlaceholder
	}
	if c.Scraper.Browser == "" {
		c.Scraper.Browser = BrowserChrome
	}
	if c.Scraper.Classifier == "" {
		c.Scraper.Classifier = madi.ClassifierBalanced
	}
	if c.Scraper.MaxGroups == nil {
		c.Scraper.MaxGroups = intPtr(madi.DefaultMaxGroups)
	}
	if c.Scraper.SelectTimeout == "" {
		c.Scraper.SelectTimeout = madi.DefaultSelectTimeout.String()
	}
	if c.Scraper.SettleDelay == "" {
		c.Scraper.SettleDelay = madi.DefaultSettleDelay.String()
	}
	if c.Scraper.Schedule == "" {
		c.Scraper.Schedule = DefaultSchedule
	}
	if c.Scraper.RunOnStart == nil {
		c.Scraper.RunOnStart = boolPtr(true)
	}
	if c.Store.Dir == "" {
		c.Store.Dir = DefaultStoreDir
	}
	if c.Database.File == "" && c.Database.Url == "" {
		c.Database.File = DefaultDatabase
	}
	if c.Api.Port == 0 {
		c.Api.Port = DefaultPort
	}
}

// Validate checks the loaded values. Load runs it, callers that change a
// loaded config afterwards have to run it again.
func (c Config) Validate() error {
	err := configutil.Validate(c)
	if err != nil {
		return err
	}
	_, err = time.ParseDuration(c.Scraper.SelectTimeout)
	if err != nil {
		return fmt.Errorf("invalid config: select_timeout: %w", err)
	}
	_, err = time.ParseDuration(c.Scraper.SettleDelay)
	if err != nil {
		return fmt.Errorf("invalid config: settle_delay: %w", err)
	}
	return nil
}

// LoadEnv loads a .env file in the cwd into the environment when there is
// one.
func LoadEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Load reads the config at path (merged with its .local override), falling
// back to defaults when neither exists. SCHEDULE_CONFIG replaces path and
// PORT replaces the api port.
func Load(path string) (Config, error) {
	if env := os.Getenv(EnvConfigPath); env != "" {
		path = env
	}
	if path == "" {
		path = DefaultConfigPath
	}

	cfg, err := configutil.ReadConfig[Config](path)
	if os.IsNotExist(err) {
		slog.Warn("no config file found, using defaults", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if env := os.Getenv(EnvPort); env != "" {
		port, err := strconv.Atoi(env)
		if err != nil {
			return Config{}, fmt.Errorf("%s: %w", EnvPort, err)
		}
		cfg.Api.Port = port
	}

	cfg.applyDefaults()
	err = cfg.Validate()
	if err != nil {
		return Config{}, err
	}

	cfg.Store.Dir, err = devenv.ResolvePath(cfg.Store.Dir)
	if err != nil {
		return Config{}, err
	}
	if cfg.Scraper.HttpDumpDir != "" {
		cfg.Scraper.HttpDumpDir, err = devenv.ResolvePath(cfg.Scraper.HttpDumpDir)
		if err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// Options converts the scraper config into run options, it expects a
// validated config.
func (c ScraperConfig) Options() madi.Options {
	selectTimeout, _ := time.ParseDuration(c.SelectTimeout)
	settleDelay, _ := time.ParseDuration(c.SettleDelay)
	maxGroups := madi.DefaultMaxGroups
	if c.MaxGroups != nil {
		maxGroups = *c.MaxGroups
	}
	return madi.Options{
		Url:           c.Url,
		Placeholder:   c.Placeholder,
		MaxGroups:     maxGroups,
		SelectTimeout: selectTimeout,
		SettleDelay:   settleDelay,
	}.WithDefaults()
}

func (c ScraperConfig) Launcher(tel telemetry.API) madi.Launcher {
	if c.Browser == BrowserHttp {
		return madi.NewHttpLauncher(madi.HttpOptions{
			RequestsPerSecond: c.RequestsPerSecond,
			DumpDir:           c.HttpDumpDir,
		}, tel)
	}
	return madi.NewChromeLauncher(madi.ChromeOptions{
		ExecPath: c.ChromePath,
	}, tel)
}

func (c ScraperConfig) NewClassifier() (madi.Classifier, error) {
	return madi.NewClassifier(c.Classifier)
}
