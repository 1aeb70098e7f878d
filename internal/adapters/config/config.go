package config

import (
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"sentinel/pkg/errors"
)

type Config struct {
	App           AppConfig
	Data          DataConfig
	Alpaca        AlpacaConfig
	RSS           RSSConfig
	Finnhub       FinnhubConfig
	Classify      ClassifyConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"sentinel"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

// DataConfig locates everything the daemon persists: the pending alert queue,
// the seen-fingerprint cache, the PID file and the daemon log.
type DataConfig struct {
	Dir string `envconfig:"DATA_DIR" default:"data"`
}

func (c DataConfig) AlertDir() string {
	return filepath.Join(c.Dir, "alerts")
}

func (c DataConfig) PendingPath() string {
	return filepath.Join(c.AlertDir(), "pending.json")
}

func (c DataConfig) SeenPath() string {
	return filepath.Join(c.AlertDir(), "seen_ids.json")
}

func (c DataConfig) PIDPath() string {
	return filepath.Join(c.Dir, "sentinel.pid")
}

func (c DataConfig) LogPath() string {
	return filepath.Join(c.Dir, "sentinel.log")
}

type AlpacaConfig struct {
	APIKey    string        `envconfig:"ALPACA_API_KEY"`
	SecretKey string        `envconfig:"ALPACA_SECRET_KEY"`
	StreamURL string        `envconfig:"ALPACA_STREAM_URL" default:"wss://stream.data.alpaca.markets/v1beta1/news"`
	ReadLimit time.Duration `envconfig:"ALPACA_READ_TIMEOUT" default:"30s"`
}

// Enabled reports whether credentials for the stream are configured.
// An unset key pair is a valid degraded configuration, not an error.
func (c AlpacaConfig) Enabled() bool {
	return c.APIKey != "" && c.SecretKey != ""
}

type RSSConfig struct {
	Interval time.Duration `envconfig:"RSS_INTERVAL" default:"60s"`
	// Feeds overrides the built-in feed list; entries are name=url pairs
	Feeds          []string      `envconfig:"RSS_FEEDS"`
	MaxEntries     int           `envconfig:"RSS_MAX_ENTRIES" default:"15"`
	FetchTimeout   time.Duration `envconfig:"RSS_FETCH_TIMEOUT" default:"15s"`
	RequestsPerSec float64       `envconfig:"RSS_REQUESTS_PER_SEC" default:"2"`
}

type FinnhubConfig struct {
	APIKey   string        `envconfig:"FINNHUB_API_KEY"`
	BaseURL  string        `envconfig:"FINNHUB_BASE_URL" default:"https://finnhub.io/api/v1"`
	Interval time.Duration `envconfig:"FINNHUB_INTERVAL" default:"120s"`
	MaxItems int           `envconfig:"FINNHUB_MAX_ITEMS" default:"20"`
}

func (c FinnhubConfig) Enabled() bool {
	return c.APIKey != ""
}

type ClassifyConfig struct {
	Watchlist []string `envconfig:"WATCHLIST" default:"AAPL,MSFT,GOOGL,AMZN,NVDA,META,TSLA"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
