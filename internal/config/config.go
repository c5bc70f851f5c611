package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		Name      string `envconfig:"APP_NAME" default:"Tillsync"`
		Port      int    `envconfig:"PORT" default:"8080"`
		LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
		LogFormat string `envconfig:"LOG_FORMAT" default:"text"`
		LogFile   string `envconfig:"LOG_FILE"`
	}

	DB struct {
		// Store selects the record store backend: "postgres" or "memory".
		Store    string `envconfig:"STORE" default:"postgres"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"tillsync"`
	}

	Server struct {
		Timeout          time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		CORSOrigins      []string      `envconfig:"CORS_ORIGINS"`
		ReportsPullLimit int           `envconfig:"REPORTS_PULL_LIMIT" default:"100"`
	}

	Auth struct {
		Secret   string        `envconfig:"SYNC_SECRET"`
		TokenTTL time.Duration `envconfig:"TOKEN_TTL" default:"5m"`
	}

	Device struct {
		ID      string `envconfig:"DEVICE_ID"`
		LocalDB string `envconfig:"LOCAL_DB" default:"till.db"`
	}

	Sync struct {
		URL            string        `envconfig:"SYNC_URL" default:"http://localhost:8080"`
		Interval       time.Duration `envconfig:"SYNC_INTERVAL" default:"60s"`
		Debounce       time.Duration `envconfig:"SYNC_DEBOUNCE" default:"2s"`
		RequestTimeout time.Duration `envconfig:"SYNC_REQUEST_TIMEOUT" default:"15s"`
		ProbeInterval  time.Duration `envconfig:"SYNC_PROBE_INTERVAL" default:"15s"`
		MaxResponse    int64         `envconfig:"SYNC_MAX_RESPONSE_BYTES" default:"33554432"`

		// Per-cycle push caps; 0 means uncapped.
		Batch struct {
			Categories   int `envconfig:"SYNC_BATCH_CATEGORIES" default:"30"`
			Products     int `envconfig:"SYNC_BATCH_PRODUCTS" default:"30"`
			Transactions int `envconfig:"SYNC_BATCH_TRANSACTIONS" default:"20"`
			Expenses     int `envconfig:"SYNC_BATCH_EXPENSES" default:"30"`
			Reports      int `envconfig:"SYNC_BATCH_REPORTS" default:"10"`
		}
	}
}

func (c *Config) ConnectionString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name)
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
