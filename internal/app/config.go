package app

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds the daemon configuration. Values come from defaults, then the
// YAML config file, then CN_DATA_* environment overrides, in that order.
type Config struct {
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR"`
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"` // debug | info | warn | error

	Gateway GatewayConfig `yaml:"gateway"`

	Indices       []string `yaml:"indices" envconfig:"INDICES"`
	StartDate     string   `yaml:"start_date" envconfig:"START_DATE"`
	IntradayFloor string   `yaml:"intraday_floor" envconfig:"INTRADAY_FLOOR"`
	FundFloorYear int      `yaml:"fundamentals_floor_year" envconfig:"FUND_FLOOR_YEAR"`

	Workers      int `yaml:"workers" envconfig:"WORKERS"`
	CutoffHour   int `yaml:"cutoff_hour" envconfig:"CUTOFF_HOUR"`
	CutoffMinute int `yaml:"cutoff_minute" envconfig:"CUTOFF_MINUTE"`
}

// GatewayConfig locates the data gateway.
type GatewayConfig struct {
	URL      string `yaml:"url" envconfig:"GATEWAY_URL"`
	User     string `yaml:"user" envconfig:"GATEWAY_USER"`
	Password string `yaml:"password" envconfig:"GATEWAY_PASSWORD"`
}

// defaults mirrors the collection parameters of the upstream source: daily
// history reaches back to 2005, 5-minute bars to 2015, fundamentals to 2007,
// and the daily update runs after the 16:30 close settlement.
func defaults() Config {
	return Config{
		DataDir:       "data",
		LogLevel:      "info",
		Indices:       []string{"csi300", "csi500"},
		StartDate:     "2005-01-01",
		IntradayFloor: "2015-01-01",
		FundFloorYear: 2007,
		Workers:       4,
		CutoffHour:    16,
		CutoffMinute:  30,
	}
}

// LoadConfig reads path (if it exists) and applies environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	if err := envconfig.Process("CN_DATA", &cfg); err != nil {
		return nil, fmt.Errorf("applying env overrides: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway.url is required")
	}
	if len(c.Indices) == 0 {
		return fmt.Errorf("at least one index is required")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be >= 1, got %d", c.Workers)
	}
	if c.CutoffHour < 0 || c.CutoffHour > 23 || c.CutoffMinute < 0 || c.CutoffMinute > 59 {
		return fmt.Errorf("bad cutoff %02d:%02d", c.CutoffHour, c.CutoffMinute)
	}
	for _, date := range []string{c.StartDate, c.IntradayFloor} {
		if len(date) != 10 || date[4] != '-' || date[7] != '-' {
			return fmt.Errorf("bad date %q (want YYYY-MM-DD)", date)
		}
	}
	return nil
}
