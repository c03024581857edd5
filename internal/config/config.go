package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	APIURL              string        `mapstructure:"UHS_API_URL"`
	Env                 string        `mapstructure:"ENV"`
	Port                string        `mapstructure:"PORT"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	ExportTimeout       time.Duration `mapstructure:"EXPORT_TIMEOUT"`
	IdleTimeout         time.Duration `mapstructure:"IDLE_TIMEOUT"`
	PageSize            int           `mapstructure:"PAGE_SIZE"`
	RefreshInterval     time.Duration `mapstructure:"REFRESH_INTERVAL"`
	SessionFile         string        `mapstructure:"SESSION_FILE"`
	SessionDatabaseURL  string        `mapstructure:"SESSION_DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	CORSOrigins         []string      `mapstructure:"CORS_ORIGINS"`
	CondensedBreakpoint int           `mapstructure:"CONDENSED_BREAKPOINT"`
	SessionCookie       string        `mapstructure:"SESSION_COOKIE"`
}

// PageSizes are the page sizes the list views offer.
var PageSizes = []int{5, 10, 20, 50}

var keys = []string{
	"UHS_API_URL",
	"ENV",
	"PORT",
	"REQUEST_TIMEOUT",
	"EXPORT_TIMEOUT",
	"IDLE_TIMEOUT",
	"PAGE_SIZE",
	"REFRESH_INTERVAL",
	"SESSION_FILE",
	"SESSION_DATABASE_URL",
	"DB_MAX_CONNS",
	"DB_MIN_CONNS",
	"CORS_ORIGINS",
	"CONDENSED_BREAKPOINT",
	"SESSION_COOKIE",
}

func Load() (*Config, error) {
	return LoadFlags(nil, nil)
}

// LoadFlags is Load with command-line flags taking precedence over the
// environment. bindings maps config keys to flag names; unset flags keep the
// environment or default value.
func LoadFlags(fs *pflag.FlagSet, bindings map[string]string) (*Config, error) {
	v := viper.New()
	if fs != nil {
		for key, name := range bindings {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("EXPORT_TIMEOUT", "30s")
	v.SetDefault("IDLE_TIMEOUT", "5m")
	v.SetDefault("PAGE_SIZE", 10)
	v.SetDefault("REFRESH_INTERVAL", "30s")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("CONDENSED_BREAKPOINT", 80)
	v.SetDefault("SESSION_COOKIE", "uhs_session")

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	if cfg.CORSOrigins == nil {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")

	if cfg.APIURL == "" {
		return nil, fmt.Errorf("UHS_API_URL is required")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is usable before any command runs.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("UHS_API_URL must be an absolute http(s) URL, got %q", c.APIURL)
	}
	if c.IsProduction() && u.Scheme != "https" {
		return fmt.Errorf("UHS_API_URL must use https in production")
	}

	for name, d := range map[string]time.Duration{
		"REQUEST_TIMEOUT":  c.RequestTimeout,
		"EXPORT_TIMEOUT":   c.ExportTimeout,
		"IDLE_TIMEOUT":     c.IdleTimeout,
		"REFRESH_INTERVAL": c.RefreshInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", name, d)
		}
	}

	if !validPageSize(c.PageSize) {
		return fmt.Errorf("PAGE_SIZE must be one of %v, got %d", PageSizes, c.PageSize)
	}
	if c.CondensedBreakpoint < 0 {
		return fmt.Errorf("CONDENSED_BREAKPOINT must not be negative")
	}

	if c.SessionDatabaseURL != "" {
		if c.DBMinConns < 0 || c.DBMaxConns < 1 || c.DBMinConns > c.DBMaxConns {
			return fmt.Errorf("DB_MIN_CONNS (%d) and DB_MAX_CONNS (%d) are inconsistent", c.DBMinConns, c.DBMaxConns)
		}
	}
	if c.SessionCookie == "" {
		return fmt.Errorf("SESSION_COOKIE must not be empty")
	}
	return nil
}

func validPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}
