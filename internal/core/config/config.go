package config

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/OnuParts/onu-parts-tracker-render-sub000/internal/notifications"
	"github.com/OnuParts/onu-parts-tracker-render-sub000/pkg/roles"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type ReportsConfig struct {
	CredentialsJSON string `yaml:"credentials_json"`
	CredentialsFile string `yaml:"credentials_file"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	SheetRange      string `yaml:"sheet_range"`
}

type Config struct {
	DatabaseURL    string                   `yaml:"database_url"`
	AppHost        string                   `yaml:"app_host"`
	JWTSecret      string                   `yaml:"jwt_secret"`
	Timezone       string                   `yaml:"timezone"`
	RequestTimeout time.Duration            `yaml:"request_timeout"`
	LoginRate      string                   `yaml:"login_rate"`
	CORSOrigins    []string                 `yaml:"cors_origins"`
	AdminPassword  string                   `yaml:"admin_password"`
	Redis          RedisConfig              `yaml:"redis"`
	SMTP           notifications.SMTPConfig `yaml:"smtp"`
	FlushInterval  time.Duration            `yaml:"notify_flush_interval"`
	Reports        ReportsConfig            `yaml:"reports"`
	Capabilities   map[string][]string      `yaml:"capabilities"`
}

func defaults() Config {
	return Config{
		AppHost:        ":8080",
		Timezone:       "Local",
		RequestTimeout: 30 * time.Second,
		LoginRate:      "10-M",
		CORSOrigins:    []string{"*"},
		FlushInterval:  15 * time.Minute,
		SMTP:           notifications.SMTPConfig{Port: 587},
		Reports:        ReportsConfig{SheetRange: "Summary!A1"},
	}
}

// Load reads .env (without overriding the process environment), then the
// YAML file named by CONFIG_FILE, then environment variables, later sources
// winning.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DATABASE_URL", &c.DatabaseURL)
	str("APP_HOST", &c.AppHost)
	str("JWT_SECRET", &c.JWTSecret)
	str("TIMEZONE", &c.Timezone)
	str("LOGIN_RATE", &c.LoginRate)
	str("ADMIN_PASSWORD", &c.AdminPassword)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	str("SMTP_HOST", &c.SMTP.Host)
	str("SMTP_USERNAME", &c.SMTP.Username)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("SMTP_FROM", &c.SMTP.From)
	str("GOOGLE_SHEETS_CREDENTIALS_JSON", &c.Reports.CredentialsJSON)
	str("GOOGLE_SHEETS_CREDENTIALS_FILE", &c.Reports.CredentialsFile)
	str("REPORT_SPREADSHEET_ID", &c.Reports.SpreadsheetID)
	str("REPORT_SHEET_RANGE", &c.Reports.SheetRange)

	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = splitList(v)
	}

	ints := map[string]*int{"REDIS_DB": &c.Redis.DB, "SMTP_PORT": &c.SMTP.Port}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{"REQUEST_TIMEOUT": &c.RequestTimeout, "NOTIFY_FLUSH_INTERVAL": &c.FlushInterval}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Policy returns the default capability table with the configured overrides applied.
func (c *Config) Policy() (*roles.Policy, error) {
	policy := roles.DefaultPolicy()
	if len(c.Capabilities) == 0 {
		return policy, nil
	}
	raw, err := yaml.Marshal(map[string]interface{}{"capabilities": c.Capabilities})
	if err != nil {
		return nil, err
	}
	if err := policy.LoadOverrides(bytes.NewReader(raw)); err != nil {
		return nil, err
	}
	return policy, nil
}

func (c *Config) SheetsEnabled() bool {
	return c.Reports.SpreadsheetID != "" && (c.Reports.CredentialsJSON != "" || c.Reports.CredentialsFile != "")
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
