package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds and validates the config. path may be empty; otherwise it
// names a YAML file whose ${VAR} references are expanded from the
// environment. Callers load .env first with LoadDotEnv.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env into the process environment when present.
// Variables already set are left alone.
func LoadDotEnv() {
	_ = godotenv.Load()
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), c); err != nil {
		return fmt.Errorf("parse config yaml: %w", err)
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	list := func(key string, dst *[]string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = splitList(v)
		}
	}
	dur := func(key string, dst *time.Duration) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
		return nil
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("MIGRATIONS_PATH", &c.MigrationsPath)
	str("REDIS_URL", &c.RedisURL)
	str("JWT_SECRET", &c.JWTSecret)
	str("QUOTE_BASE_URL", &c.Quote.BaseURL)
	str("QUOTE_API_TOKEN", &c.Quote.APIToken)
	str("KAFKA_TOPIC", &c.Kafka.Topic)
	list("KAFKA_BROKERS", &c.Kafka.Brokers)
	list("CORS_ORIGINS", &c.CORSOrigins)

	for key, dst := range map[string]*time.Duration{
		"SESSION_TTL":            &c.SessionTTL,
		"QUOTE_TIMEOUT":          &c.Quote.Timeout,
		"QUOTE_CACHE_TTL":        &c.Quote.CacheTTL,
		"QUOTE_REFRESH_INTERVAL": &c.Quote.RefreshInterval,
	} {
		if err := dur(key, dst); err != nil {
			return err
		}
	}
	if v, ok := lookup("BCRYPT_COST"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BCRYPT_COST: %w", err)
		}
		c.BcryptCost = n
	}
	if v, ok := lookup("SECURE_COOKIES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("SECURE_COOKIES: %w", err)
		}
		c.SecureCookies = b
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
