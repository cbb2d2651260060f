package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DB          DBConfig
	Redis       RedisConfig
	Custody     CustodyConfig
	DepositInfo DepositInfoConfig
	Assets      AssetsConfig
	Server      ServerConfig
	Log         LogConfig
	Tracing     TracingConfig
}

type DBConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	// URL of the redis event backend; empty selects the in-process queue.
	URL string
}

type CustodyConfig struct {
	Enabled bool
	BaseURL string
	Timeout time.Duration
}

type DepositInfoConfig struct {
	// Generator is "none" (caller supplies memo and destination) or "self"
	// (engine derives them from the distribution account).
	Generator           string
	DistributionAccount string
}

type AssetsConfig struct {
	File string
}

type ServerConfig struct {
	HealthPort int
}

type LogConfig struct {
	Level string
}

type TracingConfig struct {
	OTLPEndpoint string
	Insecure     bool
}

func Load() (*Config, error) {
	cfg := &Config{
		DB: DBConfig{
			URL:             getEnv("DB_URL", ""),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},
		Custody: CustodyConfig{
			Enabled: getEnvBool("CUSTODY_ENABLED", false),
			BaseURL: getEnv("CUSTODY_BASE_URL", ""),
			Timeout: time.Duration(getEnvInt("CUSTODY_TIMEOUT_SEC", 30)) * time.Second,
		},
		DepositInfo: DepositInfoConfig{
			Generator:           getEnv("DEPOSIT_INFO_GENERATOR", "none"),
			DistributionAccount: getEnv("DISTRIBUTION_ACCOUNT", ""),
		},
		Assets: AssetsConfig{
			File: getEnv("ASSETS_FILE", "config/assets.yaml"),
		},
		Server: ServerConfig{
			HealthPort: getEnvInt("HEALTH_PORT", 8080),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Tracing: TracingConfig{
			OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:     getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Custody.Enabled && c.Custody.BaseURL == "" {
		return fmt.Errorf("CUSTODY_BASE_URL is required when CUSTODY_ENABLED is set")
	}
	switch c.DepositInfo.Generator {
	case "none":
	case "self":
		if c.DepositInfo.DistributionAccount == "" {
			return fmt.Errorf("DISTRIBUTION_ACCOUNT is required for the self deposit info generator")
		}
	default:
		return fmt.Errorf("DEPOSIT_INFO_GENERATOR must be none or self, got %q", c.DepositInfo.Generator)
	}
	if c.Assets.File == "" {
		return fmt.Errorf("ASSETS_FILE is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
