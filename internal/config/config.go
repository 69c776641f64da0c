package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`
	Quiz struct {
		CacheTTL string `yaml:"cache_ttl"`
	} `yaml:"quiz"`
	Ledger struct {
		URL          string `yaml:"url"`
		AdminEmail   string `yaml:"admin_email"`
		PlatformCode string `yaml:"platform_code"`
		PlatformKey  string `yaml:"platform_key"`
		Timeout      string `yaml:"timeout"`
	} `yaml:"ledger"`
	Identity struct {
		DevicePepper string `yaml:"device_pepper"`
		EmailPepper  string `yaml:"email_pepper"`
	} `yaml:"identity"`
	Rewards struct {
		Coins        int    `yaml:"coins"`
		XP           int    `yaml:"xp"`
		PerfectBonus int    `yaml:"perfect_bonus"`
		MaxRetries   int    `yaml:"max_retries"`
		RetryBackoff string `yaml:"retry_backoff"`
	} `yaml:"rewards"`
}

// Load reads YAML config from path; secrets may be supplied or overridden
// through the environment so they stay out of checked-in config files.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	return cfg, nil
}

// LoadOrDefault behaves like Load but tolerates a missing file, so the
// service can run from environment variables alone.
func LoadOrDefault(path string) Config {
	cfg, err := Load(path)
	if err != nil {
		cfg = Config{}
		applyEnv(&cfg)
		applyDefaults(&cfg)
	}
	return cfg
}

func applyEnv(cfg *Config) {
	setIfPresent(&cfg.Server.Port, "PORT")
	setIfPresent(&cfg.Postgres.URL, "POSTGRES_URL")
	setIfPresent(&cfg.Redis.Addr, "REDIS_ADDR")
	setIfPresent(&cfg.Redis.Password, "REDIS_PASSWORD")
	setIfPresent(&cfg.Ledger.URL, "CENTRAL_API_URL")
	setIfPresent(&cfg.Ledger.AdminEmail, "CENTRAL_ADMIN_EMAIL")
	setIfPresent(&cfg.Ledger.PlatformKey, "CENTRAL_PLATFORM_KEY")
	setIfPresent(&cfg.Identity.DevicePepper, "DEVICE_ID_PEPPER")
	setIfPresent(&cfg.Identity.EmailPepper, "EMAIL_PEPPER")
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Ledger.PlatformCode == "" {
		cfg.Ledger.PlatformCode = "QUIZ"
	}
	if cfg.Rewards.Coins == 0 {
		cfg.Rewards.Coins = 100
	}
	if cfg.Rewards.XP == 0 {
		cfg.Rewards.XP = 50
	}
	if cfg.Rewards.PerfectBonus == 0 {
		cfg.Rewards.PerfectBonus = 2
	}
	if cfg.Rewards.MaxRetries == 0 {
		cfg.Rewards.MaxRetries = 5
	}
}

func setIfPresent(target *string, key string) {
	if v := os.Getenv(key); v != "" {
		*target = v
	}
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
