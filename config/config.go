package config

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `json:"app_name"`
	ListenIP   string `json:"listen_ip"`
	ListenPort int    `json:"listen_port"`
	SessionKey string `json:"session_key"`

	// SessionMaxAgeHours is the lifetime of the session cookie.
	SessionMaxAgeHours    int      `json:"session_max_age_hours"`
	SecureCookies         bool     `json:"secure_cookies"`
	BcryptCost            int      `json:"bcrypt_cost"`
	RequestTimeoutSeconds int      `json:"request_timeout_seconds"`
	AllowedOrigins        []string `json:"allowed_origins"`
	CSRFEnabled           bool     `json:"csrf_enabled"`
	LoginMaxAttempts      int      `json:"login_max_attempts"`
	SignupMaxAttempts     int      `json:"signup_max_attempts"`

	// SessionKeyGenerated is set when no key was configured and a random
	// one was used instead. Sessions will not survive a restart.
	SessionKeyGenerated bool `json:"-"`

	Database DatabaseConfig `json:"database"`
	Logging  LoggingConfig  `json:"logging"`
}

type DatabaseConfig struct {
	// DSN is either a SQLite path (optionally prefixed with sqlite:///) or
	// a postgres:// URL.
	DSN                    string `json:"dsn"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `json:"conn_max_lifetime_minutes"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	Encoding  string `json:"encoding"`
	GormLevel string `json:"gorm_level"`
}

const placeholderKey = "CHANGE_ME_IN_PRODUCTION"

var AppConfig Config

// Default returns the configuration used when no config file is present.
func Default() Config {
	return Config{
		AppName:               "MTG Stone",
		ListenIP:              "0.0.0.0",
		ListenPort:            5000,
		SessionMaxAgeHours:    30 * 24,
		RequestTimeoutSeconds: 5,
		AllowedOrigins:        []string{"http://localhost:3000"},
		LoginMaxAttempts:      5,
		SignupMaxAttempts:     5,
		Database: DatabaseConfig{
			DSN:                    "sqlite:///mtg-stone.sqlite",
			MaxOpenConns:           25,
			MaxIdleConns:           10,
			ConnMaxLifetimeMinutes: 60,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Encoding:  "console",
			GormLevel: "warn",
		},
	}
}

// LoadEnvFile reads a .env file into the process environment if one exists.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load(path)
}

// LoadConfig decodes the file at path over the defaults, then applies
// environment overrides.
func LoadConfig(path string) error {
	cfg := Default()

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(&cfg); err != nil {
		return err
	}

	if err := finalize(&cfg); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

// LoadDefaults fills AppConfig from defaults and the environment only.
func LoadDefaults() error {
	cfg := Default()
	if err := finalize(&cfg); err != nil {
		return err
	}
	AppConfig = cfg
	return nil
}

func finalize(cfg *Config) error {
	applyEnv(cfg)

	if cfg.SessionMaxAgeHours <= 0 {
		cfg.SessionMaxAgeHours = Default().SessionMaxAgeHours
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		cfg.RequestTimeoutSeconds = Default().RequestTimeoutSeconds
	}

	if cfg.SessionKey == "" || cfg.SessionKey == placeholderKey {
		randomKey := make([]byte, 32)
		if _, err := rand.Read(randomKey); err != nil {
			return err
		}
		cfg.SessionKey = hex.EncodeToString(randomKey)
		cfg.SessionKeyGenerated = true
	}
	return nil
}

func applyEnv(cfg *Config) {
	if envKey := os.Getenv("MTGSTONE_SESSION_KEY"); envKey != "" {
		cfg.SessionKey = envKey
	} else if envKey := os.Getenv("SECRET_KEY"); envKey != "" {
		cfg.SessionKey = envKey
	}
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		cfg.Database.DSN = dsn
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil && port > 0 {
		cfg.ListenPort = port
	}
	if level := strings.TrimSpace(os.Getenv("LOG_LEVEL")); level != "" {
		cfg.Logging.Level = level
	}
}

func (c Config) SessionMaxAge() time.Duration {
	return time.Duration(c.SessionMaxAgeHours) * time.Hour
}

func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}
