// Package config loads service settings from FRIDGLY_* environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const prefix = "FRIDGLY_"

const (
	StoreSQLite    = "sqlite"
	StoreFirestore = "firestore"

	AuthFirebase = "firebase"
	AuthDev      = "dev"

	PushLog = "log"
	PushFCM = "fcm"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	Store  string
	DBPath string

	Auth          string
	DevAuthSecret string

	FirebaseProject     string
	FirebaseCredentials string

	RedisURL   string
	SessionTTL time.Duration

	Push          string
	AlertInterval time.Duration

	AllowedOrigins []string
	TrustProxy     bool

	Backup BackupConfig
}

// BackupConfig configures SQLite snapshots to S3-compatible storage.
// Snapshots are off unless a bucket is named.
type BackupConfig struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Prefix     string
	Passphrase string
	Interval   time.Duration
	Retain     int
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("load .env", "error", err)
	}

	cfg := Config{
		Port:                get("PORT", "8080"),
		LogLevel:            get("LOG_LEVEL", "info"),
		LogFormat:           get("LOG_FORMAT", "text"),
		Store:               strings.ToLower(get("STORE", StoreSQLite)),
		DBPath:              get("DB_PATH", "fridgly.db"),
		Auth:                strings.ToLower(get("AUTH", AuthFirebase)),
		DevAuthSecret:       get("DEV_AUTH_SECRET", ""),
		FirebaseProject:     get("FIREBASE_PROJECT", ""),
		FirebaseCredentials: get("FIREBASE_CREDENTIALS", ""),
		RedisURL:            get("REDIS_URL", ""),
		Push:                strings.ToLower(get("PUSH", PushLog)),
		AllowedOrigins:      list(get("ALLOWED_ORIGINS", "")),
		Backup: BackupConfig{
			Endpoint:   get("BACKUP_ENDPOINT", ""),
			Bucket:     get("BACKUP_BUCKET", ""),
			Region:     get("BACKUP_REGION", "auto"),
			AccessKey:  get("BACKUP_ACCESS_KEY", ""),
			SecretKey:  get("BACKUP_SECRET_KEY", ""),
			Prefix:     get("BACKUP_PREFIX", ""),
			Passphrase: get("BACKUP_PASSPHRASE", ""),
		},
	}

	var err error
	if cfg.SessionTTL, err = duration("SESSION_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.AlertInterval, err = duration("ALERT_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = boolean("TRUST_PROXY", false); err != nil {
		return Config{}, err
	}
	if cfg.Backup.Interval, err = duration("BACKUP_INTERVAL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.Backup.Retain, err = integer("BACKUP_RETAIN", 14); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// UsesFirebase reports whether any component needs a Firebase app.
func (c Config) UsesFirebase() bool {
	return c.Store == StoreFirestore || c.Auth == AuthFirebase || c.Push == PushFCM
}

func (c Config) validate() error {
	var errs []error
	switch c.Store {
	case StoreSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New(prefix+"DB_PATH is required for the sqlite store"))
		}
	case StoreFirestore:
	default:
		errs = append(errs, fmt.Errorf(prefix+"STORE: unknown store %q", c.Store))
	}

	switch c.Auth {
	case AuthFirebase:
	case AuthDev:
		if len(c.DevAuthSecret) < 16 {
			errs = append(errs, errors.New(prefix+"DEV_AUTH_SECRET must be at least 16 characters"))
		}
	default:
		errs = append(errs, fmt.Errorf(prefix+"AUTH: unknown verifier %q", c.Auth))
	}

	switch c.Push {
	case PushLog, PushFCM:
	default:
		errs = append(errs, fmt.Errorf(prefix+"PUSH: unknown notifier %q", c.Push))
	}

	if c.UsesFirebase() && c.FirebaseProject == "" {
		errs = append(errs, errors.New(prefix+"FIREBASE_PROJECT is required when Firebase is in use"))
	}
	if c.AlertInterval <= 0 {
		errs = append(errs, errors.New(prefix+"ALERT_INTERVAL must be positive"))
	}
	if b := c.Backup; b.Bucket != "" {
		if c.Store != StoreSQLite {
			errs = append(errs, errors.New(prefix+"BACKUP_BUCKET only applies to the sqlite store"))
		}
		if b.AccessKey == "" || b.SecretKey == "" {
			errs = append(errs, errors.New(prefix+"BACKUP_ACCESS_KEY and BACKUP_SECRET_KEY are required with BACKUP_BUCKET"))
		}
		if len(b.Passphrase) < 12 {
			errs = append(errs, errors.New(prefix+"BACKUP_PASSPHRASE must be at least 12 characters"))
		}
		if b.Interval <= 0 {
			errs = append(errs, errors.New(prefix+"BACKUP_INTERVAL must be positive"))
		}
	}
	return errors.Join(errs...)
}

func get(key, fallback string) string {
	if v, ok := os.LookupEnv(prefix + key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return fallback
}

func duration(key string, fallback time.Duration) (time.Duration, error) {
	v := get(key, "")
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", prefix, key, err)
	}
	return d, nil
}

func integer(key string, fallback int) (int, error) {
	v := get(key, "")
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s%s: %w", prefix, key, err)
	}
	return n, nil
}

func boolean(key string, fallback bool) (bool, error) {
	v := get(key, "")
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", prefix, key, err)
	}
	return b, nil
}

func list(v string) []string {
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
