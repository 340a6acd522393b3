package config // package config loads application configuration from environment variables

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Storage backends for layouts and reservations.
const (
	BackendMySQL    = "mysql"
	BackendFirebase = "firebase"
	BackendMemory   = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // application environment (dev, test, prod)
	Port           string // HTTP port to listen on
	LogLevel       string // zap level: debug, info, warn, error
	DBUser         string // database username
	DBPass         string // database password (optional)
	DBHost         string // database host address
	DBPort         string // database port number
	DBName         string // database name
	JWTSecret      string // secret used to sign JWTs
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	StoreBackend        string // mysql | firebase | memory
	FirebaseURL         string // Realtime Database URL
	FirebaseCredentials string // service account JSON path, empty for default credentials
	RabbitURL           string // AMQP broker; empty disables reservation events

	Layout  LayoutConfig
	Sync    SyncConfig
	Session SessionConfig
}

// Load reads configuration values from environment variables.  Every missing
// or malformed required variable is reported in the returned error.
func Load() (Config, error) {
	var errs []error
	must := func(key string) string {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			errs = append(errs, fmt.Errorf("missing required env var: %s", key))
		}
		return v
	}
	mustInt := func(key string) int {
		s := must(key)
		if s == "" {
			return 0
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid int for %s: %q", key, s))
		}
		return n
	}

	cfg := Config{
		Env:            must("APP_ENV"),
		Port:           must("APP_PORT"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		DBUser:         must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         must("DB_HOST"),
		DBPort:         must("DB_PORT"),
		DBName:         must("DB_NAME"),
		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: mustInt("REFRESH_TOKEN_TTL_DAYS"),
		BcryptCost:     mustInt("BCRYPT_COST"),

		StoreBackend:        strings.ToLower(envStr("STORE_BACKEND", BackendMySQL)),
		FirebaseURL:         os.Getenv("FIREBASE_DATABASE_URL"),
		FirebaseCredentials: os.Getenv("FIREBASE_CREDENTIALS_FILE"),
		RabbitURL:           envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),

		Layout:  LoadLayoutConfig(),
		Sync:    LoadSyncConfig(),
		Session: LoadSessionConfig(),
	}

	switch cfg.StoreBackend {
	case BackendMySQL, BackendMemory:
	case BackendFirebase:
		if cfg.FirebaseURL == "" {
			errs = append(errs, errors.New("missing required env var: FIREBASE_DATABASE_URL"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid STORE_BACKEND %q", cfg.StoreBackend))
	}
	if err := cfg.Layout.Validate(); err != nil {
		errs = append(errs, err)
	}
	return cfg, errors.Join(errs...)
}
