package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	NewRelic NewRelicConfig
	Dispatch DispatchConfig
	Cart     CartConfig
	Wallet   WalletConfig
	Gateway  GatewayConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string
	LicenseKey string
	Enabled    bool
}

// DispatchConfig holds driver dispatch tuning.
type DispatchConfig struct {
	SearchRadiusKm      float64       // candidate radius around the pickup location
	OfferWindow         time.Duration // how long a driver holds an exclusive offer
	OfferPollInterval   time.Duration // how often an open offer is checked for acceptance
	SweepInterval       time.Duration // how often unassigned confirmed orders are retried
	MaxSweeps           int           // failed sweeps before the order is cancelled with refund
	AutoCompleteTimeout time.Duration // delivered orders complete automatically after this
	PaymentTimeout      time.Duration // awaiting-payment orders fail after this without a callback
}

// CartConfig holds cart serialization tuning.
type CartConfig struct {
	LockTTL time.Duration // per-customer lock, sized to outlast the checkout saga
}

// WalletConfig holds wallet ledger configuration.
type WalletConfig struct {
	Currency string
}

// GatewayConfig holds payment gateway configuration.
type GatewayConfig struct {
	BaseURL   string
	ReturnURL string
}

// Load loads configuration from environment variables.
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "spotless"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		NewRelic: NewRelicConfig{
			AppName:    getEnv("NEW_RELIC_APP_NAME", "spotless-fulfillment"),
			LicenseKey: getEnv("NEW_RELIC_LICENSE_KEY", ""),
			Enabled:    getBoolEnv("NEW_RELIC_ENABLED", false),
		},
		Dispatch: DispatchConfig{
			SearchRadiusKm:      getFloatEnv("DISPATCH_RADIUS_KM", 10.0),
			OfferWindow:         getDurationEnv("DISPATCH_OFFER_WINDOW", 30*time.Second),
			OfferPollInterval:   getDurationEnv("DISPATCH_OFFER_POLL_INTERVAL", 1*time.Second),
			SweepInterval:       getDurationEnv("DISPATCH_SWEEP_INTERVAL", 2*time.Minute),
			MaxSweeps:           getIntEnv("DISPATCH_MAX_SWEEPS", 5),
			AutoCompleteTimeout: getDurationEnv("ORDER_AUTO_COMPLETE_TIMEOUT", 24*time.Hour),
			PaymentTimeout:      getDurationEnv("ORDER_PAYMENT_TIMEOUT", 30*time.Minute),
		},
		Cart: CartConfig{
			LockTTL: getDurationEnv("CART_LOCK_TTL", 2*time.Minute),
		},
		Wallet: WalletConfig{
			Currency: getEnv("WALLET_CURRENCY", "EGP"),
		},
		Gateway: GatewayConfig{
			BaseURL:   getEnv("PAYMENT_GATEWAY_URL", "https://gateway.example.com"),
			ReturnURL: getEnv("PAYMENT_RETURN_URL", "https://app.example.com/payments/return"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
