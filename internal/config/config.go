package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"

	"github.com/noah-isme/backend-acara/internal/common"
	"github.com/noah-isme/backend-acara/internal/money"
	"github.com/noah-isme/backend-acara/internal/pricing"
	"github.com/noah-isme/backend-acara/internal/tax"
)

// defaultDeliveryBrackets covers the platform's standard delivery radius.
// Operators override the whole set through DELIVERY_BRACKETS.
const defaultDeliveryBrackets = `[
  {"minMiles":0,"maxMiles":5,"label":"0-5 mi","feeCents":2500},
  {"minMiles":5,"maxMiles":10,"label":"5-10 mi","feeCents":4500},
  {"minMiles":10,"maxMiles":25,"label":"10-25 mi","feeCents":7500}
]`

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string

	// Pricing.
	ServiceFeeBps        int64
	ServiceFeeWaived     bool
	DeliveryBrackets     []pricing.DeliveryBracket
	DeliveryMinimumCents money.Money
	AmountCeilingCents   money.Money

	// Tax.
	TaxMethod        tax.Method
	TaxRateTable     *tax.Table
	TaxServiceURL    string
	TaxServiceAPIKey string

	// Geocoding.
	GeoServiceURL    string
	GeoServiceAPIKey string

	// Settlement.
	DefaultCommissionBps      int64
	PlatformRetainsServiceFee bool

	// Outbound call tuning shared by the tax and geo clients.
	OutboundMaxAttempts int
	OutboundBaseBackoff time.Duration
	OutboundTimeout     time.Duration
	BreakerCooldown     time.Duration

	// Caching.
	CatalogCacheTTL time.Duration
	ReportCacheTTL  time.Duration

	// Observability and traffic shaping.
	MetricsBucketsCSV string
	OTLPEndpoint      string
	QuoteRateLimit    string
}

// Load reads configuration from environment variables and optional .env files.
// Fee brackets and the tax rate table are validated here so a malformed
// deployment fails at startup instead of producing wrong quotes.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		ServiceFeeBps:        parseInt64(k.String("SERVICE_FEE_BPS"), 500),
		ServiceFeeWaived:     parseBool(k.String("SERVICE_FEE_WAIVED")),
		DeliveryMinimumCents: money.Money(parseInt64(k.String("DELIVERY_MINIMUM_CENTS"), 0)),
		AmountCeilingCents:   money.Money(parseInt64(k.String("AMOUNT_CEILING_CENTS"), int64(money.DefaultCeiling))),

		TaxMethod:        tax.Method(valueOrDefault(k.String("TAX_METHOD"), string(tax.MethodRemote))),
		TaxServiceURL:    k.String("TAX_SERVICE_URL"),
		TaxServiceAPIKey: k.String("TAX_SERVICE_API_KEY"),

		GeoServiceURL:    k.String("GEO_SERVICE_URL"),
		GeoServiceAPIKey: k.String("GEO_SERVICE_API_KEY"),

		DefaultCommissionBps:      parseInt64(k.String("DEFAULT_COMMISSION_BPS"), 500),
		PlatformRetainsServiceFee: parseBoolDefault(k.String("PLATFORM_RETAINS_SERVICE_FEE"), true),

		OutboundMaxAttempts: int(parseInt64(k.String("OUTBOUND_MAX_ATTEMPTS"), 3)),
		OutboundBaseBackoff: parseDuration(k.String("OUTBOUND_BASE_BACKOFF"), "100ms"),
		OutboundTimeout:     parseDuration(k.String("OUTBOUND_TIMEOUT"), "5s"),
		BreakerCooldown:     parseDuration(k.String("BREAKER_COOLDOWN"), "30s"),

		CatalogCacheTTL: parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		ReportCacheTTL:  parseDuration(k.String("REPORT_CACHE_TTL"), "10m"),

		MetricsBucketsCSV: k.String("HTTP_METRICS_BUCKETS_MS"),
		OTLPEndpoint:      k.String("OTEL_EXPORTER_OTLP_ENDPOINT"),
		QuoteRateLimit:    valueOrDefault(k.String("QUOTE_RATE_LIMIT"), "120-M"),
	}

	brackets, err := parseBrackets(valueOrDefault(k.String("DELIVERY_BRACKETS"), defaultDeliveryBrackets))
	if err != nil {
		return nil, common.ConfigError(err)
	}
	cfg.DeliveryBrackets = brackets

	table, err := tax.ParseTable([]byte(k.String("TAX_RATE_TABLE")))
	if err != nil {
		return nil, common.ConfigError(err)
	}
	cfg.TaxRateTable = table

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.ServiceFeeBps < 0 || cfg.ServiceFeeBps > 10_000 {
		return nil, common.ConfigError(fmt.Errorf("SERVICE_FEE_BPS out of range: %d", cfg.ServiceFeeBps))
	}
	if cfg.DefaultCommissionBps < 0 || cfg.DefaultCommissionBps > 10_000 {
		return nil, common.ConfigError(fmt.Errorf("DEFAULT_COMMISSION_BPS out of range: %d", cfg.DefaultCommissionBps))
	}
	if cfg.TaxMethod != tax.MethodRemote && cfg.TaxMethod != tax.MethodManual {
		return nil, common.ConfigError(fmt.Errorf("unknown TAX_METHOD %q", cfg.TaxMethod))
	}

	return cfg, nil
}

// FeeConfig assembles the pricing fee configuration.
func (c *Config) FeeConfig() pricing.FeeConfig {
	return pricing.FeeConfig{
		ServiceFeeBps:    c.ServiceFeeBps,
		ServiceFeeWaived: c.ServiceFeeWaived,
		Brackets:         c.DeliveryBrackets,
		DeliveryMinimum:  c.DeliveryMinimumCents,
	}
}

// Guard returns the money guard bound to the configured ceiling.
func (c *Config) Guard() money.Guard {
	return money.Guard{Ceiling: c.AmountCeilingCents}
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func parseBrackets(raw string) ([]pricing.DeliveryBracket, error) {
	brackets, err := pricing.ParseBrackets([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("DELIVERY_BRACKETS: %w", err)
	}
	return brackets, nil
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt64(value string, fallback int64) int64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	n, err := strconv.ParseInt(trimmed, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
