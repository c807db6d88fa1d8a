package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/kelseyhightower/envconfig"
)

// InsecureDefaultSecret is the signing passphrase used when JWT_SECRET is not
// set. It is rejected when APP_ENV is production.
const InsecureDefaultSecret = "default-insecure-secret-do-not-use-in-prod"

const (
	HasherBcrypt   = "bcrypt"
	HasherArgon2id = "argon2id"

	AccessDefaultPublic        = "public"
	AccessDefaultAuthenticated = "authenticated"

	PolicyEngineTable = "table"
	PolicyEngineRego  = "rego"

	EnvProduction = "production"
)

type Config struct {
	HTTPAddr string `envconfig:"HTTP_ADDR" default:":8080"`
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogJSON  bool   `envconfig:"LOG_JSON" default:"false"`

	// TrustedProxies lists the addresses or CIDRs whose X-Forwarded-For
	// header is believed. Empty trusts no proxy; the peer address is used.
	TrustedProxies []string `envconfig:"TRUSTED_PROXIES"`

	PostgresDSN             string `envconfig:"POSTGRES_DSN"`
	SQLitePath              string `envconfig:"SQLITE_PATH" default:"file::memory:?cache=shared"`
	DBConnectMaxWaitSeconds int    `envconfig:"DB_CONNECT_MAX_WAIT_SECONDS" default:"30"`

	JWTSecret       string `envconfig:"JWT_SECRET" default:"default-insecure-secret-do-not-use-in-prod"`
	JWTExpirationMs int64  `envconfig:"JWT_EXPIRATION_MS" default:"3600000"`
	JWTIssuer       string `envconfig:"JWT_ISSUER" default:"event-booking"`

	PasswordHasher string `envconfig:"PASSWORD_HASHER" default:"bcrypt"`
	BcryptCost     int    `envconfig:"BCRYPT_COST" default:"10"`
	HashingPermits int    `envconfig:"HASHING_PERMITS" default:"4"`

	AccessDefault string `envconfig:"ACCESS_DEFAULT" default:"public"`
	PolicyEngine  string `envconfig:"POLICY_ENGINE" default:"table"`

	LoginRateLimitRequests      int  `envconfig:"LOGIN_RATE_LIMIT_REQUESTS" default:"0"`
	LoginRateLimitWindowSeconds int  `envconfig:"LOGIN_RATE_LIMIT_WINDOW_SECONDS" default:"60"`
	RateLimitMaxKeys            int  `envconfig:"RATE_LIMIT_MAX_KEYS" default:"10000"`
	RateLimitFailClosed         bool `envconfig:"RATE_LIMIT_FAIL_CLOSED" default:"false"`

	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// FromEnv reads the process environment. The returned config has not been
// validated; call Validate before using it to start a server.
func FromEnv() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("read environment: %w", err)
	}
	cfg.PasswordHasher = strings.ToLower(strings.TrimSpace(cfg.PasswordHasher))
	cfg.AccessDefault = strings.ToLower(strings.TrimSpace(cfg.AccessDefault))
	cfg.PolicyEngine = strings.ToLower(strings.TrimSpace(cfg.PolicyEngine))
	return cfg, nil
}

// Default returns the configuration FromEnv would produce with an empty
// environment.
func Default() Config {
	return Config{
		HTTPAddr:                    ":8080",
		AppEnv:                      "development",
		LogLevel:                    "info",
		SQLitePath:                  "file::memory:?cache=shared",
		DBConnectMaxWaitSeconds:     30,
		JWTSecret:                   InsecureDefaultSecret,
		JWTExpirationMs:             3600000,
		JWTIssuer:                   "event-booking",
		PasswordHasher:              HasherBcrypt,
		BcryptCost:                  10,
		HashingPermits:              4,
		AccessDefault:               AccessDefaultPublic,
		PolicyEngine:                PolicyEngineTable,
		LoginRateLimitWindowSeconds: 60,
		RateLimitMaxKeys:            10000,
	}
}

func (c Config) Validate() error {
	var result *multierror.Error
	if c.JWTExpirationMs < 1000 {
		result = multierror.Append(result, errors.New("JWT_EXPIRATION_MS must be at least 1000"))
	}
	if c.JWTSecret == "" {
		result = multierror.Append(result, errors.New("JWT_SECRET must not be empty"))
	}
	if c.IsProduction() && c.JWTSecret == InsecureDefaultSecret {
		result = multierror.Append(result, errors.New("JWT_SECRET must be overridden in production"))
	}
	switch c.PasswordHasher {
	case HasherBcrypt, HasherArgon2id:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported PASSWORD_HASHER %q", c.PasswordHasher))
	}
	if c.HashingPermits <= 0 {
		result = multierror.Append(result, errors.New("HASHING_PERMITS must be positive"))
	}
	switch c.AccessDefault {
	case AccessDefaultPublic, AccessDefaultAuthenticated:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported ACCESS_DEFAULT %q", c.AccessDefault))
	}
	switch c.PolicyEngine {
	case PolicyEngineTable, PolicyEngineRego:
	default:
		result = multierror.Append(result, fmt.Errorf("unsupported POLICY_ENGINE %q", c.PolicyEngine))
	}
	for _, proxy := range c.TrustedProxies {
		if !validProxy(proxy) {
			result = multierror.Append(result, fmt.Errorf("TRUSTED_PROXIES entry %q is not an IP or CIDR", proxy))
		}
	}
	if c.LoginRateLimitRequests < 0 {
		result = multierror.Append(result, errors.New("LOGIN_RATE_LIMIT_REQUESTS must not be negative"))
	}
	return result.ErrorOrNil()
}

func validProxy(value string) bool {
	if net.ParseIP(value) != nil {
		return true
	}
	_, _, err := net.ParseCIDR(value)
	return err == nil
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), EnvProduction)
}

func (c Config) TokenTTL() time.Duration {
	if c.JWTExpirationMs <= 0 {
		return 0
	}
	return time.Duration(c.JWTExpirationMs) * time.Millisecond
}

func (c Config) LoginRateLimitWindow() time.Duration {
	if c.LoginRateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.LoginRateLimitWindowSeconds) * time.Second
}

func (c Config) DBConnectMaxWait() time.Duration {
	if c.DBConnectMaxWaitSeconds <= 0 {
		return 0
	}
	return time.Duration(c.DBConnectMaxWaitSeconds) * time.Second
}
