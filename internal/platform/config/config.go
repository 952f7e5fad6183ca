package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	dErrors "loyalty-gateway/pkg/domain-errors"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr           string
	SecureKey      string
	PublicHost     string
	RequestTimeout time.Duration
}

// Registry holds the credentials and endpoint for the customer registry.
type Registry struct {
	BaseURL    string
	AccountID  string
	Username   string
	Password   string
	MaxRetries int
}

// Verification holds the credentials and endpoint for the SMS
// verification provider.
type Verification struct {
	BaseURL  string
	Username string
	Password string
}

// Config is the complete service configuration, validated at load time.
type Config struct {
	Server       Server
	Registry     Registry
	Verification Verification
}

const (
	defaultAddr           = ":8080"
	defaultVerifyBaseURL  = "https://verification.api.sinch.com"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRetries     = 2
)

// Load reads configuration from the environment, consulting a local .env
// file when present, and validates it eagerly so a misconfigured process
// fails at startup instead of on the first request.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		Server: Server{
			Addr:           envOr("LOYALTY_GATEWAY_ADDR", defaultAddr),
			SecureKey:      os.Getenv("SECURE_KEY"),
			PublicHost:     os.Getenv("PRODUCTION_HOST"),
			RequestTimeout: defaultRequestTimeout,
		},
		Registry: Registry{
			BaseURL:    strings.TrimRight(os.Getenv("KORONA_BASE_URL"), "/"),
			AccountID:  os.Getenv("KORONA_ACCOUNT_ID"),
			Username:   os.Getenv("KORONA_USER"),
			Password:   os.Getenv("KORONA_PASS"),
			MaxRetries: defaultMaxRetries,
		},
		Verification: Verification{
			BaseURL:  strings.TrimRight(envOr("SINCH_BASE_URL", defaultVerifyBaseURL), "/"),
			Username: os.Getenv("SINCH_API_USER"),
			Password: os.Getenv("SINCH_API_PASS"),
		},
	}

	if raw := os.Getenv("REQUEST_TIMEOUT"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("REQUEST_TIMEOUT %q is not a valid duration", raw))
		}
		cfg.Server.RequestTimeout = d
	}

	if raw := os.Getenv("REGISTRY_MAX_RETRIES"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return Config{}, dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("REGISTRY_MAX_RETRIES %q is not a non-negative integer", raw))
		}
		cfg.Registry.MaxRetries = n
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	var missing []string
	for _, check := range []struct {
		name  string
		value string
	}{
		{"SECURE_KEY", c.Server.SecureKey},
		{"KORONA_BASE_URL", c.Registry.BaseURL},
		{"KORONA_ACCOUNT_ID", c.Registry.AccountID},
		{"KORONA_USER", c.Registry.Username},
		{"KORONA_PASS", c.Registry.Password},
		{"SINCH_API_USER", c.Verification.Username},
		{"SINCH_API_PASS", c.Verification.Password},
	} {
		if check.value == "" {
			missing = append(missing, check.name)
		}
	}
	if len(missing) > 0 {
		return dErrors.New(dErrors.CodeConfiguration,
			"missing required environment variables: "+strings.Join(missing, ", "))
	}

	for _, check := range []struct {
		name  string
		value string
	}{
		{"KORONA_BASE_URL", c.Registry.BaseURL},
		{"SINCH_BASE_URL", c.Verification.BaseURL},
	} {
		u, err := url.Parse(check.value)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return dErrors.New(dErrors.CodeConfiguration,
				fmt.Sprintf("%s %q is not an absolute URL", check.name, check.value))
		}
	}

	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
