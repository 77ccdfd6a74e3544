// Package config loads the lookup service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// init loads .env and .env.local when present. godotenv never overrides
// variables already set in the process environment.
func init() {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env file: %v\n", err)
		}
	}

	if _, err := os.Stat(".env.local"); err == nil {
		if err := godotenv.Load(".env.local"); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load .env.local file: %v\n", err)
		}
	}
}

// HandleResolution selects how handles are mapped to DIDs
type HandleResolution string

const (
	// HandleResolutionXRPC asks the AppView's resolveHandle endpoint
	HandleResolutionXRPC HandleResolution = "xrpc"
	// HandleResolutionDirectory resolves over DNS TXT and HTTPS well-known
	HandleResolutionDirectory HandleResolution = "directory"
)

// Config captures environment-driven settings
type Config struct {
	Port               string
	PLCDirectoryURL    string
	AppViewURL         string
	HandleResolution   HandleResolution
	CallTimeout        time.Duration
	AllowPrivateDIDWeb bool
	RateLimitPerMinute int
	TrustProxyHeaders  bool
	TracingEnabled     bool
	CORSAllowedOrigins []string
}

const (
	defaultPort               = "8080"
	defaultPLCDirectoryURL    = "https://plc.directory"
	defaultAppViewURL         = "https://public.api.bsky.app"
	defaultCallTimeoutSeconds = 10
	defaultRateLimitPerMinute = 100
)

// Load reads the environment and applies defaults for anything unset
func Load() (Config, error) {
	cfg := Config{
		Port:               getEnv("APPVIEW_PORT", defaultPort),
		PLCDirectoryURL:    strings.TrimRight(getEnv("PLC_DIRECTORY_URL", defaultPLCDirectoryURL), "/"),
		AppViewURL:         strings.TrimRight(getEnv("APPVIEW_URL", defaultAppViewURL), "/"),
		HandleResolution:   HandleResolution(strings.ToLower(getEnv("HANDLE_RESOLUTION", string(HandleResolutionXRPC)))),
		AllowPrivateDIDWeb: parseBool(os.Getenv("ALLOW_PRIVATE_DID_WEB")),
		TrustProxyHeaders:  parseBool(os.Getenv("TRUST_PROXY_HEADERS")),
		TracingEnabled:     parseBool(os.Getenv("TRACING_ENABLED")),
		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
	}

	switch cfg.HandleResolution {
	case HandleResolutionXRPC, HandleResolutionDirectory:
	default:
		return cfg, fmt.Errorf("HANDLE_RESOLUTION must be %q or %q, got %q",
			HandleResolutionXRPC, HandleResolutionDirectory, cfg.HandleResolution)
	}

	timeoutSeconds, err := getEnvInt("CALL_TIMEOUT_SECONDS", defaultCallTimeoutSeconds)
	if err != nil {
		return cfg, err
	}
	if timeoutSeconds <= 0 {
		return cfg, fmt.Errorf("CALL_TIMEOUT_SECONDS must be positive, got %d", timeoutSeconds)
	}
	cfg.CallTimeout = time.Duration(timeoutSeconds) * time.Second

	cfg.RateLimitPerMinute, err = getEnvInt("RATE_LIMIT_PER_MINUTE", defaultRateLimitPerMinute)
	if err != nil {
		return cfg, err
	}
	if cfg.RateLimitPerMinute <= 0 {
		return cfg, fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive, got %d", cfg.RateLimitPerMinute)
	}

	return cfg, nil
}

// getEnv retrieves an environment variable value, returning a fallback if not set or empty
func getEnv(key, fallback string) string {
	if v, exists := os.LookupEnv(key); exists && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v, exists := os.LookupEnv(key)
	if !exists || v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

// parseBool converts a string to a boolean value, returning false if parsing fails
func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
