package identity

import (
	"net/http"
	"time"
)

// Config holds configuration for the identity components
type Config struct {
	// HTTPClient is used for the PLC directory and the XRPC handle resolver
	HTTPClient *http.Client
	// WebHTTPClient is used for did:web documents and direct handle
	// resolution, which reach arbitrary hosts. It should refuse private
	// addresses.
	WebHTTPClient *http.Client

	PLCURL            string
	HandleResolverURL string
	CallTimeout       time.Duration

	// WebScheme overrides the did:web document scheme. Only tests set it.
	WebScheme string

	Observer Observer
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() Config {
	return Config{
		PLCURL:            "https://plc.directory",
		HandleResolverURL: "https://public.api.bsky.app",
		CallTimeout:       10 * time.Second,
		HTTPClient:        &http.Client{Timeout: 15 * time.Second},
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.PLCURL == "" {
		c.PLCURL = defaults.PLCURL
	}
	if c.HandleResolverURL == "" {
		c.HandleResolverURL = defaults.HandleResolverURL
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = defaults.CallTimeout
	}
	if c.HTTPClient == nil {
		c.HTTPClient = defaults.HTTPClient
	}
	if c.WebHTTPClient == nil {
		c.WebHTTPClient = c.HTTPClient
	}
	if c.WebScheme == "" {
		c.WebScheme = "https"
	}
	if c.Observer == nil {
		c.Observer = noopObserver{}
	}
	return c
}

// NewFetcher creates a DocumentFetcher supporting did:plc and did:web
func NewFetcher(config Config) DocumentFetcher {
	config = config.withDefaults()

	plcGetter := &jsonGetter{client: config.HTTPClient, observer: config.Observer}
	webGetter := &jsonGetter{client: config.WebHTTPClient, observer: config.Observer}

	return &fetcher{
		strategies: map[Method]methodStrategy{
			MethodPLC: newPLCStrategy(config.PLCURL, plcGetter),
			MethodWeb: newWebStrategy(config.WebScheme, webGetter),
		},
		callTimeout: config.CallTimeout,
	}
}

// NewXRPCHandleResolver resolves handles through the resolveHandle XRPC
// method on config.HandleResolverURL
func NewXRPCHandleResolver(config Config) HandleResolver {
	config = config.withDefaults()
	return newXRPCHandleResolver(config.HandleResolverURL, config.HTTPClient, config.CallTimeout, config.Observer)
}

// NewDirectoryHandleResolver resolves handles directly via DNS and HTTPS
func NewDirectoryHandleResolver(config Config) HandleResolver {
	config = config.withDefaults()
	return newDirectoryHandleResolver(config.WebHTTPClient, config.CallTimeout, config.Observer)
}
