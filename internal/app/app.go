// Package app assembles the lookup services from configuration.
package app

import (
	"time"

	"Internect/internal/atproto/identity"
	"Internect/internal/atproto/pds"
	"Internect/internal/atproto/transport"
	"Internect/internal/config"
	"Internect/internal/core/lookup"
	"Internect/internal/core/profiles"
	"Internect/internal/core/repos"
)

// Observer receives upstream and pipeline timings. *metrics.Metrics satisfies it.
type Observer interface {
	identity.Observer
	lookup.Observer
}

// Services holds the wired domain services
type Services struct {
	Lookup lookup.Service
	Repos  repos.Service
}

// clientTimeout caps a whole request including redirects; each call also
// carries its own per-call deadline.
func clientTimeout(callTimeout time.Duration) time.Duration {
	return callTimeout + 5*time.Second
}

// New builds the lookup and repository services. observer may be nil.
func New(cfg config.Config, observer Observer) *Services {
	timeout := clientTimeout(cfg.CallTimeout)

	// PLC directory and AppView hosts are operator configured. did:web
	// documents and PDS endpoints come from user input.
	trusted := transport.NewHTTPClient(timeout)
	untrusted := transport.NewSSRFSafeHTTPClient(cfg.AllowPrivateDIDWeb, timeout)

	idConfig := identity.Config{
		HTTPClient:        trusted,
		WebHTTPClient:     untrusted,
		PLCURL:            cfg.PLCDirectoryURL,
		HandleResolverURL: cfg.AppViewURL,
		CallTimeout:       cfg.CallTimeout,
	}

	profileOpts := []profiles.FetcherOption{
		profiles.WithHTTPClient(trusted),
		profiles.WithCallTimeout(cfg.CallTimeout),
	}
	var lookupOpts []lookup.ServiceOption

	if observer != nil {
		idConfig.Observer = observer
		profileOpts = append(profileOpts, profiles.WithObserver(observer))
		lookupOpts = append(lookupOpts, lookup.WithObserver(observer))
	}

	var handles identity.HandleResolver
	switch cfg.HandleResolution {
	case config.HandleResolutionDirectory:
		handles = identity.NewDirectoryHandleResolver(idConfig)
	default:
		handles = identity.NewXRPCHandleResolver(idConfig)
	}

	lookupService := lookup.NewService(
		handles,
		identity.NewFetcher(idConfig),
		profiles.NewAppViewFetcher(cfg.AppViewURL, profileOpts...),
		lookupOpts...,
	)

	return &Services{
		Lookup: lookupService,
		Repos:  repos.NewService(lookupService, pds.NewFactory(untrusted)),
	}
}
