package daemon

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/cache"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/credential"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/keycloak"
	"github.com/idsync/idsync/internal/web"
)

// Daemon represents the main application daemon.
type Daemon struct {
	cfg        *config.Config
	webService *web.Service
}

// Start starts the Daemon's web service and blocks until it is shut down.
func (d *Daemon) Start() error {
	go d.webService.WaitShutdown()

	return d.webService.Start(fmt.Sprintf(":%d", d.cfg.Webserver.Port))
}

// newProvider connects the identity provider. With redis enabled the
// group catalog is served from redis.
func newProvider(cfg *config.Config) (*keycloak.Service, identity.Provider, error) {
	kc, err := keycloak.New(cfg.Keycloak)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create keycloak client: %w", err)
	}

	if !cfg.Redis.Enabled {
		return kc, kc, nil
	}

	rdb, err := cache.NewClient(cfg.Redis)
	if err != nil {
		return nil, nil, err //nolint: wrapcheck
	}

	log.Info().Dur("ttl", cfg.Redis.TTL).Msg("group catalog is cached in redis")

	return kc, cache.NewGroupCatalog(kc, rdb, cfg.Redis.TTL), nil
}

// newVerifier returns the bearer token verifier. The OIDC provider is used
// when enabled, otherwise the keys of the managed realm.
func newVerifier(ctx context.Context, cfg *config.Config) (auth.TokenVerifier, error) {
	if cfg.OIDC.Enabled {
		provider, err := auth.NewOIDCProvider(ctx, &cfg.OIDC)
		if err == nil {
			return provider, nil
		}

		log.Warn().Err(err).Msg("failed to initialize OIDC provider, falling back to realm keys")
	}

	return auth.NewIssuerVerifier(ctx, cfg.Keycloak.Issuer()) //nolint: wrapcheck
}

// New creates a new Daemon instance with the provided configuration.
func New(cfg *config.Config) (*Daemon, error) {
	if cfg == nil {
		return nil, config.ErrConfigNil
	}

	store, storage, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	kc, provider, err := newProvider(cfg)
	if err != nil {
		return nil, err
	}

	encoder, err := credential.New(cfg.Identity.HashAlgorithm, cfg.Identity.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to create password encoder: %w", err)
	}

	engine := identity.New(identity.Options{
		Store:          store,
		Provider:       provider,
		Issuer:         kc,
		Encoder:        encoder,
		Clients:        cfg.Keycloak.Clients(),
		DefaultLangKey: cfg.Identity.DefaultLangKey,
		LegacyMarker:   cfg.Identity.LegacyMarker,
		RolesClaim:     cfg.Identity.RolesClaim,
	})

	verifier, err := newVerifier(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	authService, err := auth.NewService(verifier, engine.Reconciler, engine.Permissions, cfg.Identity.PermissionSource)
	if err != nil {
		return nil, fmt.Errorf("failed to create auth service: %w", err)
	}

	log.Info().
		Str("backend", cfg.Store.Backend).
		Str("engine", cfg.DB.GormEngine).
		Str("realm", cfg.Keycloak.Realm).
		Msg("identity engine initialized")

	return &Daemon{
		cfg: cfg,
		webService: web.New(cfg, engine, authService, web.Options{
			StateStorage: storage,
			FastShutDown: cfg.DevMode,
		}),
	}, nil
}
