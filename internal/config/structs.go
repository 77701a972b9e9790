package config

import (
	"time"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/cache"
	"github.com/idsync/idsync/internal/identity"
	"github.com/idsync/idsync/internal/keycloak"
	"github.com/idsync/idsync/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode   bool // enable dev mode for development
	Title     string
	Webserver Webserver
	DB        DB
	Store     Store
	Log       logger.Log
	Keycloak  keycloak.Config
	OIDC      auth.OIDCConfig
	Cookie    identity.CookieConfig
	Identity  Identity
	Redis     cache.Config
}

// Webserver implement webserver settings.
type Webserver struct {
	CleanPath      bool   // use clean path middleware to allow multi slash requests
	DisableRecover bool   // disable recover middleware
	Domain         string // domain name for the webserver
	Port           int    // listening port for the webserver
	ShutDownTime   int    // wait time for shutdown in seconds
	URL            string // base url for the webserver
	// AllowOrigins is the CORS allow list, comma separated. Empty disables CORS.
	AllowOrigins string
	// StateExpiry bounds the OIDC login round trip.
	StateExpiry time.Duration
}

// Store selects where reconciled identities are persisted.
type Store struct {
	// Backend is "gorm" (relational tables) or "kv" (one key-value table).
	Backend string
	// Table of the key-value backend.
	Table string
}

// Identity holds the settings of the reconciliation engine.
type Identity struct {
	DefaultLangKey string // language of identities without locale claim
	LegacyMarker   string // group name marker of legacy groups
	RolesClaim     string // claim holding roles next to realm_access.roles
	// PermissionSource is "token" or "provider".
	PermissionSource string
	HashAlgorithm    string // bcrypt or argon2
	BcryptCost       int
	// Timeout bounds a single API request against the engine.
	Timeout time.Duration
}
