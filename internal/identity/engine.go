package identity

// DefaultLangKey is the language key of principals that send none.
const DefaultLangKey = "en"

// Options wires an Engine.
type Options struct {
	Store    Store
	Provider Provider
	Issuer   TokenIssuer
	Encoder  PasswordEncoder
	Clients  map[Audience]Client

	DefaultLangKey string
	LegacyMarker   string
	RolesClaim     string

	ReconcilerOptions []ReconcilerOption
}

// Engine bundles the reconciliation components. It holds no request
// state and is safe for concurrent use.
type Engine struct {
	Normalizer  Normalizer
	Reconciler  *Reconciler
	Groups      *GroupEngine
	Permissions *PermissionChecker
	Tokens      *TokenExchange
	Users       *UserAdmin
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.DefaultLangKey == "" {
		opts.DefaultLangKey = DefaultLangKey
	}

	normalizer := Normalizer{DefaultLangKey: opts.DefaultLangKey}
	reconcilerOpts := append([]ReconcilerOption{WithRolesClaim(opts.RolesClaim)}, opts.ReconcilerOptions...)

	return &Engine{
		Normalizer:  normalizer,
		Reconciler:  NewReconciler(opts.Store, normalizer, reconcilerOpts...),
		Groups:      NewGroupEngine(opts.Provider, opts.LegacyMarker),
		Permissions: NewPermissionChecker(opts.Provider),
		Tokens:      NewTokenExchange(opts.Issuer, opts.Provider, opts.Clients),
		Users:       NewUserAdmin(opts.Provider, opts.Encoder),
	}
}
