package identity

import "context"

// Store persists identities and the authority catalog.
// Lookups of unknown records return ErrIdentityNotFound.
type Store interface {
	FindByLogin(ctx context.Context, login string) (Identity, error)
	FindByID(ctx context.Context, id string) (Identity, error)
	Save(ctx context.Context, identity Identity) error
	ListAuthorities(ctx context.Context) ([]Authority, error)
	SaveAuthority(ctx context.Context, authority Authority) error
}

// UserQuery selects provider users by username or email. Providers are
// asked for exact matches, and callers keep only case-insensitive equal
// values on top of that.
type UserQuery struct {
	Username string
	Email    string
}

// Provider is the identity provider admin API.
//
// Unknown users return ErrIdentityNotFound, a duplicate create returns
// ErrProviderConflict and every other non-success answer is a *ProviderError.
type Provider interface {
	FindUsers(ctx context.Context, query UserQuery) ([]ProviderUser, error)
	CreateUser(ctx context.Context, user ProviderUser) (string, error)
	UpdateUser(ctx context.Context, user ProviderUser) error
	SetPassword(ctx context.Context, userID, password string) error
	UserGroups(ctx context.Context, userID string) ([]ProviderGroup, error)
	JoinGroup(ctx context.Context, userID, groupID string) error
	LeaveGroup(ctx context.Context, userID, groupID string) error
	ListGroups(ctx context.Context) ([]ProviderGroup, error)
	GroupMembers(ctx context.Context, groupID string) ([]ProviderUser, error)
	RealmRoles(ctx context.Context, userID string) ([]string, error)
	Logout(ctx context.Context, userID string) error
}

// TokenIssuer is the provider token endpoint.
// Rejected grants return ErrBadCredentials.
type TokenIssuer interface {
	PasswordGrant(ctx context.Context, client Client, login, password string) (TokenResponse, error)
	RefreshGrant(ctx context.Context, client Client, refreshToken string) (TokenResponse, error)
}

// PasswordEncoder turns a registration password into a provider credential.
type PasswordEncoder interface {
	Encode(password string) (Credential, error)
}
