package identity

import "time"

// Identity is the locally persisted view of a principal.
type Identity struct {
	// ID is the provider subject identifier. It never changes once created.
	ID string `json:"id"`
	// Login is unique and lower-cased.
	Login     string `json:"login"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	// Email is lower-cased.
	Email    string `json:"email,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	LangKey  string `json:"langKey,omitempty"`
	// Activated is true for every principal that authenticated successfully.
	Activated bool `json:"activated"`
	// EmailVerified mirrors the email_verified claim when the provider sends it.
	EmailVerified bool `json:"emailVerified"`
	// Authorities are the role names granted to the principal.
	Authorities []string `json:"authorities"`
	// LastModified is the local write time used by the merge timestamp rule.
	LastModified time.Time `json:"lastModifiedDate"`
}

// Authority is one entry of the authority catalog.
type Authority struct {
	Name string `json:"name"`
}

// GroupState tells whether a provider group is a legacy or a current group.
type GroupState int

const (
	// GroupCurrent is a group without the legacy marker.
	GroupCurrent GroupState = iota
	// GroupLegacy is a group whose raw name carries the legacy marker.
	GroupLegacy
)

// String implements fmt.Stringer.
func (s GroupState) String() string {
	if s == GroupLegacy {
		return "legacy"
	}

	return "current"
}

// ProviderGroup is a group as the identity provider reports it.
type ProviderGroup struct {
	ID   string
	Name string
}

// Group is a classified provider group.
type Group struct {
	ID      string     `json:"id"`
	Name    string     `json:"name"`
	RawName string     `json:"rawName"`
	State   GroupState `json:"-"`
}

// GroupBuckets partitions groups by state.
type GroupBuckets struct {
	Legacy  []Group `json:"oldRoles"`
	Current []Group `json:"newRoles"`
}

// MembershipDiff holds the group ids to leave and to join.
type MembershipDiff struct {
	ToLeave []string
	ToJoin  []string
}

// Empty reports whether applying the diff would change nothing.
func (d MembershipDiff) Empty() bool {
	return len(d.ToLeave) == 0 && len(d.ToJoin) == 0
}

// UserReference is a short user view returned by group lookups.
type UserReference struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
}

// UserWithGroups is the group view of one user in a multi-user lookup.
type UserWithGroups struct {
	UserID   string  `json:"userId"`
	OldRoles []Group `json:"oldRoles"`
	NewRoles []Group `json:"newRoles"`
}

// ProviderUser is a user record of the identity provider admin API.
type ProviderUser struct {
	ID         string
	Username   string
	Email      string
	FirstName  string
	LastName   string
	Enabled    bool
	Attributes map[string][]string
	Groups     []string
	Credential *Credential
}

// Reference returns the short view of the user.
func (u ProviderUser) Reference() UserReference {
	return UserReference{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

// Credential is a password credential handed to the provider.
type Credential struct {
	// Value is the plain password, or the encoded hash when Hashed is set.
	Value      string
	Hashed     bool
	Algorithm  string
	Iterations int
}

// NewUser is a provider-side registration payload.
type NewUser struct {
	Login       string   `json:"login" validate:"omitempty,min=1,max=50"`
	Email       string   `json:"email" validate:"required,email"`
	FirstName   string   `json:"firstName" validate:"max=50"`
	LastName    string   `json:"lastName" validate:"max=50"`
	PhoneNumber string   `json:"phoneNumber" validate:"max=32"`
	Password    string   `json:"password"`
	Roles       []string `json:"roles"`
}

// username returns the provider username for the registration.
func (u NewUser) username() string {
	if u.Login != "" {
		return u.Login
	}

	return u.Email
}

// ProfileUpdate holds the locally editable profile fields.
type ProfileUpdate struct {
	FirstName string `json:"firstName" validate:"max=50"`
	LastName  string `json:"lastName" validate:"max=50"`
	Email     string `json:"email" validate:"omitempty,email"`
	LangKey   string `json:"langKey" validate:"max=10"`
	ImageURL  string `json:"imageUrl" validate:"max=256"`
}

// UserLog is the per-item result of a hashed-password registration.
type UserLog struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Status  int    `json:"status"`
	Retry   int    `json:"retry"`
	Details string `json:"details,omitempty"`
}

// Failed reports whether the registration did not succeed.
func (l UserLog) Failed() bool {
	return l.Status >= 400 //nolint:mnd
}

// Client is an OAuth2 client registered at the provider.
type Client struct {
	ID     string
	Secret string
}

// TokenResponse is the provider token endpoint answer.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token,omitempty"`
	ExpiresIn        int    `json:"expires_in"`
	RefreshExpiresIn int    `json:"refresh_expires_in"`
	TokenType        string `json:"token_type"`
	IDToken          string `json:"id_token,omitempty"`
	Scope            string `json:"scope,omitempty"`
	SessionState     string `json:"session_state,omitempty"`
}

// AccessTokenView is the token payload returned to clients that receive
// the refresh token as a cookie.
type AccessTokenView struct {
	AccessToken  string `json:"access_token"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type"`
	IDToken      string `json:"id_token,omitempty"`
	Scope        string `json:"scope,omitempty"`
	SessionState string `json:"session_state,omitempty"`
}

// AccessView strips the refresh token from the response.
func (r TokenResponse) AccessView() AccessTokenView {
	return AccessTokenView{
		AccessToken:  r.AccessToken,
		ExpiresIn:    r.ExpiresIn,
		TokenType:    r.TokenType,
		IDToken:      r.IDToken,
		Scope:        r.Scope,
		SessionState: r.SessionState,
	}
}
