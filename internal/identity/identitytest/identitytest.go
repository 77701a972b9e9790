// Package identitytest provides in-memory implementations of the identity
// interfaces for tests.
package identitytest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/idsync/idsync/internal/identity"
)

var (
	_ identity.Provider        = (*Provider)(nil)
	_ identity.TokenIssuer     = (*Issuer)(nil)
	_ identity.Store           = (*Store)(nil)
	_ identity.PasswordEncoder = Encoder{}
)

// Provider is an in-memory identity.Provider.
type Provider struct {
	mu          sync.Mutex
	users       map[string]identity.ProviderUser
	groups      []identity.ProviderGroup
	memberships map[string][]string
	roles       map[string][]string
	ops         []string
	nextID      int

	// Passwords holds the last password set per user id.
	Passwords map[string]string
	// LoggedOut lists the user ids whose sessions were ended.
	LoggedOut []string
	// FailCreate rejects the creation of users with the given email.
	FailCreate map[string]error
	// FailJoin and FailLeave reject membership changes of the given group id.
	FailJoin  map[string]error
	FailLeave map[string]error
	// FailGroups rejects reading the groups of the given user id.
	FailGroups map[string]error
}

// NewProvider creates an empty Provider.
func NewProvider() *Provider {
	return &Provider{
		users:       map[string]identity.ProviderUser{},
		memberships: map[string][]string{},
		roles:       map[string][]string{},
		Passwords:   map[string]string{},
		FailCreate:  map[string]error{},
		FailJoin:    map[string]error{},
		FailLeave:   map[string]error{},
		FailGroups:  map[string]error{},
	}
}

// AddUser stores a user with its realm roles.
func (p *Provider) AddUser(u identity.ProviderUser, roles ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.users[u.ID] = u
	p.roles[u.ID] = roles
}

// AddGroup adds a group to the catalog.
func (p *Provider) AddGroup(id, name string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.groups = append(p.groups, identity.ProviderGroup{ID: id, Name: name})
}

// SetMemberships replaces the group ids of a user.
func (p *Provider) SetMemberships(userID string, groupIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.memberships[userID] = groupIDs
}

// Ops lists the join and leave calls as "op:groupID", in call order.
func (p *Provider) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.ops)
}

// ResetOps forgets the recorded calls.
func (p *Provider) ResetOps() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ops = nil
}

// Memberships returns the group ids of a user.
func (p *Provider) Memberships(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.memberships[userID])
}

// User returns a stored user.
func (p *Provider) User(id string) (identity.ProviderUser, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[id]

	return u, ok
}

// FindUsers matches username and email by substring, the way a provider
// search endpoint does when exact matching is not honoured.
func (p *Provider) FindUsers(_ context.Context, query identity.UserQuery) ([]identity.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []identity.ProviderUser

	for _, u := range p.users {
		if strings.Contains(u.Username, query.Username) && strings.Contains(u.Email, query.Email) {
			out = append(out, u)
		}
	}

	slices.SortFunc(out, func(a, b identity.ProviderUser) int { return strings.Compare(a.ID, b.ID) })

	return out, nil
}

// CreateUser implements identity.Provider.
func (p *Provider) CreateUser(_ context.Context, user identity.ProviderUser) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.FailCreate[user.Email]; ok {
		return "", err
	}

	for _, u := range p.users {
		if strings.EqualFold(u.Email, user.Email) {
			return "", identity.ErrProviderConflict
		}
	}

	p.nextID++
	user.ID = fmt.Sprintf("user-%d", p.nextID)
	p.users[user.ID] = user

	return user.ID, nil
}

// UpdateUser implements identity.Provider.
func (p *Provider) UpdateUser(_ context.Context, user identity.ProviderUser) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[user.ID]; !ok {
		return identity.ErrIdentityNotFound
	}

	p.users[user.ID] = user

	return nil
}

// SetPassword implements identity.Provider.
func (p *Provider) SetPassword(_ context.Context, userID, password string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.users[userID]; !ok {
		return identity.ErrIdentityNotFound
	}

	p.Passwords[userID] = password

	return nil
}

func (p *Provider) group(id string) identity.ProviderGroup {
	for _, g := range p.groups {
		if g.ID == id {
			return g
		}
	}

	return identity.ProviderGroup{ID: id, Name: id}
}

// UserGroups implements identity.Provider.
func (p *Provider) UserGroups(_ context.Context, userID string) ([]identity.ProviderGroup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.FailGroups[userID]; ok {
		return nil, err
	}

	if _, ok := p.users[userID]; !ok {
		return nil, identity.ErrIdentityNotFound
	}

	out := make([]identity.ProviderGroup, 0, len(p.memberships[userID]))
	for _, id := range p.memberships[userID] {
		out = append(out, p.group(id))
	}

	return out, nil
}

// JoinGroup implements identity.Provider.
func (p *Provider) JoinGroup(_ context.Context, userID, groupID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ops = append(p.ops, "join:"+groupID)

	if err, ok := p.FailJoin[groupID]; ok {
		return err
	}

	if !slices.Contains(p.memberships[userID], groupID) {
		p.memberships[userID] = append(p.memberships[userID], groupID)
	}

	return nil
}

// LeaveGroup implements identity.Provider.
func (p *Provider) LeaveGroup(_ context.Context, userID, groupID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.ops = append(p.ops, "leave:"+groupID)

	if err, ok := p.FailLeave[groupID]; ok {
		return err
	}

	p.memberships[userID] = slices.DeleteFunc(p.memberships[userID], func(id string) bool { return id == groupID })

	return nil
}

// ListGroups implements identity.Provider.
func (p *Provider) ListGroups(_ context.Context) ([]identity.ProviderGroup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.groups), nil
}

// GroupMembers implements identity.Provider.
func (p *Provider) GroupMembers(_ context.Context, groupID string) ([]identity.ProviderUser, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []identity.ProviderUser

	for userID, groups := range p.memberships {
		if slices.Contains(groups, groupID) {
			out = append(out, p.users[userID])
		}
	}

	slices.SortFunc(out, func(a, b identity.ProviderUser) int { return strings.Compare(a.ID, b.ID) })

	return out, nil
}

// RealmRoles implements identity.Provider.
func (p *Provider) RealmRoles(_ context.Context, userID string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	return slices.Clone(p.roles[userID]), nil
}

// Logout implements identity.Provider.
func (p *Provider) Logout(_ context.Context, userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.LoggedOut = append(p.LoggedOut, userID)

	return nil
}
