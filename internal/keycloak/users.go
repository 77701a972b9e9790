package keycloak

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Nerzal/gocloak/v13"

	"github.com/idsync/idsync/internal/identity"
)

const credentialTypePassword = "password"

type credentialData struct {
	HashIterations int    `json:"hashIterations"`
	Algorithm      string `json:"algorithm"`
}

type secretData struct {
	Value string `json:"value"`
}

func toProviderUser(u *gocloak.User) identity.ProviderUser {
	pu := identity.ProviderUser{
		ID:        gocloak.PString(u.ID),
		Username:  gocloak.PString(u.Username),
		Email:     gocloak.PString(u.Email),
		FirstName: gocloak.PString(u.FirstName),
		LastName:  gocloak.PString(u.LastName),
		Enabled:   gocloak.PBool(u.Enabled),
	}

	if u.Attributes != nil {
		pu.Attributes = *u.Attributes
	}

	if u.Groups != nil {
		pu.Groups = *u.Groups
	}

	return pu
}

func toProviderUsers(users []*gocloak.User) []identity.ProviderUser {
	out := make([]identity.ProviderUser, 0, len(users))

	for _, u := range users {
		if u != nil {
			out = append(out, toProviderUser(u))
		}
	}

	return out
}

func fromProviderUser(u identity.ProviderUser) (gocloak.User, error) {
	user := gocloak.User{
		Username:  gocloak.StringP(u.Username),
		Email:     gocloak.StringP(u.Email),
		FirstName: gocloak.StringP(u.FirstName),
		LastName:  gocloak.StringP(u.LastName),
		Enabled:   gocloak.BoolP(u.Enabled),
	}

	if u.ID != "" {
		user.ID = gocloak.StringP(u.ID)
	}

	if u.Attributes != nil {
		attributes := u.Attributes
		user.Attributes = &attributes
	}

	if len(u.Groups) > 0 {
		groups := u.Groups
		user.Groups = &groups
	}

	if u.Credential != nil {
		c, err := credentialRepresentation(*u.Credential)
		if err != nil {
			return gocloak.User{}, err
		}

		user.Credentials = &[]gocloak.CredentialRepresentation{c}
	}

	return user, nil
}

// credentialRepresentation builds a plain or an imported hashed credential.
func credentialRepresentation(c identity.Credential) (gocloak.CredentialRepresentation, error) {
	rep := gocloak.CredentialRepresentation{
		Type:      gocloak.StringP(credentialTypePassword),
		Temporary: gocloak.BoolP(false),
	}

	if !c.Hashed {
		rep.Value = gocloak.StringP(c.Value)
		return rep, nil
	}

	data, err := json.Marshal(credentialData{HashIterations: c.Iterations, Algorithm: c.Algorithm})
	if err != nil {
		return rep, fmt.Errorf("failed to encode credential data: %w", err)
	}

	secret, err := json.Marshal(secretData{Value: c.Value})
	if err != nil {
		return rep, fmt.Errorf("failed to encode secret data: %w", err)
	}

	rep.CredentialData = gocloak.StringP(string(data))
	rep.SecretData = gocloak.StringP(string(secret))

	return rep, nil
}

// FindUsers returns the users whose username or email equals query.
func (s *Service) FindUsers(ctx context.Context, query identity.UserQuery) ([]identity.ProviderUser, error) {
	params := gocloak.GetUsersParams{
		Exact: gocloak.BoolP(true),
		Max:   gocloak.IntP(pageSize),
	}

	if query.Username != "" {
		params.Username = gocloak.StringP(query.Username)
	}

	if query.Email != "" {
		params.Email = gocloak.StringP(query.Email)
	}

	var users []*gocloak.User

	err := s.call(ctx, "find_users", func(token string) error {
		var err error

		users, err = s.gocloak.GetUsers(ctx, token, s.cfg.Realm, params)

		return err
	})
	if err != nil {
		return nil, err
	}

	return toProviderUsers(users), nil
}

// CreateUser creates a user and returns its id.
func (s *Service) CreateUser(ctx context.Context, user identity.ProviderUser) (string, error) {
	rep, err := fromProviderUser(user)
	if err != nil {
		return "", err
	}

	var id string

	err = s.call(ctx, "create_user", func(token string) error {
		var errCreate error

		id, errCreate = s.gocloak.CreateUser(ctx, token, s.cfg.Realm, rep)

		return errCreate
	})

	return id, err
}

// UpdateUser replaces the profile of an existing user.
func (s *Service) UpdateUser(ctx context.Context, user identity.ProviderUser) error {
	rep, err := fromProviderUser(user)
	if err != nil {
		return err
	}

	return s.call(ctx, "update_user", func(token string) error {
		return s.gocloak.UpdateUser(ctx, token, s.cfg.Realm, rep)
	})
}

// SetPassword sets a non-temporary password.
func (s *Service) SetPassword(ctx context.Context, userID, password string) error {
	return s.call(ctx, "set_password", func(token string) error {
		return s.gocloak.SetPassword(ctx, token, userID, s.cfg.Realm, password, false)
	})
}

// RealmRoles returns the realm role names of a user.
func (s *Service) RealmRoles(ctx context.Context, userID string) ([]string, error) {
	var roles []*gocloak.Role

	err := s.call(ctx, "realm_roles", func(token string) error {
		var err error

		roles, err = s.gocloak.GetRealmRolesByUserID(ctx, token, s.cfg.Realm, userID)

		return err
	})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(roles))
	for _, r := range roles {
		if r != nil && r.Name != nil {
			names = append(names, *r.Name)
		}
	}

	return names, nil
}

// Logout ends all sessions of a user.
func (s *Service) Logout(ctx context.Context, userID string) error {
	return s.call(ctx, "logout", func(token string) error {
		return s.gocloak.LogoutAllSessions(ctx, token, s.cfg.Realm, userID)
	})
}
