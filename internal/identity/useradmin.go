package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/uniuri"
)

// PhoneNumberAttribute is the provider attribute holding the phone number.
const PhoneNumberAttribute = "phone_number"

// UserAdmin manages users on the provider side.
type UserAdmin struct {
	provider Provider
	encoder  PasswordEncoder
}

// NewUserAdmin creates a UserAdmin. The encoder turns registration
// passwords into hashed credentials.
func NewUserAdmin(provider Provider, encoder PasswordEncoder) *UserAdmin {
	return &UserAdmin{
		provider: provider,
		encoder:  encoder,
	}
}

// GenerateRandomPassword returns a random alphanumeric password of length n.
func GenerateRandomPassword(n int) string {
	return uniuri.NewLen(n)
}

func (u NewUser) providerUser() ProviderUser {
	pu := ProviderUser{
		Username:  strings.ToLower(u.username()),
		Email:     strings.ToLower(u.Email),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Enabled:   true,
		Groups:    u.Roles,
	}

	if u.PhoneNumber != "" {
		pu.Attributes = map[string][]string{PhoneNumberAttribute: {u.PhoneNumber}}
	}

	return pu
}

// findByEmail returns the provider user registered with email. Several
// users sharing the email return ErrAmbiguousUser.
func (a *UserAdmin) findByEmail(ctx context.Context, email string) (ProviderUser, bool, error) {
	user, err := findUser(ctx, a.provider, ByEmail(email))
	if errors.Is(err, ErrIdentityNotFound) {
		return ProviderUser{}, false, nil
	}

	if err != nil {
		return ProviderUser{}, false, err
	}

	return user, true, nil
}

// CreateUser registers a user with a plain password and returns its provider
// id. A user that already exists is not touched and its id is returned.
func (a *UserAdmin) CreateUser(ctx context.Context, user NewUser) (string, error) {
	existing, found, err := a.findByEmail(ctx, user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to search user %s: %w", user.Email, err)
	}

	if found {
		log.Debug().Str("email", user.Email).Str("user_id", existing.ID).Msg("user already registered")
		return existing.ID, nil
	}

	password := user.Password
	if password == "" {
		password = GenerateRandomPassword(uniuri.StdLen)
	}

	pu := user.providerUser()
	pu.Credential = &Credential{Value: password}

	id, err := a.provider.CreateUser(ctx, pu)
	if errors.Is(err, ErrProviderConflict) {
		return a.existingID(ctx, user.Email)
	}

	if err != nil {
		return "", newCreationError(user.Email, err)
	}

	log.Info().Str("email", user.Email).Str("user_id", id).Msg("user created")

	return id, nil
}

// existingID resolves the id of a user the provider reported as duplicate.
func (a *UserAdmin) existingID(ctx context.Context, email string) (string, error) {
	existing, found, err := a.findByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to search user %s: %w", email, err)
	}

	if !found {
		return "", newCreationError(email, ErrProviderConflict)
	}

	return existing.ID, nil
}

// CreateUserWithHashedPassword registers or updates one user with a hashed
// credential. The result carries status 201 for a creation, 200 for an
// update and 400 with details for a failure.
func (a *UserAdmin) CreateUserWithHashedPassword(ctx context.Context, user NewUser) UserLog {
	fail := func(id string, err error) UserLog {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to register user")

		return UserLog{
			ID:      id,
			Email:   user.Email,
			Status:  http.StatusBadRequest,
			Details: err.Error(),
		}
	}

	credential, err := a.encoder.Encode(user.Password)
	if err != nil {
		return fail(uuid.NewString(), fmt.Errorf("failed to encode password: %w", err))
	}

	existing, found, err := a.findByEmail(ctx, user.Email)
	if err != nil {
		return fail(uuid.NewString(), fmt.Errorf("failed to search user: %w", err))
	}

	pu := user.providerUser()
	pu.Credential = &credential

	if found {
		pu.ID = existing.ID
		pu.Username = existing.Username

		if err = a.provider.UpdateUser(ctx, pu); err != nil {
			return fail(existing.ID, fmt.Errorf("failed to update user: %w", err))
		}

		return UserLog{ID: existing.ID, Email: user.Email, Status: http.StatusOK}
	}

	id, err := a.provider.CreateUser(ctx, pu)
	if errors.Is(err, ErrProviderConflict) {
		if id, err = a.existingID(ctx, user.Email); err == nil {
			return UserLog{ID: id, Email: user.Email, Status: http.StatusOK}
		}
	}

	if err != nil {
		return fail(uuid.NewString(), newCreationError(user.Email, err))
	}

	return UserLog{ID: id, Email: user.Email, Status: http.StatusCreated}
}

// CreateUsersWithHashedPassword registers every user and returns one record
// per input, in input order.
func (a *UserAdmin) CreateUsersWithHashedPassword(ctx context.Context, users []NewUser) []UserLog {
	logs := make([]UserLog, 0, len(users))

	for _, user := range users {
		logs = append(logs, a.CreateUserWithHashedPassword(ctx, user))
	}

	return logs
}

// CreateUsers registers every user with CreateUser and returns the number
// of successful registrations.
func (a *UserAdmin) CreateUsers(ctx context.Context, users []NewUser) int {
	created := 0

	for _, user := range users {
		if _, err := a.CreateUser(ctx, user); err != nil {
			log.Error().Err(err).Str("email", user.Email).Msg("failed to create user")
			continue
		}

		created++
	}

	return created
}

// findLogin resolves the principal login to its provider user.
func (a *UserAdmin) findLogin(ctx context.Context, login string) (ProviderUser, error) {
	user, err := findUser(ctx, a.provider, ByUsername(login))
	if err != nil {
		return ProviderUser{}, fmt.Errorf("failed to find user %s: %w", login, err)
	}

	return user, nil
}

// UpdateProviderProfile changes the provider profile of the principal. A
// non-empty password is set as well.
func (a *UserAdmin) UpdateProviderProfile(ctx context.Context, login string, user NewUser) error {
	if login == "" {
		return ErrNotAuthenticated
	}

	current, err := a.findLogin(ctx, login)
	if err != nil {
		return err
	}

	current.FirstName = user.FirstName
	current.LastName = user.LastName

	if user.Email != "" {
		current.Email = strings.ToLower(user.Email)
	}

	if user.PhoneNumber != "" {
		if current.Attributes == nil {
			current.Attributes = map[string][]string{}
		}

		current.Attributes[PhoneNumberAttribute] = []string{user.PhoneNumber}
	}

	if err = a.provider.UpdateUser(ctx, current); err != nil {
		return fmt.Errorf("failed to update user %s: %w", login, err)
	}

	if user.Password != "" {
		if err = a.provider.SetPassword(ctx, current.ID, user.Password); err != nil {
			return fmt.Errorf("failed to set password of %s: %w", login, err)
		}
	}

	return nil
}

// ChangePassword sets a new password for the principal.
func (a *UserAdmin) ChangePassword(ctx context.Context, login, password string) error {
	if login == "" {
		return ErrNotAuthenticated
	}

	current, err := a.findLogin(ctx, login)
	if err != nil {
		return err
	}

	if err = a.provider.SetPassword(ctx, current.ID, password); err != nil {
		return fmt.Errorf("failed to set password of %s: %w", login, err)
	}

	return nil
}

// ResetPassword sets a new password for the single user registered with email.
func (a *UserAdmin) ResetPassword(ctx context.Context, email, password string) error {
	users, err := findUsers(ctx, a.provider, ByEmail(email))
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", email, err)
	}

	if len(users) != 1 {
		return ErrInvalidUser
	}

	if err = a.provider.SetPassword(ctx, users[0].ID, password); err != nil {
		return fmt.Errorf("failed to reset password of %s: %w", email, err)
	}

	log.Info().Str("email", email).Msg("password reset")

	return nil
}
