package identity

import (
	"errors"
	"fmt"
)

var (
	// ErrIdentityNotFound is returned when a user is unknown locally or at the provider.
	ErrIdentityNotFound = errors.New("identity not found")

	// ErrSubjectMissing is returned when a claim set carries neither uid nor sub.
	ErrSubjectMissing = errors.New("claim set has no subject")

	// ErrNotAuthenticated is returned when an operation needs a principal and has none.
	ErrNotAuthenticated = errors.New("current user login not found")

	// ErrGroupNotFound is returned when a group name does not exist at the provider.
	ErrGroupNotFound = errors.New("this group does not exist")

	// ErrBadCredentials is returned when the provider rejects a grant.
	ErrBadCredentials = errors.New("authentication failed, wrong credentials")

	// ErrProviderConflict is returned when the provider reports a duplicate on create.
	ErrProviderConflict = errors.New("user already exists at provider")

	// ErrAmbiguousUser is returned when a lookup matches more than one provider user.
	ErrAmbiguousUser = errors.New("more than one user matches")

	// ErrInvalidUser is returned when a lookup by email does not resolve to exactly one user.
	ErrInvalidUser = errors.New("invalid user infos")

	// ErrUnknownAudience is returned for a client audience without configured credentials.
	ErrUnknownAudience = errors.New("unknown client audience")
)

// ProviderError is a non-success provider answer not covered by a sentinel.
type ProviderError struct {
	Status int
	Detail string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.Status, e.Detail)
}

// CreationError describes a failed provider-side user creation.
type CreationError struct {
	Login  string
	Status int
	Detail string
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("failed to create user %s (status %d): %s", e.Login, e.Status, e.Detail)
}

// newCreationError builds a CreationError from a provider error.
func newCreationError(login string, err error) *CreationError {
	ce := &CreationError{Login: login, Status: 400, Detail: err.Error()} //nolint:mnd

	var pe *ProviderError
	if errors.As(err, &pe) {
		ce.Status = pe.Status
		ce.Detail = pe.Detail
	}

	return ce
}
