// Package credential encodes registration passwords into provider credentials.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"

	"github.com/idsync/idsync/internal/identity"
)

const (
	// AlgorithmBcrypt hashes with bcrypt.
	AlgorithmBcrypt = "bcrypt"
	// AlgorithmArgon2 hashes with argon2id.
	AlgorithmArgon2 = "argon2"

	argon2idPrefix = "$argon2id$"
)

var (
	// ErrEmptyPassword is returned for an empty password.
	ErrEmptyPassword = errors.New("password can not be empty")

	// ErrUnknownAlgorithm is returned for an unsupported hash algorithm.
	ErrUnknownAlgorithm = errors.New("unknown password hash algorithm")
)

// Encoder hashes passwords with the configured algorithm. Values that are
// already bcrypt or argon2id hashes are passed through unchanged.
type Encoder struct {
	algorithm  string
	bcryptCost int
	argon2     *argon2id.Params
}

// New creates an Encoder. An empty algorithm selects bcrypt.
func New(algorithm string, bcryptCost int) (*Encoder, error) {
	switch algorithm {
	case "":
		algorithm = AlgorithmBcrypt
	case AlgorithmBcrypt, AlgorithmArgon2:
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownAlgorithm, algorithm)
	}

	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}

	return &Encoder{
		algorithm:  algorithm,
		bcryptCost: bcryptCost,
		argon2:     argon2id.DefaultParams,
	}, nil
}

// Encode returns the hashed credential for password.
func (e *Encoder) Encode(password string) (identity.Credential, error) {
	if password == "" {
		return identity.Credential{}, ErrEmptyPassword
	}

	if cost, err := bcrypt.Cost([]byte(password)); err == nil {
		return identity.Credential{Value: password, Hashed: true, Algorithm: AlgorithmBcrypt, Iterations: cost}, nil
	}

	if strings.HasPrefix(password, argon2idPrefix) {
		params, _, _, err := argon2id.DecodeHash(password)
		if err != nil {
			return identity.Credential{}, fmt.Errorf("failed to decode argon2id hash: %w", err)
		}

		return identity.Credential{
			Value:      password,
			Hashed:     true,
			Algorithm:  AlgorithmArgon2,
			Iterations: int(params.Iterations),
		}, nil
	}

	if e.algorithm == AlgorithmArgon2 {
		hash, err := argon2id.CreateHash(password, e.argon2)
		if err != nil {
			return identity.Credential{}, fmt.Errorf("failed to hash password: %w", err)
		}

		return identity.Credential{
			Value:      hash,
			Hashed:     true,
			Algorithm:  AlgorithmArgon2,
			Iterations: int(e.argon2.Iterations),
		}, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), e.bcryptCost)
	if err != nil {
		return identity.Credential{}, fmt.Errorf("failed to hash password: %w", err)
	}

	return identity.Credential{
		Value:      string(hash),
		Hashed:     true,
		Algorithm:  AlgorithmBcrypt,
		Iterations: e.bcryptCost,
	}, nil
}

// Matches reports whether password matches the encoded credential.
func Matches(password string, c identity.Credential) bool {
	if !c.Hashed {
		return password == c.Value
	}

	switch c.Algorithm {
	case AlgorithmBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(c.Value), []byte(password)) == nil
	case AlgorithmArgon2:
		match, err := argon2id.ComparePasswordAndHash(password, c.Value)
		return err == nil && match
	default:
		return false
	}
}
