// Package user persists identities and the authority catalog with GORM.
package user

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/idsync/idsync/internal/db/models"
	"github.com/idsync/idsync/internal/identity"
)

const (
	loginQueryPattern = "login = ?"
	idQueryPattern    = "id = ?"
)

// profileColumns are overwritten when an existing user is saved again.
var profileColumns = []string{
	"login", "first_name", "last_name", "email", "image_url", "lang_key",
	"activated", "email_verified", "last_modified_at",
}

var (
	// ErrDBNil is returned when the database connection is nil.
	ErrDBNil = errors.New("database connection is nil")
	// ErrLoginEmpty is returned when saving an identity without login.
	ErrLoginEmpty = errors.New("login cannot be empty")
	// ErrIDEmpty is returned when saving an identity without id.
	ErrIDEmpty = errors.New("id cannot be empty")
	// ErrAuthorityNameEmpty is returned when saving an authority without name.
	ErrAuthorityNameEmpty = errors.New("authority name cannot be empty")
)

// Store implements identity.Store on a GORM database.
type Store struct {
	db *gorm.DB
}

var _ identity.Store = (*Store)(nil)

// New creates a Store.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, ErrDBNil
	}

	return &Store{db: db}, nil
}

// Migrate creates or updates the tables of the store.
func Migrate(db *gorm.DB) error {
	if db == nil {
		return ErrDBNil
	}

	return db.AutoMigrate(&models.Authority{}, &models.User{})
}

func toIdentity(u models.User) identity.Identity {
	authorities := make([]string, 0, len(u.Authorities))
	for _, a := range u.Authorities {
		authorities = append(authorities, a.Name)
	}

	return identity.Identity{
		ID:            u.ID,
		Login:         u.Login,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Email:         u.Email,
		ImageURL:      u.ImageURL,
		LangKey:       u.LangKey,
		Activated:     u.Activated,
		EmailVerified: u.EmailVerified,
		Authorities:   authorities,
		LastModified:  u.LastModifiedAt,
	}
}

func fromIdentity(id identity.Identity) models.User {
	authorities := make([]models.Authority, 0, len(id.Authorities))
	for _, name := range id.Authorities {
		authorities = append(authorities, models.Authority{Name: name})
	}

	return models.User{
		ID:             id.ID,
		Login:          id.Login,
		FirstName:      id.FirstName,
		LastName:       id.LastName,
		Email:          id.Email,
		ImageURL:       id.ImageURL,
		LangKey:        id.LangKey,
		Activated:      id.Activated,
		EmailVerified:  id.EmailVerified,
		Authorities:    authorities,
		LastModifiedAt: id.LastModified,
	}
}

func (s *Store) find(ctx context.Context, query string, arg string) (identity.Identity, error) {
	var u models.User

	err := s.db.WithContext(ctx).Preload("Authorities").Where(query, arg).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return identity.Identity{}, identity.ErrIdentityNotFound
	}

	if err != nil {
		return identity.Identity{}, fmt.Errorf("failed to query user: %w", err)
	}

	return toIdentity(u), nil
}

// FindByLogin loads an identity by login.
func (s *Store) FindByLogin(ctx context.Context, login string) (identity.Identity, error) {
	return s.find(ctx, loginQueryPattern, login)
}

// FindByID loads an identity by id.
func (s *Store) FindByID(ctx context.Context, id string) (identity.Identity, error) {
	return s.find(ctx, idQueryPattern, id)
}

// Save inserts or updates an identity and replaces its authorities.
func (s *Store) Save(ctx context.Context, id identity.Identity) error {
	if id.ID == "" {
		return ErrIDEmpty
	}

	if id.Login == "" {
		return ErrLoginEmpty
	}

	u := fromIdentity(id)
	authorities := u.Authorities
	u.Authorities = nil

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns(profileColumns),
		}).Omit(clause.Associations).Create(&u).Error
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}

		if err := tx.Model(&u).Association("Authorities").Replace(authorities); err != nil {
			return fmt.Errorf("failed to save user authorities: %w", err)
		}

		return nil
	})
}

// ListAuthorities returns the authority catalog ordered by name.
func (s *Store) ListAuthorities(ctx context.Context) ([]identity.Authority, error) {
	var authorities []models.Authority

	if err := s.db.WithContext(ctx).Order("name").Find(&authorities).Error; err != nil {
		return nil, fmt.Errorf("failed to list authorities: %w", err)
	}

	out := make([]identity.Authority, 0, len(authorities))
	for _, a := range authorities {
		out = append(out, identity.Authority{Name: a.Name})
	}

	return out, nil
}

// SaveAuthority adds an authority to the catalog. Existing names are kept.
func (s *Store) SaveAuthority(ctx context.Context, authority identity.Authority) error {
	if authority.Name == "" {
		return ErrAuthorityNameEmpty
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Authority{Name: authority.Name}).Error
	if err != nil {
		return fmt.Errorf("failed to save authority: %w", err)
	}

	return nil
}
