package config

import (
	"errors"
)

var (
	// ErrConfigNil error if no config was handed over.
	ErrConfigNil = errors.New("config is nil")

	// ErrEmptyURL error if config webserver.URL is empty.
	ErrEmptyURL = errors.New("toml config webserver.url can not be empty")

	// ErrWebServerPortCanNotBeZero error if config webserver listening port is 0.
	ErrWebServerPortCanNotBeZero = errors.New("toml config webserver.port listening port can not be 0")

	// ErrEmptyRealm error if config keycloak.realm is empty.
	ErrEmptyRealm = errors.New("toml config keycloak.realm can not be empty")

	// ErrEmptyWebClient error if config keycloak.webclient.id is empty.
	ErrEmptyWebClient = errors.New("toml config keycloak.webclient.id can not be empty")

	// ErrUnknownGormEngine error if config db.gormengine is not supported.
	ErrUnknownGormEngine = errors.New("toml config db.gormengine is not supported")

	// ErrUnknownStoreBackend error if config store.backend is not supported.
	ErrUnknownStoreBackend = errors.New("toml config store.backend is not supported")
)
