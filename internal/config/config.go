// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/cache"
	"github.com/idsync/idsync/internal/credential"
	"github.com/idsync/idsync/internal/identity"
)

const (
	// EnvPrefix prefixes environment overrides of single keys, e.g. IDSYNC_WEBSERVER_PORT.
	EnvPrefix = "IDSYNC"
	// EnvConfigJSON holds a JSON document merged over the main config file.
	EnvConfigJSON = "IDSYNC_CONFIG_JSON"

	mainConfigFile = "main.toml"

	// StoreBackendGorm keeps identities in relational tables.
	StoreBackendGorm = "gorm"
	// StoreBackendKV keeps identities in one key-value table.
	StoreBackendKV = "kv"

	defaultAppName      = "idsync"
	defaultShutDownTime = 5
	defaultStateExpiry  = 5 * time.Minute
	defaultTimeout      = 30 * time.Second
	defaultKVTable      = "idsync_kv"
)

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var c Config

	if path == "" {
		path = "./etc/"
	}

	v := viper.New()
	v.SetConfigFile(filepath.Join(path, mainConfigFile))
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	if err := v.Unmarshal(&c); err != nil {
		return Config{}, errors.Wrap(err, "failed to decode main config file")
	}

	// override it from env
	if configJSON := os.Getenv(EnvConfigJSON); configJSON != "" {
		var err error

		c, err = decodeAndMergeConfig(c, configJSON)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	if err := json.Unmarshal([]byte(configAsJSON), &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read config from env "+EnvConfigJSON)
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer

	enc := toml.NewEncoder(&buffer)
	enc.SetIndentTables(true)

	if err := enc.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validate the config and fill in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Keycloak.Realm == "" {
		return errors.Wrap(ErrEmptyRealm, invalidErrMessage)
	}

	if c.Keycloak.WebClient.ID == "" {
		return errors.Wrap(ErrEmptyWebClient, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EngineMySQL
	case EngineMySQL, EnginePostgres, EngineSQLite:
	default:
		return errors.Wrapf(ErrUnknownGormEngine, "%s: %s", invalidErrMessage, c.DB.GormEngine)
	}

	switch c.Store.Backend {
	case "":
		c.Store.Backend = StoreBackendGorm
	case StoreBackendGorm, StoreBackendKV:
	default:
		return errors.Wrapf(ErrUnknownStoreBackend, "%s: %s", invalidErrMessage, c.Store.Backend)
	}

	setDefaults(c)

	return nil
}

func setDefaults(c *Config) {
	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if c.Webserver.StateExpiry == 0 {
		c.Webserver.StateExpiry = defaultStateExpiry
	}

	if c.Store.Table == "" {
		c.Store.Table = defaultKVTable
	}

	if c.Log.AppName == "" {
		c.Log.AppName = defaultAppName
	}

	if c.Log.ServiceName == "" {
		c.Log.ServiceName = defaultAppName
	}

	if c.Cookie.Name == "" {
		c.Cookie.Name = identity.DefaultRefreshCookieName
	}

	if c.Cookie.Domain == "" {
		c.Cookie.Domain = c.Webserver.Domain
	}

	id := &c.Identity

	if id.DefaultLangKey == "" {
		id.DefaultLangKey = identity.DefaultLangKey
	}

	if id.LegacyMarker == "" {
		id.LegacyMarker = identity.DefaultLegacyMarker
	}

	if id.PermissionSource == "" {
		id.PermissionSource = auth.SourceToken
	}

	if id.HashAlgorithm == "" {
		id.HashAlgorithm = credential.AlgorithmBcrypt
	}

	if id.BcryptCost == 0 {
		id.BcryptCost = bcrypt.DefaultCost
	}

	if id.Timeout == 0 {
		id.Timeout = defaultTimeout
	}

	if c.Redis.TTL == 0 {
		c.Redis.TTL = cache.DefaultTTL
	}
}
