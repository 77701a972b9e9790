package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/keycloak"
)

func projectConfigPath(t *testing.T) string {
	t.Helper()

	projectRoot, err := filepath.Abs("../../")
	require.NoError(t, err, "failed to get project root")

	return filepath.Join(projectRoot, "etc") + string(filepath.Separator)
}

func TestReadConfig(t *testing.T) {
	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	assert.Equal(t, "idsync", cfg.Title)
	assert.Equal(t, 8080, cfg.Webserver.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Webserver.URL)
	assert.Equal(t, 5*time.Minute, cfg.Webserver.StateExpiry)

	assert.Equal(t, EngineSQLite, cfg.DB.GormEngine)
	assert.Equal(t, StoreBackendGorm, cfg.Store.Backend)

	assert.Equal(t, "idsync", cfg.Keycloak.Realm)
	assert.Equal(t, "master", cfg.Keycloak.AdminRealm)
	assert.Equal(t, "idsync-web", cfg.Keycloak.WebClient.ID)
	assert.Equal(t, "idsync-mobile", cfg.Keycloak.MobileClient.ID)
	assert.Equal(t, 10*time.Second, cfg.Keycloak.Timeout)

	assert.Equal(t, []string{"openid", "profile", "email"}, cfg.OIDC.Scopes)
	assert.Equal(t, "refresh_token", cfg.Cookie.Name)

	assert.Equal(t, "OLD_", cfg.Identity.LegacyMarker)
	assert.Equal(t, 30*time.Second, cfg.Identity.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)

	assert.True(t, cfg.Log.Console.Enabled)
	assert.Equal(t, "access.log", cfg.Log.File.AccessLog)
	assert.Equal(t, 28, cfg.Log.File.WarnMaxAge)
}

func TestReadConfigMissingFile(t *testing.T) {
	_, err := ReadConfig(t.TempDir())
	require.Error(t, err)
}

func TestReadConfigEnvOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":"Test Override","Webserver":{"Port":9090},"Identity":{"LegacyMarker":"ARCHIVE_"}}`)
	t.Setenv("IDSYNC_KEYCLOAK_REALM", "other")

	cfg, err := ReadConfig(projectConfigPath(t))
	require.NoError(t, err)

	assert.Equal(t, "Test Override", cfg.Title)
	assert.Equal(t, 9090, cfg.Webserver.Port)
	assert.Equal(t, "http://localhost:8080", cfg.Webserver.URL)
	assert.Equal(t, "ARCHIVE_", cfg.Identity.LegacyMarker)
	assert.Equal(t, "other", cfg.Keycloak.Realm)
}

func TestReadConfigInvalidJSONOverride(t *testing.T) {
	t.Setenv(EnvConfigJSON, `{"Title":`)

	_, err := ReadConfig(projectConfigPath(t))
	require.Error(t, err)
}

func validConfig() Config {
	return Config{
		Webserver: Webserver{Port: 8080, URL: "http://localhost:8080", Domain: "example.com"},
		Keycloak:  keycloak.Config{Realm: "idsync", WebClient: keycloak.Client{ID: "web"}},
	}
}

func TestConfigValidation(t *testing.T) {
	testCases := []struct {
		name          string
		mutate        func(c *Config)
		expectedError error
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "missing port", mutate: func(c *Config) { c.Webserver.Port = 0 }, expectedError: ErrWebServerPortCanNotBeZero},
		{name: "missing URL", mutate: func(c *Config) { c.Webserver.URL = "" }, expectedError: ErrEmptyURL},
		{name: "missing realm", mutate: func(c *Config) { c.Keycloak.Realm = "" }, expectedError: ErrEmptyRealm},
		{name: "missing web client", mutate: func(c *Config) { c.Keycloak.WebClient.ID = "" }, expectedError: ErrEmptyWebClient},
		{name: "unknown engine", mutate: func(c *Config) { c.DB.GormEngine = "oracle" }, expectedError: ErrUnknownGormEngine},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "etcd" }, expectedError: ErrUnknownStoreBackend},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := validConfig()
			tc.mutate(&c)

			err := validate(&c)
			if tc.expectedError != nil {
				require.ErrorIs(t, err, tc.expectedError)
				return
			}

			require.NoError(t, err)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	c := validConfig()
	require.NoError(t, validate(&c))

	assert.Equal(t, 5, c.Webserver.ShutDownTime)
	assert.Equal(t, EngineMySQL, c.DB.GormEngine)
	assert.Equal(t, StoreBackendGorm, c.Store.Backend)
	assert.Equal(t, "idsync_kv", c.Store.Table)
	assert.Equal(t, "refresh_token", c.Cookie.Name)
	assert.Equal(t, "example.com", c.Cookie.Domain)
	assert.Equal(t, "en", c.Identity.DefaultLangKey)
	assert.Equal(t, "OLD_", c.Identity.LegacyMarker)
	assert.Equal(t, "token", c.Identity.PermissionSource)
	assert.Equal(t, "bcrypt", c.Identity.HashAlgorithm)
	assert.Equal(t, 10, c.Identity.BcryptCost)
	assert.Equal(t, "idsync", c.Log.AppName)
}

func TestDumpConfig(t *testing.T) {
	c := validConfig()
	c.Title = "Test"
	c.DevMode = true

	tomlStr, err := DumpConfig(c)
	require.NoError(t, err)
	assert.Contains(t, tomlStr, "Title = 'Test'")
	assert.Contains(t, tomlStr, "[Keycloak]")

	jsonStr, err := DumpConfigJSON(c)
	require.NoError(t, err)
	assert.True(t, strings.Contains(jsonStr, `"Title": "Test"`))
}
