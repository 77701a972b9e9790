package fiber_test

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/idsync/idsync/internal/logger"
	adapter "github.com/idsync/idsync/internal/logger/adapter/fiber"
)

type accessLine struct {
	IP        string  `json:"IP"`
	Status    int     `json:"status"`
	Perf      float64 `json:"X-Performance"`
	URI       string  `json:"URI"`
	Method    string  `json:"method"`
	Host      string  `json:"host"`
	Login     string  `json:"login"`
	RequestID string  `json:"request_id"`
	Error     string  `json:"error"`
}

func newApp(cfg adapter.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		CaseSensitive: true,
		Immutable:     true,
	})

	app.Use(requestid.New())
	app.Use(adapter.New(cfg))

	app.Get("/checkalive", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	app.Get("/api/account", func(c *fiber.Ctx) error {
		c.Locals("login", "jdoe")
		return c.SendString("hello test")
	})
	app.Get("/api/fail", func(_ *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusConflict, "already exists")
	})

	return app
}

func TestNew(t *testing.T) {
	principal := func(c *fiber.Ctx) string {
		login, _ := c.Locals("login").(string)
		return login
	}

	testCases := []struct {
		name           string
		target         string
		config         logger.Log
		expectedLine   *accessLine
		expectedStatus int
	}{
		{
			name:           "account with principal",
			target:         "/api/account",
			expectedStatus: fiber.StatusOK,
			expectedLine: &accessLine{
				Status: fiber.StatusOK, URI: "/api/account", Method: fiber.MethodGet,
				Host: "example.com", Login: "jdoe",
			},
		},
		{
			name:           "raw uri with query",
			target:         "/api/unknown?ids=a,b",
			expectedStatus: fiber.StatusNotFound,
			expectedLine: &accessLine{
				Status: fiber.StatusNotFound, URI: "/api/unknown?ids=a,b", Method: fiber.MethodGet,
				Host: "example.com",
			},
		},
		{
			name:           "handler error",
			target:         "/api/fail",
			expectedStatus: fiber.StatusConflict,
			expectedLine: &accessLine{
				Status: fiber.StatusConflict, URI: "/api/fail", Method: fiber.MethodGet,
				Host: "example.com", Error: "already exists",
			},
		},
		{
			name:           "checkalive not logged",
			target:         "/checkalive",
			config:         logger.Log{DisableCheckAlive: true},
			expectedStatus: fiber.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer

			app := newApp(adapter.Config{
				Config:        tc.config,
				CheckAliveURI: "/checkalive",
				Principal:     principal,
				Output:        &out,
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, tc.target, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.expectedStatus, resp.StatusCode)
			assert.NotEmpty(t, resp.Header.Get("X-Performance"))

			if tc.expectedLine == nil {
				assert.Empty(t, out.String())
				return
			}

			var line accessLine
			require.NoError(t, json.Unmarshal(out.Bytes(), &line))

			assert.Equal(t, tc.expectedLine.Status, line.Status)
			assert.Equal(t, tc.expectedLine.URI, line.URI)
			assert.Equal(t, tc.expectedLine.Method, line.Method)
			assert.Equal(t, tc.expectedLine.Host, line.Host)
			assert.Equal(t, tc.expectedLine.Login, line.Login)
			assert.Equal(t, tc.expectedLine.Error, line.Error)
			assert.Equal(t, resp.Header.Get(fiber.HeaderXRequestID), line.RequestID)
		})
	}
}

func TestNewWithoutOutput(t *testing.T) {
	app := newApp(adapter.Config{})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/account", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
