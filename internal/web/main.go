package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/idsync/idsync/internal/auth"
	"github.com/idsync/idsync/internal/config"
	"github.com/idsync/idsync/internal/identity"
	fiberlogger "github.com/idsync/idsync/internal/logger/adapter/fiber"
	"github.com/idsync/idsync/internal/web/handler"
	"github.com/idsync/idsync/internal/web/handler/account"
	oidchandler "github.com/idsync/idsync/internal/web/handler/auth/oidc"
	"github.com/idsync/idsync/internal/web/handler/groups"
	"github.com/idsync/idsync/internal/web/handler/registration"
	"github.com/idsync/idsync/internal/web/handler/token"
	authmiddleware "github.com/idsync/idsync/internal/web/middleware/auth"
)

const (
	// CheckAlivePath answers load balancer health checks.
	CheckAlivePath = "/checkalive"
	// MetricsPath exposes the prometheus metrics.
	MetricsPath = "/metrics"
)

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
}

// Options holds the optional collaborators of the web service.
type Options struct {
	// StateStorage keeps OIDC state tokens. Defaults to process memory.
	StateStorage fiber.Storage
	// FastShutDown skips the graceful shutdown wait.
	FastShutDown bool
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: set status to fail, so checkalive returns fail.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		if err := s.App.Shutdown(); err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// CheckAlive answers 200 while the service accepts traffic and 503 during
// a graceful shutdown.
func (s *Service) CheckAlive(c *fiber.Ctx) error {
	if !s.alive.Load() {
		return c.Status(fiber.StatusServiceUnavailable).SendString("shutting down")
	}

	return c.SendString("OK")
}

// principalLogin returns the login of the request principal for the access log.
func principalLogin(c *fiber.Ctx) string {
	principal, err := auth.Principal(c)
	if err != nil {
		return ""
	}

	return principal.Login
}

// cleanPath collapses repeated slashes of the request path.
func cleanPath(c *fiber.Ctx) error {
	if p := c.Path(); strings.Contains(p, "//") {
		c.Path(path.Clean(p))
	}

	return c.Next()
}

// New creates a new web service with the given configuration.
func New(cfg *config.Config, engine *identity.Engine, authService *auth.Service, opts Options) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if engine == nil {
		panic("engine cannot be nil")
	}

	if authService == nil {
		panic("auth service cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   handler.ErrorHandler,
		},
	)

	app.Use(requestid.New())

	if !cfg.Webserver.DisableRecover {
		app.Use(recover.New(recover.Config{EnableStackTrace: cfg.DevMode}))
	}

	if cfg.Webserver.CleanPath {
		app.Use(cleanPath)
	}

	if cfg.Webserver.AllowOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Webserver.AllowOrigins,
			AllowCredentials: true,
		}))
	}

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAlivePath,
		Principal:     principalLogin,
	}))

	app.Use(authmiddleware.Middleware(authService))

	if cfg.Identity.Timeout > 0 {
		app.Use(timeout.NewWithContext(func(c *fiber.Ctx) error {
			return c.Next()
		}, cfg.Identity.Timeout))
	}

	service := &Service{
		cfg:          cfg,
		App:          app,
		fastShutDown: opts.FastShutDown,
	}
	service.alive.Store(true)

	app.Get(CheckAlivePath, service.CheckAlive)
	app.Get(MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	oidchandler.Handler.UseStorage(opts.StateStorage)

	// init handlers (they register their own routes with permission checks)
	for _, h := range []handler.Service{
		&token.Handler,
		&account.Handler,
		&registration.Handler,
		&groups.Handler,
		&oidchandler.Handler,
	} {
		h.Init(app, cfg, engine, authService)
	}

	return service
}
