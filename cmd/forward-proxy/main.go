package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"

	"forward-proxy-go/internal/client"
	"forward-proxy-go/internal/config"
	"forward-proxy-go/internal/handler"
	"forward-proxy-go/internal/metrics"
	"forward-proxy-go/internal/middleware"
	"forward-proxy-go/internal/model"
	"forward-proxy-go/internal/service"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	config.LoadEnv()

	var cli config.CLI
	kong.Parse(&cli,
		kong.Name("forward-proxy"),
		kong.Description("Forwards every HTTP request to a single upstream host."),
		kong.Vars{"version": fmt.Sprintf("%s (%s, %s)", version, commit, date)},
	)

	fx.New(
		fx.Provide(
			func() *config.CLI { return &cli },
			func() handler.Version { return handler.Version(version) },
			config.Load,
			newLogger,
			newMetrics,
			newEcho,
			newAdmin,
			client.NewUpstreamClient,
			service.NewForwarder,
			handler.NewProxyHandler,
			handler.NewHealthHandler,
		),
		fx.Invoke(
			handler.RegisterRoutes,
			handler.RegisterAdminRoutes,
			warnConfigPermissions,
			closeUpstreamClient,
			startServer,
			startAdminServer,
		),
	).Run()
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(cfg.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	var h slog.Handler
	switch strings.ToLower(cfg.Log.Format) {
	case "text":
		h = slog.NewTextHandler(os.Stdout, opts)
	default:
		h = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(h)
}

// newMetrics returns nil when metrics are disabled; consumers treat nil as off.
func newMetrics(cfg *config.Config) *metrics.Metrics {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return metrics.New()
}

func newEcho(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Inbound timeouts to mitigate slow-client attacks.
	e.Server.ReadTimeout = 30 * time.Second
	// WriteTimeout is disabled (0): the upstream client timeout bounds how
	// long a response can take to produce.
	e.Server.WriteTimeout = 0
	e.Server.IdleTimeout = 120 * time.Second
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	if m != nil {
		e.Use(middleware.MetricsMiddleware(m))
	}
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dB", cfg.Server.BodyLimit.Bytes())))

	if !cfg.CORS.Disabled {
		e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
			Skipper:      notPreflight,
			AllowOrigins: []string{"*"},
			AllowMethods: model.AcceptedMethods,
		}))
	}

	logger.Info("proxy configured",
		"upstream", cfg.Upstream.Authority().String(),
		"body_limit", cfg.Server.BodyLimit.String(),
		"cors", !cfg.CORS.Disabled,
	)
	return e
}

// notPreflight skips CORS for OPTIONS requests that are not CORS preflights,
// so a plain OPTIONS reaches the proxy handler like any other method.
func notPreflight(c echo.Context) bool {
	req := c.Request()
	return req.Method == http.MethodOptions &&
		req.Header.Get(echo.HeaderAccessControlRequestMethod) == ""
}

func newAdmin(logger *slog.Logger) *handler.Admin {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = 10 * time.Second

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger.With("listener", "admin")))
	e.Use(middleware.SecurityHeaders())
	return &handler.Admin{Echo: e}
}

func warnConfigPermissions(cfg *config.Config, logger *slog.Logger) {
	cfg.WarnPermissions(logger)
}

// closeUpstreamClient releases pooled upstream connections on shutdown.
// Registered before the servers so it runs after they have drained.
func closeUpstreamClient(lc fx.Lifecycle, c *client.UpstreamClient) {
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			c.Close()
			return nil
		},
	})
}

func startServer(lc fx.Lifecycle, e *echo.Echo, cfg *config.Config, logger *slog.Logger) {
	serve(lc, e, cfg.Server.Addr(), logger.With("listener", "proxy"))
}

func startAdminServer(lc fx.Lifecycle, admin *handler.Admin, cfg *config.Config, logger *slog.Logger) {
	addr := cfg.Server.AdminAddr()
	if addr == "" {
		return
	}
	serve(lc, admin.Echo, addr, logger.With("listener", "admin"))
}

func serve(lc fx.Lifecycle, e *echo.Echo, addr string, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("bind %s: %w", addr, err)
			}
			logger.Info("starting server", "addr", addr)
			go func() {
				if err := e.Server.Serve(ln); err != nil && err != http.ErrServerClosed {
					logger.Error("server error", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server")
			return e.Shutdown(ctx)
		},
	})
}
