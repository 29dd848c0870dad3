package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	domrepo "AstroCarto/internal/domain/repository"
	"AstroCarto/internal/handler/api"
	pkgch "AstroCarto/pkg/clickhouse"
	"AstroCarto/pkg/config"
	xhttp "AstroCarto/pkg/http"
	applogger "AstroCarto/pkg/logger"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	lines      *api.LinesHandler
	live       *api.LiveHandler
	archive    domrepo.Archive
	publisher  domrepo.Publisher
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	lines *api.LinesHandler,
	live *api.LiveHandler,
	archive domrepo.Archive,
	publisher domrepo.Publisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		lines:     lines,
		live:      live,
		archive:   archive,
		publisher: publisher,
		chClient:  chClient,
	}
}

// RegisterRoutes wires all HTTP endpoints onto the Echo instance.
func (a *App) RegisterRoutes(e *echo.Echo) {
	a.lines.RegisterRoutes(e)
	a.live.RegisterRoutes(e)
	e.GET("/healthz", a.health)
	e.GET("/api/diagnostics", a.diagnostics)
}

// diagnostics exposes the aggregated warning and error records of the
// current collection window.
func (a *App) diagnostics(c echo.Context) error {
	collector := a.log.Collector()
	if collector == nil {
		return c.JSON(http.StatusOK, map[string]interface{}{"entries": []interface{}{}})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"entries": collector.Recent()})
}

// health reports liveness plus the state of optional dependencies.
func (a *App) health(c echo.Context) error {
	status := map[string]string{"status": "ok"}
	code := http.StatusOK
	if a.archive != nil {
		if err := a.archive.Health(c.Request().Context()); err != nil {
			status["archive"] = err.Error()
			status["status"] = "degraded"
			code = http.StatusServiceUnavailable
		} else {
			status["archive"] = "ok"
		}
	}
	return c.JSON(code, status)
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started",
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("ephemeris", a.cfg.Ephemeris.Provider),
		applogger.Bool("archive", a.archive != nil),
		applogger.Bool("publisher", a.publisher != nil),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
