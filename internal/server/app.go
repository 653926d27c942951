// Package server initializes and runs the main application server.
// It opens the database, applies migrations, wires services, and starts the
// HTTP and metrics listeners with graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dkovalev/notelist/internal/common"
	"github.com/dkovalev/notelist/internal/logging"
	"github.com/dkovalev/notelist/internal/server/config"
	"github.com/dkovalev/notelist/internal/server/metrics"
	"github.com/dkovalev/notelist/internal/server/repositories/repomanager"
	"github.com/dkovalev/notelist/internal/server/services"
	"github.com/dkovalev/notelist/internal/server/web"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	userService *services.UserService
	noteService *services.NoteService
}

func NewApp(c *config.Config) (*App, error) {

	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	if c.SessionSecret == "" {
		secret, err := common.MakeRandHexString(32)
		if err != nil {
			return nil, fmt.Errorf("session secret generation error: %w", err)
		}
		c.SessionSecret = secret
		logger.Warn(context.Background(), "No session secret configured, generated an ephemeral one; sessions will not survive a restart")
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	if err := m.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	us := services.NewUserService(db, m, c)
	ns := services.NewNoteService(db, m)

	metrics.Init()

	return &App{config: c, logger: logger, db: db, userService: us, noteService: ns}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := web.NewServer(app.config, app.logger, app.userService, app.noteService)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	srv := &http.Server{
		Addr:              app.config.EndpointAddrMetrics,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.EndpointAddrMetrics)

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	// Clean out sessions that expired while the server was down.
	if n, err := app.userService.PurgeExpiredSessions(ctx); err != nil {
		app.logger.Warn(ctx, "session purge failed", "error", err.Error())
	} else if n > 0 {
		app.logger.Info(ctx, "purged expired sessions", "count", n)
	}

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
