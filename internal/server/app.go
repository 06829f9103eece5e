// Package server wires configuration, storage, services and the HTTP
// transport together and runs them until the process is signalled.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/filekeeper/internal/dbx"
	"github.com/dmitrijs2005/filekeeper/internal/logging"
	"github.com/dmitrijs2005/filekeeper/internal/server/config"
	"github.com/dmitrijs2005/filekeeper/internal/server/httpserver"
	"github.com/dmitrijs2005/filekeeper/internal/server/ratelimit"
	"github.com/dmitrijs2005/filekeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/filekeeper/internal/server/services"
	"github.com/dmitrijs2005/filekeeper/internal/server/storage"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sqlx.DB
	redis  *redis.Client
	server *httpserver.HTTPServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	return newApp(ctx, c, os.Stdout)
}

func newApp(ctx context.Context, c *config.Config, logOut io.Writer) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	logger := logging.NewJSONLogger(logOut, c.LogLevel)
	app := &App{config: c, logger: logger}

	db, err := dbx.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm := repomanager.NewSQLRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		app.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	sb, err := storage.NewSandbox(c.StorageRoot)
	if err != nil {
		app.Close()
		return nil, err
	}
	store, err := storage.NewStore(sb, storage.Limits{
		MaxFileSize: int64(c.MaxFileSize),
		UserQuota:   int64(c.UserQuota),
		ChunkSize:   config.ChunkSize,
	}, c.SerializeUploads, logger.With("module", "storage"))
	if err != nil {
		app.Close()
		return nil, err
	}

	limiter, err := app.newLimiter(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	us := services.NewUserService(db, rm, c, logger.With("module", "users"))
	fs := services.NewFileService(store, logger.With("module", "files"))
	app.server = httpserver.NewHTTPServer(c.ListenAddr, logger, us, fs, limiter)

	return app, nil
}

func (app *App) newLimiter(ctx context.Context) (ratelimit.Limiter, error) {
	if app.config.RedisURL == "" {
		return ratelimit.NewMemoryLimiter(app.config.RateLimitPerMinute, time.Minute), nil
	}

	client, err := ratelimit.NewRedisClient(ctx, app.config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	app.redis = client
	return ratelimit.NewRedisLimiter(client, app.config.RateLimitPerMinute, time.Minute, app.logger.With("module", "ratelimit")), nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// releases the database and Redis handles.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.Close()
	app.logger.Info(context.Background(), "App stopped")
}

func (app *App) Close() {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(context.Background(), "close redis", "error", err)
		}
		app.redis = nil
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(context.Background(), "close db", "error", err)
		}
		app.db = nil
	}
}
