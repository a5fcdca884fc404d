// Package server wires configuration, storage, services and transports
// together and runs the gRPC and HTTP endpoints until a shutdown signal.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/gophvote/internal/logging"
	"github.com/dmitrijs2005/gophvote/internal/metrics"
	"github.com/dmitrijs2005/gophvote/internal/server/cache"
	"github.com/dmitrijs2005/gophvote/internal/server/config"
	"github.com/dmitrijs2005/gophvote/internal/server/httpapi"
	"github.com/dmitrijs2005/gophvote/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophvote/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophvote/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	redis           *redis.Client
	metrics         *metrics.Metrics
	userService     *services.UserService
	proposalService *services.ProposalService
	archiveService  *services.ArchiveService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := metrics.New(nil)
	opts := []services.ProposalOption{services.WithLogger(logger), services.WithMetrics(m)}

	var rdb *redis.Client
	if c.RedisURL != "" {
		rdb, err = cache.NewClient(c.RedisURL)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("cache init error: %w", err)
		}
		opts = append(opts, services.WithCache(cache.NewProposalCache(rdb, c.CacheTTL)))
		logger.Info(ctx, "proposal cache enabled")
	}

	ps := services.NewProposalService(db, rm, c, opts...)
	as := services.NewArchiveService(ps, c)
	if !as.Enabled() {
		logger.Info(ctx, "exports disabled, no S3 endpoint configured")
	}

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		redis:           rdb,
		metrics:         m,
		userService:     services.NewUserService(db, rm, c),
		proposalService: ps,
		archiveService:  as,
	}, nil
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

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.metrics,
		app.userService, app.proposalService, app.archiveService, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := httpapi.NewRouter(httpapi.Deps{
		Users:     app.userService,
		Proposals: app.proposalService,
		Archive:   app.archiveService,
		Metrics:   app.metrics,
		Logger:    app.logger,
		JWTSecret: []byte(app.config.SecretKey),
	})

	s := httpapi.NewServer(app.config.EndpointAddrHTTP, router, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run blocks until both transports have stopped, then releases storage.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.close(context.Background())
}

func (app *App) close(ctx context.Context) {
	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Warn(ctx, "error closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Warn(ctx, "error closing database", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
