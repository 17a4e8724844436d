// Package server wires the guildgate components together: the application
// store, the chat bridge hub, the workflow services, the staff gRPC API and
// the HTTP surface. It also owns graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/guildgate/internal/logging"
	"github.com/dmitrijs2005/guildgate/internal/server/commands"
	"github.com/dmitrijs2005/guildgate/internal/server/config"
	"github.com/dmitrijs2005/guildgate/internal/server/gateway"
	"github.com/dmitrijs2005/guildgate/internal/server/httpapi"
	"github.com/dmitrijs2005/guildgate/internal/server/photostore"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/applications"
	"github.com/dmitrijs2005/guildgate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/guildgate/internal/server/services"
	"github.com/robfig/cron/v3"

	gs "github.com/dmitrijs2005/guildgate/internal/server/grpc"
)

// viewSweepSchedule is how often expired review views are dropped.
const viewSweepSchedule = "@every 1m"

type App struct {
	config     *config.Config
	logger     logging.Logger
	db         *sql.DB
	hub        *gateway.Hub
	workflow   *services.Workflow
	dispatcher *commands.Dispatcher
	cron       *cron.Cron
}

// openDB is a seam for tests.
var openDB = func(dsn string) (*sql.DB, error) {
	return sql.Open("pgx", dsn)
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)
	return newApp(context.Background(), c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	app := &App{config: c, logger: logger}

	store, err := app.initStore(ctx)
	if err != nil {
		return nil, err
	}

	app.hub = gateway.NewHub(logger, c.NotifyRatePerSecond, c.NotifyBurst)

	deps := services.Deps{Store: store, Gateway: app.hub, Logger: logger}
	if c.ArchivePhotos {
		archive := photostore.NewS3Archive(photostore.Settings{
			Region:       c.S3Region,
			RootUser:     c.S3RootUser,
			RootPassword: c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
		})
		deps.Archiver = archive
		deps.Resolver = archive
	}

	app.workflow = services.NewWorkflow(deps, services.Settings{
		AdminChannel:   c.AdminChannel,
		WelcomeChannel: c.WelcomeChannel,
		PhotoTimeout:   c.PhotoCollectionTimeout,
		ResetOnPhoto:   c.PhotoTimeoutResets,
		ViewIdleExpiry: c.ReviewViewIdleExpiry,
	})
	app.dispatcher = commands.NewDispatcher(app.workflow)
	app.hub.SetCommandHandler(app.dispatcher)

	app.cron = cron.New()
	if _, err := app.workflow.Views.Schedule(app.cron, viewSweepSchedule); err != nil {
		return nil, fmt.Errorf("schedule view sweep: %w", err)
	}

	return app, nil
}

func (app *App) initStore(ctx context.Context) (applications.Repository, error) {
	if app.config.UsesMemoryStore() {
		app.logger.Warn(ctx, "using in-memory application store; data is lost on restart")
		return applications.NewMemoryRepository(), nil
	}

	db, err := openDB(app.config.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations: %w", err)
	}

	app.db = db
	return rm.Applications(db), nil
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

	s, err := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.dispatcher, app.config.SecretKey)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	} else {

		if err := s.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddrHTTP, app.logger, app.hub, app.config.BridgeTokenHash)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until ctx is cancelled or a termination signal arrives, then
// finalizes open photo sessions and releases resources.
func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)
	app.cron.Start()

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
	app.shutdown(context.WithoutCancel(ctx))
}

func (app *App) shutdown(ctx context.Context) {
	app.logger.Info(ctx, "Shutting down...")

	<-app.cron.Stop().Done()

	// bridge sockets outlive the HTTP listener; they carry the final
	// progress updates and admin alerts until the hub is drained
	app.workflow.Close()
	app.hub.Shutdown()

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Warn(ctx, "db close", "error", err)
		}
	}
	app.logger.Info(ctx, "Stopped")
}
