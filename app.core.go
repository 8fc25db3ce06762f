package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/julienschmidt/httprouter"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type AppProvider interface {
	Run() error
	Serve() func() error
	Stop(context.Context, context.Context) func() error
}

type App struct {
	logger         *zap.Logger
	config         *Config
	server         *http.Server
	cleanups       []func() error
	stoppers       []func() error
	queueConsumers []func(context.Context) error
}

// NewApp provides an instance of App. A database which cannot be
// reached at startup is a fatal error: the api never serves
// requests against a nonfunctional backend.
func NewApp(configFile, envFile string) (AppProvider, error) {
	config, err := LoadAndInitConfigs(configFile, envFile, GitCommit, GitTag, BuildTime)
	if err != nil {
		return nil, fmt.Errorf("failed to setup app configuration: %w", err)
	}

	clock := NewClock(config.IsProduction)
	logWriter, err := NewRotatingFileWriter(config, clock)
	if err != nil {
		return nil, err
	}
	logger, flusher := SetupLogging(config, logWriter)

	app := &App{logger: logger, config: config}
	app.cleanups = append(app.cleanups, flusher, logWriter.Close)
	fail := func(msg string, err error) (AppProvider, error) {
		logger.Error(msg, zap.Error(err))
		app.Clean()
		return nil, fmt.Errorf("%s: %w", msg, err)
	}

	db, err := GetDatabaseClient(&config.Database)
	if err != nil {
		return fail("failed to connect to database server", err)
	}
	app.cleanups = append([]func() error{db.Close}, app.cleanups...)
	logger.Info("database connection pool ready",
		zap.String("db.driver", config.Database.Driver),
		zap.Int("db.max_open_conns", config.Database.MaxOpenConns),
	)
	bookStorage := NewSQLBookStorage(logger, config.Database.Driver, db)

	var publisher EventPublisher = nopPublisher{}
	var eventStore EventStore
	if config.Events.Enabled {
		redisClient, err := GetRedisClient(config)
		if err != nil {
			return fail("failed to connect to redis server", err)
		}
		// closing the client releases consumers blocked on the queue.
		app.stoppers = append(app.stoppers, redisClient.Close)

		boltDBClient, err := GetBoltDBClient(&config.BoltDB)
		if err != nil {
			return fail("failed to open boltdb events archive", err)
		}
		app.cleanups = append([]func() error{boltDBClient.Close}, app.cleanups...)

		queue := NewRedisQueue(redisClient)
		boltEventStore := NewBoltEventStore(logger, &config.BoltDB, boltDBClient)
		eventStore = boltEventStore
		publisher = NewQueuePublisher(logger, queue, config.Events.Queue)
		archiver := NewEventsArchiver(logger, queue, boltEventStore)
		app.queueConsumers = append(app.queueConsumers, func(ctx context.Context) error {
			return archiver.Consume(ctx, config.Events.Queue)
		})
	}

	bookService := NewBookService(logger, config, clock, bookStorage, publisher)
	apiService := NewAPIHandler(
		logger,
		config,
		&Statistics{
			version:   config.GitTag,
			container: IsAppRunningInDocker(),
			started:   clock.Now(),
			runtime:   runtime.Version(),
			platform:  runtime.GOOS + "/" + runtime.GOARCH,
		},
		clock,
		NewIDsHandler(),
		bookService,
		eventStore,
	)

	// Use git commit in case the tag is not set.
	if config.GitTag == "" {
		apiService.stats.version = config.GitCommit
	}

	public, ops := apiService.MiddlewaresStacks()
	router := apiService.SetupRoutes(httprouter.New(), &MiddlewareMap{public: public.Chain, ops: ops.Chain})
	routerWithTimeout := http.TimeoutHandler(
		router,
		config.Server.RequestTimeout,
		`{"status":503,"message":"Timeout. Processing taking too long. Please reach out to support."}`)

	app.server = &http.Server{
		Addr:           fmt.Sprintf("%s:%s", config.Server.Host, config.Server.Port),
		Handler:        routerWithTimeout,
		ReadTimeout:    config.Server.ReadTimeout,
		WriteTimeout:   config.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
	return app, nil
}

// Run starts the api web server and a goroutine which is responsible to stop it.
func (app *App) Run() error {
	defer app.Clean()
	nCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(nCtx)

	g.Go(app.ConsumeQueues(gCtx, g))
	g.Go(app.Serve())
	g.Go(app.Stop(nCtx, gCtx))

	err := g.Wait()
	app.logger.Info("api server stopped",
		zap.String("app.host", app.config.Server.Host),
		zap.String("app.port", app.config.Server.Port),
		zap.Error(err),
	)
	return err
}

// Clean calls all registered cleanups functions in order.
func (app *App) Clean() {
	for _, f := range app.cleanups {
		if err := f(); err != nil {
			fmt.Println("error during app cleanup: ", err)
		}
	}
	app.cleanups = nil
}

// Serve starts the api web server. Its returned error
// will be caught by the errorgroup.
func (app *App) Serve() func() error {
	return func() error {
		app.logger.Info("api server starting",
			zap.String("app.host", app.config.Server.Host),
			zap.String("app.port", app.config.Server.Port),
		)
		err := app.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		return err
	}
}

// Stop listens for the group context and triggers the server graceful shutdown.
// It states the reason of its call. We proceed with a brutal shutdown if the
// the graceful did not complete successfully. We explicitly return `nil` to
// allow the errorgroup catches only the `Serve` method result.
func (app *App) Stop(nCtx, gCtx context.Context) func() error {
	return func() error {
		<-gCtx.Done()

		if nCtx.Err() != nil {
			app.logger.Info("api server stopping. reason: requested to stop")
		} else {
			app.logger.Info("api server stopping. reason: errored at running")
		}

		sCtx, cancel := context.WithTimeout(context.Background(), app.config.Server.ShutdownTimeout)
		defer cancel()
		err := app.server.Shutdown(sCtx)
		switch {
		case err == nil, errors.Is(err, http.ErrServerClosed):
			app.logger.Info("api server graceful shutdown succeeded")
		case errors.Is(err, context.DeadlineExceeded):
			app.logger.Info("api server graceful shutdown timed out")
		default:
			app.logger.Info("api server graceful shutdown failed", zap.Error(err))
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Info("api server going to force shutdown", zap.Error(app.server.Close()))
		}

		for _, f := range app.stoppers {
			if serr := f(); serr != nil {
				app.logger.Info("failed to release resource at shutdown", zap.Error(serr))
			}
		}
		return nil
	}
}

// ConsumeQueues runs all queue consumers into separate controlled goroutines.
func (app *App) ConsumeQueues(gCtx context.Context, g *errgroup.Group) func() error {
	return func() error {
		for _, consume := range app.queueConsumers {
			consume := consume
			g.Go(func() error {
				return consume(gCtx)
			})
		}
		return nil
	}
}
