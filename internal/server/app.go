// Package server initializes and runs the main application server.
// It opens the configured credential store, wires the auth core into the
// JSON API, starts the gRPC health port and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/wastewatch/internal/logging"
	"github.com/dmitrijs2005/wastewatch/internal/server/auth"
	"github.com/dmitrijs2005/wastewatch/internal/server/config"
	"github.com/dmitrijs2005/wastewatch/internal/server/metrics"
	"github.com/dmitrijs2005/wastewatch/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wastewatch/internal/server/rest"
	"github.com/dmitrijs2005/wastewatch/internal/server/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	gs "github.com/dmitrijs2005/wastewatch/internal/server/grpc"
)

const healthInterval = 15 * time.Second

type App struct {
	config      *config.Config
	logger      logging.Logger
	storage     *repomanager.Storage
	userService *services.UserService
	handler     http.Handler
}

// NewApp opens storage and assembles every component. The caller owns the
// returned App and must Run or Close it.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.NewJSONLogger(os.Stdout, c.LogLevel)
	}

	storage, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	logger.Info(ctx, "storage ready", "kind", storage.Kind)

	if c.IsDevelopment() && c.SecretKey == config.DefaultSecretKey {
		logger.Warn(ctx, "using the built-in development signing secret")
	}

	codec := auth.NewTokenCodec([]byte(c.SecretKey), c.TokenValidityDuration)
	us := services.NewUserService(storage.Users, auth.NewBcryptHasher(), codec, c, logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	handler := rest.NewRouter(rest.RouterDeps{
		Users:      us,
		Tokens:     codec,
		Storage:    storage,
		Metrics:    metrics.New(reg),
		Gatherer:   reg,
		Logger:     logger,
		CORSOrigin: c.CORSOrigin,
	})

	return &App{config: c, logger: logger, storage: storage, userService: us, handler: handler}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Received signal", "signal", sig.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, app.logger, app.handler, app.config.ShutdownTimeout)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.logger, app.storage, healthInterval)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves until a termination signal arrives or ctx is cancelled,
// then stops both listeners and closes storage.
func (app *App) Run(ctx context.Context) error {
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

	if app.config.EndpointAddrGRPC != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startGRPCServer(ctx, cancelFunc)
		}()
	}

	wg.Wait()

	app.logger.Info(context.Background(), "App stopped")
	return app.Close()
}

func (app *App) Close() error {
	return app.storage.Close()
}
