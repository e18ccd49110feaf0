// Package server initializes and runs the application: it wires the
// storage backend, the catalog and payment services, authentication, and
// the HTTP server, and handles graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/pwisniewski/hipokrates/internal/filex"
	"github.com/pwisniewski/hipokrates/internal/logging"
	"github.com/pwisniewski/hipokrates/internal/server/auth"
	"github.com/pwisniewski/hipokrates/internal/server/config"
	"github.com/pwisniewski/hipokrates/internal/server/httpapi"
	"github.com/pwisniewski/hipokrates/internal/server/services"
	"github.com/pwisniewski/hipokrates/internal/storage"
)

type App struct {
	config *config.Config
	logger logging.Logger
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout)
	ctx := context.Background()

	dataDir, err := filex.EnsureDir(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir init error: %w", err)
	}

	// A remote client that cannot be constructed leaves the store in
	// local-only mode; the service must still function.
	var remote storage.Remote
	if cfg.S3Endpoint != "" {
		s3remote, err := storage.NewS3Remote(ctx, cfg.S3Endpoint, cfg.S3Region, cfg.S3Bucket, cfg.S3AccessKey, cfg.S3SecretKey)
		if err != nil {
			logger.Warn(ctx, "object storage unavailable, running local-only", "error", err.Error())
		} else {
			remote = s3remote
		}
	}

	store := storage.NewVersionedStore(remote, dataDir, cfg.RequestTimeout, logger)

	cs := services.NewCatalogService(store, cfg.CatalogObjectKey, logger)
	ps, err := services.NewPaymentService(store, cfg.PaymentsObjectKey, logger)
	if err != nil {
		return nil, fmt.Errorf("payment service init error: %w", err)
	}

	handler := httpapi.NewHandler(
		cs,
		ps,
		auth.NewVerifier(cfg.PasswordHash, cfg.Password),
		auth.NewLoginLimiter(cfg.LoginMaxFailures, cfg.LoginLockoutWindow),
		[]byte(cfg.SecretKey),
		cfg.TokenValidityDuration,
		cfg.MaxSavePayloadBytes,
		logger,
	)

	router := httpapi.NewRouter(handler, cfg.CORSAllowedOrigins, cfg.StaticDir)
	srv := httpapi.NewServer(cfg.EndpointAddr, router, logger)

	return &App{config: cfg, logger: logger, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()
}
