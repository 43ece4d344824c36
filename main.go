package main

import (
	"bitwise74/file-share-api/app"
	"bitwise74/file-share-api/aws"
	"bitwise74/file-share-api/cloudflare"
	"bitwise74/file-share-api/config"
	"bitwise74/file-share-api/db"
	"bitwise74/file-share-api/internal"
	"bitwise74/file-share-api/internal/metrics"
	"bitwise74/file-share-api/internal/scheduler"
	"bitwise74/file-share-api/internal/service"
	"bitwise74/file-share-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	fs := config.Flags()
	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}

	cfg, err := config.Setup(fs)
	if err != nil {
		if errors.Is(err, config.ErrNoJWTSecret) {
			fmt.Printf("No JWT secret set. Set JWT_SECRET or jwt.secret in config.toml, for example:\n\n%s\n", config.GenSecret())
			os.Exit(1)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := makeLogger(cfg.App.LogLevel, cfg.App.Environment); err != nil {
		panic(err)
	}
	defer zap.L().Sync()

	if err := run(cfg); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config) error {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	database, err := db.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database, %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Storage.Timeout)
	defer cancel()

	var store *aws.S3Client
	switch cfg.Storage.Provider {
	case "r2":
		store, err = cloudflare.NewR2(ctx, &cfg.Storage)
	default:
		store, err = aws.NewS3(ctx, &cfg.Storage)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize object storage, %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := metrics.New(reg)
	d := internal.NewDeps(cfg, database, security.New(), store, service.NewMailer(&cfg.Mail), m)

	jobs, err := scheduler.Start(
		scheduler.Job{
			Name:  "pending_cleanup",
			Every: cfg.Registration.SweepInterval,
			Run:   service.PendingCleanup(d.Registrations, time.Minute),
		},
		scheduler.Job{
			Name:  "object_cleanup",
			Every: cfg.Storage.CleanupInterval,
			Run:   service.NewObjectCleanup(database, store, cfg.Storage.Timeout, m).Job,
		},
	)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Host.Port),
		Handler:           app.NewRouter(d, reg),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		zap.L().Info("Server starting", zap.String("addr", srv.Addr), zap.Bool("tls", cfg.Host.SSL.Enabled))

		var err error
		if cfg.Host.SSL.Enabled {
			err = srv.ListenAndServeTLS(cfg.Host.SSL.CertificatePath, cfg.Host.SSL.CertificateKeyPath)
		} else {
			err = srv.ListenAndServe()
		}

		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errs:
		if err != nil {
			return err
		}
	case <-quit:
	}

	zap.L().Info("Shutting down server")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	<-jobs.Stop().Done()

	return srv.Shutdown(shutdownCtx)
}
