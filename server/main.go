package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"e7-casework/api"
	"e7-casework/bootstrap"
	"e7-casework/casework"
	"e7-casework/config"
	"e7-casework/lifecycle"
	"e7-casework/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.Store, "store", cfg.Store, "case store: sqlite, bbolt or memory")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "case database path")
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Unable to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
	logger.Info("Server gracefully stopped")
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := bootstrap.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	var (
		notifier casework.Notifier
		opts     []api.Option
	)
	if cfg.TemporalEnabled() {
		c, err := bootstrap.DialTemporal(cfg, logger)
		if err != nil {
			return err
		}
		defer c.Close()
		n := lifecycle.NewNotifier(c, logger)
		notifier = n
		opts = append(opts, api.WithLifecycle(n))
	} else {
		logger.Info("Temporal not configured; case lifecycle workflows are disabled")
	}

	svc := bootstrap.NewService(cfg, store, notifier, logger)
	opts = append(opts, api.WithMaxBody(cfg.MaxUploadBytes+1<<20))
	router := api.NewRouter(logger, svc, opts...)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Server started",
			zap.String("addr", cfg.HTTPAddr),
			zap.String("store", cfg.Store),
			zap.String("public_origin", cfg.PublicOrigin))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
