package main

import (
	"context"
	"flag"
	"log"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"e7-casework/activities"
	"e7-casework/archive"
	"e7-casework/bootstrap"
	"e7-casework/config"
	"e7-casework/logging"
	"e7-casework/shared"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "case database path")
	flag.StringVar(&cfg.ExportBucket, "bucket", cfg.ExportBucket, "S3 bucket for finished case packages")
	flag.Parse()

	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Unable to create logger: %v", err)
	}
	defer logger.Sync()

	// Activities read the same case database as the server. bbolt holds an
	// exclusive file lock and memory is per process, so only sqlite is shared.
	if cfg.Store != config.StoreSQLite {
		logger.Warn("activity worker needs a store shared with the server", zap.String("store", cfg.Store))
	}
	store, closeStore, err := bootstrap.OpenStore(cfg)
	if err != nil {
		logger.Fatal("Unable to open store", zap.Error(err))
	}
	defer closeStore()

	c, err := bootstrap.DialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	// The worker only reads cases and never starts lifecycles itself.
	a := &activities.Activities{Cases: bootstrap.NewService(cfg, store, nil, logger)}
	if cfg.ExportBucket != "" {
		archiver, err := archive.New(context.Background(), cfg.ExportBucket, cfg.AWSRegion)
		if err != nil {
			logger.Fatal("Unable to create archiver", zap.Error(err))
		}
		a.Archiver = archiver
	}

	w := worker.New(c, shared.ActivityTaskQueue, worker.Options{})
	w.RegisterActivity(a)

	logger.Info("Starting activity worker", zap.String("task_queue", shared.ActivityTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
