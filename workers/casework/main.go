package main

import (
	"log"

	"go.temporal.io/sdk/worker"
	"go.uber.org/zap"

	"e7-casework/bootstrap"
	"e7-casework/config"
	"e7-casework/logging"
	"e7-casework/shared"
	"e7-casework/workflows"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Unable to load config: %v", err)
	}
	logger, err := logging.New(cfg.Environment)
	if err != nil {
		log.Fatalf("Unable to create logger: %v", err)
	}
	defer logger.Sync()

	c, err := bootstrap.DialTemporal(cfg, logger)
	if err != nil {
		logger.Fatal("Unable to create Temporal client", zap.Error(err))
	}
	defer c.Close()

	// Workflow tasks do no I/O; the default worker options are enough.
	w := worker.New(c, shared.CaseWorkflowTaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.CaseLifecycleWorkflow)
	w.RegisterWorkflow(workflows.CasePackageWorkflow)

	logger.Info("Starting case workflow worker", zap.String("task_queue", shared.CaseWorkflowTaskQueue))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal("Unable to start worker", zap.Error(err))
	}
}
