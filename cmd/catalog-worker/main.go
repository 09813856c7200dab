package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/zoff-tech/catalog-ingest/pkg/broker"
	"github.com/zoff-tech/catalog-ingest/pkg/config"
	"github.com/zoff-tech/catalog-ingest/pkg/events"
	"github.com/zoff-tech/catalog-ingest/pkg/ingest"
	"github.com/zoff-tech/catalog-ingest/pkg/progress"
	"github.com/zoff-tech/catalog-ingest/pkg/store"
	"github.com/zoff-tech/catalog-ingest/pkg/telemetry"
	"github.com/zoff-tech/catalog-ingest/pkg/webhook"
)

func main() {
	ctx := context.Background()

	// Load configuration from file or environment
	cfg, err := config.LoadFromFile("./cmd/catalog-worker")
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	// Validate the configuration
	err = cfg.Validate()
	if err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	// Initialize telemetry (tracing and metrics)
	shutdownTelemetry, err := telemetry.Init(cfg.Observability)
	if err != nil {
		log.Fatal("Failed to initialize telemetry: ", err)
	}
	defer shutdownTelemetry() // Ensure telemetry is properly shut down on exit

	// Initialize the product repository
	repo, err := store.NewRepository(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to initialize repository: ", err)
	}

	// Open the progress store
	jobs, err := progress.OpenBadgerStore(cfg.Progress.Path, cfg.Progress.InMemory, cfg.Progress.TTL)
	if err != nil {
		log.Fatal("Failed to open progress store: ", err)
	}
	defer jobs.Close()

	// Initialize the optional event mirror and the bus
	mirror, err := broker.NewBroker(ctx, &cfg.Broker)
	if err != nil {
		log.Fatal("Failed to initialize broker: ", err)
	}
	bus := events.NewBus(mirror)
	defer bus.Close()

	// Wire webhook delivery to the bus
	source, err := webhook.NewStaticSource(cfg.Webhook.Subscriptions)
	if err != nil {
		log.Fatal("Invalid webhook subscriptions: ", err)
	}
	dispatcher, err := webhook.NewDispatcher(source, cfg.Webhook)
	if err != nil {
		log.Fatal("Failed to initialize dispatcher: ", err)
	}
	defer dispatcher.Close()
	bus.Subscribe(dispatcher.HandleEvent)

	// Create the import runner
	runner, err := ingest.NewRunner(repo, jobs, bus, cfg.Import)
	if err != nil {
		log.Fatal("Failed to initialize runner: ", err)
	}
	defer runner.Close()

	// With a CSV path argument, run a single import and exit; otherwise
	// stay up as a worker until signaled.
	if len(os.Args) > 1 {
		jobID := uuid.NewString()
		if err := runner.StartImport(ctx, jobID, ingest.FileSource(os.Args[1]), cfg.Import.ChunkSize); err != nil {
			log.Fatal("Failed to start import: ", err)
		}
		log.Printf("Import job %s started for %s", jobID, os.Args[1])
		pollStatus(ctx, runner, jobID)
		return
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down")
}

func pollStatus(ctx context.Context, runner *ingest.Runner, jobID string) {
	for {
		entry, err := runner.GetStatus(ctx, jobID)
		if err != nil {
			time.Sleep(time.Second)
			continue
		}
		log.Printf("Job %s: %s %d%% (%d/%d) %s",
			entry.JobID, entry.Status, entry.Percent, entry.Processed, entry.Total, entry.Message)
		if entry.Status == progress.StatusCompleted || entry.Status == progress.StatusFailed {
			return
		}
		time.Sleep(time.Second)
	}
}
