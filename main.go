package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"homecrawl/config"
	"homecrawl/crawl"
	"homecrawl/logging"
	"homecrawl/models"
	"homecrawl/scheduler"
	"homecrawl/storage"
)

var (
	batchFlag = flag.String("batch", "", "Batch id (default: most recent batch)")
	limitFlag = flag.Int("limit", 0, "Max pages for fetch/parse commands (0 = all)")
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: homecrawl [flags] <command>

Commands:
  init-batch     Create a new batch and seed its search pages
  fetch-search   Fetch pending search pages
  harvest        Extract listing URLs from saved search pages
  fetch-details  Fetch pending detail pages
  parse-details  Parse saved detail pages into canonical records
  run-all        Full pass: init, fetch, harvest, fetch, parse
  status         Show last run times and recent logs for a batch
  daemon         Run scheduled full passes until interrupted

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logFile, err := logging.Setup(cfg.LogPath, 0)
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	orchestrator := crawl.NewOrchestrator(cfg, store)
	defer orchestrator.Close()

	if cfg.PostgresURL != "" {
		pgStore, err := storage.NewPostgresStore(ctx, cfg.PostgresURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		orchestrator.SetPostgres(pgStore)
		log.Println("Postgres upserts enabled")
	}

	if cfg.S3.Bucket != "" {
		archiver, err := storage.NewPageArchiver(ctx, storage.S3Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		if err != nil {
			log.Fatalf("Failed to set up S3 archiver: %v", err)
		}
		orchestrator.SetArchiver(archiver)
		log.Printf("S3 archiving enabled: %s", cfg.S3.Bucket)
	}

	command := flag.Arg(0)
	if command == "" {
		command = "daemon"
	}

	if err := run(ctx, command, cfg, store, orchestrator); err != nil {
		log.Fatalf("%s failed: %v", command, err)
	}
}

func run(ctx context.Context, command string, cfg *config.Config, store *storage.SQLiteStore, orchestrator *crawl.Orchestrator) error {
	switch command {
	case "init-batch":
		batchID, err := orchestrator.InitBatch(ctx)
		if err != nil {
			return err
		}
		fmt.Println(batchID)
		return nil

	case "fetch-search":
		batchID, err := orchestrator.ResolveBatch(*batchFlag)
		if err != nil {
			return err
		}
		return orchestrator.RunFetchSearch(ctx, batchID, *limitFlag)

	case "harvest":
		batchID, err := orchestrator.ResolveBatch(*batchFlag)
		if err != nil {
			return err
		}
		return orchestrator.RunHarvest(ctx, batchID)

	case "fetch-details":
		batchID, err := orchestrator.ResolveBatch(*batchFlag)
		if err != nil {
			return err
		}
		return orchestrator.RunFetchDetails(ctx, batchID, *limitFlag)

	case "parse-details":
		batchID, err := orchestrator.ResolveBatch(*batchFlag)
		if err != nil {
			return err
		}
		return orchestrator.RunParseDetails(ctx, batchID, *limitFlag)

	case "run-all":
		return orchestrator.RunAll(ctx)

	case "status":
		batchID, err := orchestrator.ResolveBatch(*batchFlag)
		if err != nil {
			return err
		}
		return printStatus(store, batchID)

	case "daemon":
		sched := scheduler.New(cfg, orchestrator)
		if err := sched.Start(ctx); err != nil {
			return err
		}
		log.Println("Daemon running. Press Ctrl+C to stop.")
		<-ctx.Done()
		log.Println("Shutting down...")
		sched.Stop()
		return nil

	default:
		flag.Usage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printStatus(store *storage.SQLiteStore, batchID string) error {
	fmt.Printf("Batch %s\n", batchID)

	for _, kind := range []models.RunKind{models.RunKindFetch, models.RunKindHarvest, models.RunKindParse} {
		last, err := store.GetLastRunTime(batchID, kind)
		if err != nil {
			return err
		}
		if last.IsZero() {
			fmt.Printf("  %-8s never completed\n", kind)
			continue
		}
		fmt.Printf("  %-8s last completed %s\n", kind, last.Format(time.RFC3339))
	}

	count, err := store.GetLocationCount()
	if err != nil {
		return err
	}
	fmt.Printf("  %d locations known overall\n", count)

	logs, err := store.RecentLogs(batchID, 10)
	if err != nil {
		return err
	}
	for _, l := range logs {
		fmt.Printf("  [%s] %s %s\n", l.Level, l.Timestamp.Format(time.RFC3339), l.Message)
	}
	return nil
}
