// Command prune-webhook-events deletes webhook delivery records past the
// retention window. The webhook_events table only exists for idempotency,
// so rows older than any platform's retry horizon are dead weight. Run it
// from cron.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/acosmic/acosmibot-api/internal/database"
)

func main() {
	var (
		databaseURL = flag.String("database", os.Getenv("DATABASE_URL"), "Postgres URL (or set DATABASE_URL env)")
		retention   = flag.Duration("retention", 30*24*time.Hour, "Keep events newer than this")
		dryRun      = flag.Bool("dry-run", false, "Report what would be deleted without deleting")
		verbose     = flag.Bool("verbose", false, "Verbose logging")
	)
	flag.Parse()

	if *databaseURL == "" {
		log.Fatal("Postgres URL required (--database or DATABASE_URL env)")
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	slog.SetDefault(slog.New(handler))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := database.Connect(ctx, *databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	events := database.NewWebhookEventRepo(pool)
	cutoff := time.Now().Add(-*retention)
	slog.Info("Pruning webhook events", "cutoff", cutoff.Format(time.RFC3339), "dry_run", *dryRun)

	if *dryRun {
		count, err := events.CountOlderThan(ctx, cutoff)
		if err != nil {
			log.Fatalf("Count failed: %v", err)
		}
		slog.Info("Dry run complete", "would_delete", count)
		return
	}

	deleted, err := events.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		log.Fatalf("Prune failed: %v", err)
	}
	slog.Info("Prune complete", "deleted", deleted)
}
