// Command alertmatch runs one alert matching pass and exits. It is meant
// to be invoked by an external scheduler (cron, systemd timer); the claim
// step in the matcher keeps overlapping invocations safe.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"groupsentry/internal/config"
	"groupsentry/internal/database"
	"groupsentry/internal/metrics"
	"groupsentry/internal/service"

	"github.com/sirupsen/logrus"
)

var (
	configPath = flag.String("config", "config.json", "Path to configuration file")
	batchSize  = flag.Int("batch-size", 0, "Override configured batch size")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()

	if err := run(); err != nil {
		logrus.Fatalf("Alert matching failed: %v", err)
	}
}

func run() error {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if *verbose {
		logger.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	size := cfg.Matcher.BatchSize
	if *batchSize > 0 {
		size = *batchSize
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Matcher.TimeoutSec)*time.Second)
	defer cancel()

	matcher := service.NewMatcher(db, size, metrics.NewRegistry(), logger)

	stats, err := matcher.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "claimed=%d processed=%d alerts=%d failed=%d\n",
		stats.Claimed, stats.Processed, stats.Alerts, stats.Failed)

	if stats.Failed > 0 {
		return fmt.Errorf("%d messages failed evaluation and were released for retry", stats.Failed)
	}
	return nil
}
