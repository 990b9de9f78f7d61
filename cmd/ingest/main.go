package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/golang-cafe/job-alerts/internal/alert"
	"github.com/golang-cafe/job-alerts/internal/config"
	"github.com/golang-cafe/job-alerts/internal/database"
	"github.com/golang-cafe/job-alerts/internal/email"
	"github.com/golang-cafe/job-alerts/internal/external"
	"github.com/golang-cafe/job-alerts/internal/job"
	"github.com/golang-cafe/job-alerts/internal/meta"
	"github.com/golang-cafe/job-alerts/internal/server"

	"github.com/joho/godotenv"
)

// blockingNotifier runs alert dispatch inline so a one-shot run does not
// exit before subscribers are emailed.
type blockingNotifier struct {
	ctx        context.Context
	dispatcher *alert.Dispatcher
}

func (n blockingNotifier) NotifyAsync(j *job.Job) {
	n.dispatcher.NotifyOnNewJob(n.ctx, j)
}

func main() {
	source := flag.String("source", "", "sync only this source key")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall run timeout")
	flag.Parse()

	_ = godotenv.Load()
	log.Println("syncing external job sources")
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("unable to load config %v", err)
	}
	conn, err := database.GetDbConn(cfg.DatabaseUser, cfg.DatabasePassword, cfg.DatabaseHost, cfg.DatabasePort, cfg.DatabaseName, cfg.DatabaseSSLMode)
	if err != nil {
		log.Fatalf("unable to connect to postgres: %v", err)
	}
	defer database.CloseDbConn(conn)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	logger := server.NewLogger(cfg.Env)
	emailClient := email.NewClient(
		cfg.EmailAPIToken,
		cfg.EmailAPIURL,
		email.Address{Name: cfg.EmailSenderName, Email: cfg.EmailSenderAddress},
		cfg.NotificationTimeout,
	)
	dispatcher := alert.NewDispatcher(
		alert.NewRepository(conn),
		emailClient,
		alert.NewRenderer(cfg.AppURL),
		alert.WithLogger(logger),
		alert.WithSendTimeout(cfg.NotificationTimeout),
		alert.WithConcurrency(cfg.NotificationConcurrency),
	)

	fetcher, err := external.NewFetcher(cfg.ExternalCacheTTL, logger)
	if err != nil {
		log.Fatalf("unable to create fetcher: %v", err)
	}
	defer fetcher.Close()
	registry := external.NewRegistry()
	registry.Register(external.LegacySource(cfg.ExternalSourceURL))
	syncer := external.NewSyncer(
		registry,
		fetcher,
		job.NewRepository(conn),
		blockingNotifier{ctx: ctx, dispatcher: dispatcher},
		meta.NewRepository(conn),
		logger,
	)

	if *source != "" {
		res, err := syncer.Sync(ctx, *source)
		if err != nil {
			log.Fatalf("unable to sync %s: %v", *source, err)
		}
		log.Printf("%s: %d synced, %d skipped, %d failed\n", res.Source, res.Synced, res.Skipped, res.Failed)
		return
	}
	results := syncer.SyncAll(ctx)
	for _, res := range results {
		log.Printf("%s: %d synced, %d skipped, %d failed\n", res.Source, res.Synced, res.Skipped, res.Failed)
	}
	log.Printf("synced %d of %d sources\n", len(results), len(registry.Sources()))
}
