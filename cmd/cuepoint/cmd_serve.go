package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"cuepoint/internal/bookings"
	"cuepoint/internal/chat"
	"cuepoint/internal/cms"
	"cuepoint/internal/content"
	"cuepoint/internal/logging"
	"cuepoint/internal/perf"
	"cuepoint/internal/persist"
	"cuepoint/internal/server"
	"cuepoint/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the CuePoint API server",
	Long: `Starts the HTTP API server plus its background workers:
the booking retry loop, the session TTL sweeper, and the CMS seed
file watcher. Shuts down gracefully on SIGINT/SIGTERM.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Starting CuePoint",
		zap.String("addr", cfg.Server.Addr),
		zap.String("db", cfg.Storage.DatabasePath))

	db, err := persist.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	snapshots, err := persist.NewSnapshotStore(db)
	if err != nil {
		return fmt.Errorf("failed to init snapshot store: %w", err)
	}
	sessions := session.NewManager(snapshots, cfg.GetSessionTTL())

	deliverer := bookings.NewHTTPDeliverer(cfg.CRM.BaseURL, cfg.GetCRMTimeout())
	queue, err := bookings.NewQueue(db, deliverer)
	if err != nil {
		return fmt.Errorf("failed to init booking queue: %w", err)
	}

	catalog, err := content.LoadCatalog(cfg.Content.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	seeds, err := cms.LoadSeeds(cfg.CMS.SeedPath)
	if err != nil {
		return fmt.Errorf("failed to load seeds: %w", err)
	}
	cmsStore, err := cms.NewStore(db, seeds)
	if err != nil {
		return fmt.Errorf("failed to init cms store: %w", err)
	}

	responder, err := chat.LoadRulebook(cfg.Chat.RulebookPath)
	if err != nil {
		return fmt.Errorf("failed to load rulebook: %w", err)
	}

	monitor := perf.NewMonitor(cfg.Perf.BufferSize, cfg.GetSlowThreshold())
	srv := server.New(cfg, sessions, catalog, queue, cmsStore, responder, monitor)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return queue.RunRetryLoop(gctx, cfg.GetRetryInterval(), deliverer.Healthy)
	})

	g.Go(func() error {
		sessions.RunSweeper(gctx, cfg.GetSweepInterval())
		return nil
	})

	if cfg.CMS.WatchSeed && cfg.CMS.SeedPath != "" {
		watcher, err := cms.NewSeedWatcher(cfg.CMS.SeedPath, cmsStore)
		if err != nil {
			return fmt.Errorf("failed to init seed watcher: %w", err)
		}
		if err := watcher.Start(gctx); err != nil {
			return fmt.Errorf("failed to start seed watcher: %w", err)
		}
		defer watcher.Stop()
	}

	logging.Boot("all components started")

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("CuePoint stopped")
	return nil
}
