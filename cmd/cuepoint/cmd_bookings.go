package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cuepoint/internal/bookings"
	"cuepoint/internal/persist"
)

var bookingsCmd = &cobra.Command{
	Use:   "bookings",
	Short: "Inspect and replay the offline booking queue",
}

var bookingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all bookings with their sync status",
	RunE:  runBookingsList,
}

var bookingsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay pending bookings against the CRM",
	RunE:  runBookingsSync,
}

func openQueue() (*bookings.Queue, func(), error) {
	db, err := persist.Open(cfg.Storage.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	deliverer := bookings.NewHTTPDeliverer(cfg.CRM.BaseURL, cfg.GetCRMTimeout())
	queue, err := bookings.NewQueue(db, deliverer)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to init booking queue: %w", err)
	}
	return queue, func() { db.Close() }, nil
}

func runBookingsList(cmd *cobra.Command, args []string) error {
	queue, closeDB, err := openQueue()
	if err != nil {
		return err
	}
	defer closeDB()

	all, err := queue.All()
	if err != nil {
		return fmt.Errorf("failed to list bookings: %w", err)
	}
	if len(all) == 0 {
		fmt.Println("No bookings recorded.")
		return nil
	}

	fmt.Printf("%-36s %-16s %-10s %-6s %s\n", "ID", "NAME", "DATE", "TIME", "STATUS")
	for _, b := range all {
		status := "pending"
		if b.Synced {
			status = "synced"
		}
		fmt.Printf("%-36s %-16s %-10s %-6s %s\n", b.ID, b.Name, b.Date, b.Time, status)
	}
	return nil
}

func runBookingsSync(cmd *cobra.Command, args []string) error {
	queue, closeDB, err := openQueue()
	if err != nil {
		return err
	}
	defer closeDB()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetCRMTimeout()*4)
	defer cancel()

	logger.Info("Replaying booking queue", zap.String("crm", cfg.CRM.BaseURL))
	stats, err := queue.Sync(ctx)
	if err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	fmt.Printf("Attempted: %d  Delivered: %d  Failed: %d\n", stats.Attempted, stats.Delivered, stats.Failed)
	return nil
}

func init() {
	bookingsCmd.AddCommand(bookingsListCmd)
	bookingsCmd.AddCommand(bookingsSyncCmd)
}
