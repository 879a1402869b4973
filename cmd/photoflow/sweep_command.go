package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/thumbs"
)

func newSweepCommand(ctx *commandContext) *cobra.Command {
	var watch bool
	var cronSpec string

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Regenerate thumbnails whose retries are due",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				service := thumbs.NewService(cfg, store, thumbs.NewGenerator(cfg, nil), logger)
				owner := sweepOwner()

				if watch {
					spec := cronSpec
					if spec == "" {
						spec = cfg.Thumbnails.SweepCron
					}
					scheduler, err := thumbs.NewScheduler(spec, service, owner, logger)
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "Sweeping on schedule %q; press Ctrl-C to stop.\n", spec)
					scheduler.Start()
					<-cmd.Context().Done()
					scheduler.Stop()
					return nil
				}

				processed, err := service.Sweep(cmd.Context(), owner)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Processed %d due thumbnail retries.\n", processed)
				return reportBlockedRetries(cmd, store)
			})
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and sweep on the configured cron schedule")
	cmd.Flags().StringVar(&cronSpec, "cron", "", "Override the configured sweep schedule (e.g. \"@every 5m\")")
	return cmd
}

// reportBlockedRetries surfaces entries whose retry budget is exhausted so an
// operator can intervene with a forced regeneration.
func reportBlockedRetries(cmd *cobra.Command, store *catalog.Store) error {
	blocked, err := store.BlockedRetries(cmd.Context())
	if err != nil {
		return err
	}
	if len(blocked) == 0 {
		return nil
	}
	entries := make(map[int64]*catalog.CatalogEntry, len(blocked))
	for _, record := range blocked {
		entry, err := store.GetEntry(cmd.Context(), record.EntryID)
		if err != nil {
			return err
		}
		if entry != nil {
			entries[record.EntryID] = entry
		}
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%d entries exhausted their retry budget:\n", len(blocked))
	fmt.Fprintln(out, renderRetryTable(blocked, entries))
	return nil
}

func sweepOwner() string {
	host, err := os.Hostname()
	if err != nil {
		host = "photoflow"
	}
	return fmt.Sprintf("%s-%d-sweep", host, os.Getpid())
}
