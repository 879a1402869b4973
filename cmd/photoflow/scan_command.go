package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var reclaim bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the catalog for unfinished and failed work",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				out := cmd.OutOrStdout()

				if reclaim {
					proc, err := ctx.newProcessor(cfg, store, false)
					if err != nil {
						return err
					}
					reclaimed, err := proc.ReclaimStale(cmd.Context())
					if err != nil {
						return err
					}
					if reclaimed > 0 {
						fmt.Fprintf(out, "Re-enqueued %d abandoned claims.\n", reclaimed)
					}
				}

				entries, err := store.CountEntries(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Catalog holds %d entries.\n", entries)

				sessions, err := store.ListSessions(cmd.Context(), 100)
				if err != nil {
					return err
				}
				var pending []*catalog.ImportSession
				for _, sess := range sessions {
					if !sess.Status.Terminal() || sess.FailedCount > 0 {
						pending = append(pending, sess)
					}
				}

				if len(pending) == 0 {
					fmt.Fprintln(out, "No unfinished or failed sessions.")
				} else {
					fmt.Fprintf(out, "%d sessions need attention:\n", len(pending))
					fmt.Fprintln(out, renderSessionTable(pending))
				}

				due, err := store.DueRetries(cmd.Context(), time.Now(), 0)
				if err != nil {
					return err
				}
				if len(due) > 0 {
					fmt.Fprintf(out, "%d thumbnail retries are due; run `photoflow sweep`.\n", len(due))
				}
				return reportBlockedRetries(cmd, store)
			})
		},
	}

	cmd.Flags().BoolVar(&reclaim, "reclaim", false, "Return claims abandoned past the claim timeout to the queue")
	return cmd
}
