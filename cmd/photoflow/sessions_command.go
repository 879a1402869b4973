package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

func newSessionsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recent import sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				var sessions []*catalog.ImportSession
				var err error
				if since > 0 {
					sessions, err = store.SessionsSince(cmd.Context(), time.Now().Add(-since))
				} else {
					sessions, err = store.ListSessions(cmd.Context(), limit)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(sessions) == 0 {
					fmt.Fprintln(out, "No import sessions recorded.")
					return nil
				}
				fmt.Fprintln(out, renderSessionTable(sessions))
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of sessions to list")
	cmd.Flags().DurationVar(&since, "since", 0, "Only list sessions updated within this duration (e.g. 24h)")
	return cmd
}

func newItemsCommand(ctx *commandContext) *cobra.Command {
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "items <session-id>",
		Short: "List the items of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			var statuses []catalog.ItemStatus
			if statusFilter != "" {
				status, ok := catalog.ParseItemStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown item status %q", statusFilter)
				}
				statuses = append(statuses, status)
			} else {
				statuses = catalog.AllItemStatuses()
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				items, err := store.ItemsBySessionAndStatus(cmd.Context(), sessionID, statuses...)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(items) == 0 {
					fmt.Fprintln(out, "No items matched.")
					return nil
				}
				fmt.Fprintln(out, renderItemTable(items))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&statusFilter, "status", "s", "", "Only show items with this status (pending, enqueued, running, imported, dup, failed, expired)")
	return cmd
}
