package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

func newRetryCommand(ctx *commandContext) *cobra.Command {
	var noProgress bool
	var dryRun bool
	var since time.Duration

	cmd := &cobra.Command{
		Use:   "retry [session-id]",
		Short: "Re-run the failed items of a session, or of all sessions within a time window",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && since <= 0 {
				return fmt.Errorf("provide a session id or --since window")
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				proc, err := ctx.newProcessor(cfg, store, !noProgress)
				if err != nil {
					return err
				}

				if len(args) == 1 {
					sessionID, err := strconv.ParseInt(args[0], 10, 64)
					if err != nil {
						return fmt.Errorf("invalid session id %q", args[0])
					}
					sess, err := proc.RetrySession(cmd.Context(), sessionID)
					if err != nil {
						return err
					}
					return reportSession(cmd, sess)
				}

				sessions, err := store.SessionsSince(cmd.Context(), time.Now().Add(-since))
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				var retried []*catalog.ImportSession
				for _, candidate := range sessions {
					if candidate.FailedCount == 0 || !candidate.Status.Terminal() {
						continue
					}
					if candidate.RemoteAccount != "" {
						fmt.Fprintf(out, "Skipping session %d: remote imports are retried with `photoflow sync`.\n", candidate.ID)
						continue
					}
					if dryRun {
						retried = append(retried, candidate)
						continue
					}
					sess, err := proc.RetrySession(cmd.Context(), candidate.ID)
					if err != nil {
						return err
					}
					retried = append(retried, sess)
				}
				if len(retried) == 0 {
					fmt.Fprintln(out, "No sessions with failed items in the window.")
					return nil
				}
				if dryRun {
					fmt.Fprintf(out, "%d sessions would be retried:\n", len(retried))
					fmt.Fprintln(out, renderSessionTable(retried))
					return nil
				}
				fmt.Fprintln(out, renderSessionTable(retried))
				for _, sess := range retried {
					if sess.Status == catalog.SessionError {
						return fmt.Errorf("session %d still has failures after retry", sess.ID)
					}
				}
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the sessions that would be retried without running them")
	cmd.Flags().DurationVar(&since, "since", 0, "Retry every failed session updated within this duration (e.g. 24h)")
	return cmd
}

func newCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <session-id>",
		Short: "Request cancellation of a running session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if err := store.RequestSessionCancel(cmd.Context(), sessionID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for session %d; in-flight items finish, pending items expire.\n", sessionID)
				return nil
			})
		},
	}
}
