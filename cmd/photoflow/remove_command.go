package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

func newRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <entry-id>",
		Short: "Soft-delete a catalog entry so its content can be imported again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entryID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid entry id %q", args[0])
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				deleted, err := store.SoftDeleteEntry(cmd.Context(), entryID)
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("entry %d not found or already removed", entryID)
				}
				if err := store.ClearRetry(cmd.Context(), entryID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Entry %d removed from the catalog; the library file is kept on disk.\n", entryID)
				return nil
			})
		},
	}
}
