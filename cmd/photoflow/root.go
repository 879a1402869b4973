package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	root := &cobra.Command{
		Use:           "photoflow",
		Short:         "Photoflow media ingestion",
		Long:          "Photoflow ingests photos and videos into a deduplicated library with a durable import catalog.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
	}

	root.PersistentFlags().StringVar(&configFlag, "config", "", "Path to configuration file")

	root.AddCommand(newImportCommand(ctx))
	root.AddCommand(newSyncCommand(ctx))
	root.AddCommand(newScanCommand(ctx))
	root.AddCommand(newRetryCommand(ctx))
	root.AddCommand(newCancelCommand(ctx))
	root.AddCommand(newSessionsCommand(ctx))
	root.AddCommand(newItemsCommand(ctx))
	root.AddCommand(newRemoveCommand(ctx))
	root.AddCommand(newSweepCommand(ctx))
	root.AddCommand(newConfigCommand(ctx))

	return root
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
