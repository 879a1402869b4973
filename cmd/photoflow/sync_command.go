package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
	"photoflow/internal/remote"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var label string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Import new media from the configured remote source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				if !cfg.Remote.Enabled {
					return fmt.Errorf("remote sync is disabled; set remote.enabled and remote.base_url in the configuration")
				}
				proc, err := ctx.newProcessor(cfg, store, !noProgress)
				if err != nil {
					return err
				}
				runLabel := strings.TrimSpace(label)
				if runLabel == "" {
					runLabel = "remote sync"
				}
				sess, err := proc.RunRemote(cmd.Context(), remote.NewClient(cfg), runLabel)
				if err != nil {
					return err
				}
				return reportSession(cmd, sess)
			})
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Session label")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	return cmd
}
