package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"photoflow/internal/catalog"
	"photoflow/internal/config"
)

func newImportCommand(ctx *commandContext) *cobra.Command {
	var label string
	var noProgress bool

	cmd := &cobra.Command{
		Use:   "import <directory>",
		Short: "Import a local directory into the library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve import root: %w", err)
			}
			runLabel := strings.TrimSpace(label)
			if runLabel == "" {
				runLabel = filepath.Base(root)
			}
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				proc, err := ctx.newProcessor(cfg, store, !noProgress)
				if err != nil {
					return err
				}
				sess, err := proc.RunLocal(cmd.Context(), root, runLabel)
				if err != nil {
					return err
				}
				return reportSession(cmd, sess)
			})
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Session label (defaults to the directory name)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the terminal progress bar")
	return cmd
}

// reportSession prints a one-session summary and maps terminal failure states
// to a non-zero exit.
func reportSession(cmd *cobra.Command, sess *catalog.ImportSession) error {
	if sess == nil {
		return nil
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, renderSessionTable([]*catalog.ImportSession{sess}))
	switch sess.Status {
	case catalog.SessionError:
		return fmt.Errorf("session %d finished with failures; inspect items with `photoflow items %d` and rerun `photoflow retry %d`", sess.ID, sess.ID, sess.ID)
	case catalog.SessionCanceled:
		return fmt.Errorf("session %d was canceled", sess.ID)
	default:
		return nil
	}
}
