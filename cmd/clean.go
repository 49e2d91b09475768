package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obra/compose-all/pkg/docker"
	"github.com/obra/compose-all/pkg/runner"
	"github.com/obra/compose-all/pkg/ui"
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Prune unused networks, images and build cache",
	Long: `Remove ALL unused networks, images and build cache on this host.

This is the cleanup a successful run performs with --clean, without running
anything in the projects first. It may cause data loss.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		client, err := docker.NewClient(verbosity > 0,
			docker.WithDryRun(dryRun),
			docker.WithDockerCommand(cfg.DockerCommand),
			docker.WithComposeCommand(cfg.ComposeCommand),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize docker: %w", err)
		}

		if !assumeYes && !dryRun && ui.IsInteractive() {
			ok, err := ui.Confirm(
				"Remove ALL unused networks, images and build cache?",
				"This affects every project on this host and may cause data loss.",
			)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warn().Msg("Skip clean because it was not confirmed")
				return nil
			}
		}

		ctx, stop := signalContext(cmd)
		defer stop()

		return runner.New(client, logger).Clean(ctx)
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
}
