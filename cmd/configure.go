package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/obra/compose-all/pkg/config"
)

var configureSection string

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Edit compose-all configuration",
	Long: `Interactive configuration editor for compose-all settings.

Use --section to edit specific configuration sections:
  --section=defaults   Default command toggles (kill, no-rmi, no-pull, clean)
  --section=discovery  Symlink following and exclude patterns
  --section=runtime    Docker and compose commands, root requirement
  --section=all        All sections (default)`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveConfigure(configureSection)
	},
}

func runInteractiveConfigure(section string) error {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	logger.Debug().Msgf("Editing config: %s", path)
	logger.Debug().Msgf("Section: %s", section)

	// A broken file is edited starting from the defaults
	existing, err := config.LoadExistingOrEmpty(path)
	if err != nil {
		logger.Warn().Err(err).Msg("Existing config ignored")
	}

	values := config.NewFormValues(existing)
	form, err := config.BuildForm(section, values)
	if err != nil {
		return err
	}
	if err := form.Run(); err != nil {
		return fmt.Errorf("configuration cancelled: %w", err)
	}

	if err := values.Apply(existing); err != nil {
		return err
	}
	if err := config.Save(existing, path); err != nil {
		return err
	}

	logger.Info().Msgf("Configuration saved to %s", path)
	return nil
}

func init() {
	rootCmd.AddCommand(configureCmd)
	configureCmd.Flags().StringVar(&configureSection, "section", "all", "Configuration section to edit (defaults, discovery, runtime, all)")
}
