package cmd

import (
	"github.com/spf13/cobra"

	"github.com/obra/compose-all/pkg/runner"
)

func newActionCmd(action runner.Action) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " [dir]",
		Short: action.Description(),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAction(cmd, action, args)
		},
	}
}

func init() {
	for _, action := range runner.Actions {
		rootCmd.AddCommand(newActionCmd(action))
	}
}
