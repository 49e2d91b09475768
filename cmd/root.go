package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/obra/compose-all/pkg/config"
	"github.com/obra/compose-all/pkg/logging"
	"github.com/obra/compose-all/pkg/project"
	"github.com/obra/compose-all/pkg/runner"
	"github.com/obra/compose-all/pkg/ui"
)

// version is set at build time with -ldflags "-X github.com/obra/compose-all/cmd.version=..."
var version = "dev"

var (
	configPath  string
	verbosity   int
	dryRun      bool
	kill        bool
	noRmi       bool
	noPull      bool
	clean       bool
	assumeYes   bool
	showVersion bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "compose-all [dir]",
	Short: "Run docker compose commands in every project under a directory",
	Long: `compose-all finds every Docker Compose project below a directory and runs
the same command in each of them, one after another.

A directory is a project when it contains compose.yaml, compose.yml,
docker-compose.yaml or docker-compose.yml. Once a command fails in a project,
later commands of the same run skip it.

Without a subcommand the directory is only scanned.`,
	Args:          cobra.MaximumNArgs(1),
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.Init(verbosity)
		ui.SetColor(!logging.NoColor(os.Stdout))
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAction(cmd, runner.ActionNone, args)
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.Error("Error: "+err.Error()))
		os.Exit(1)
	}
}

func banner() string {
	return fmt.Sprintf("compose-all version %s", version)
}

func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.GetConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// buildRunConfig merges config defaults with the flags the user actually set
func buildRunConfig(cmd *cobra.Command, cfg *config.Config, action runner.Action, args []string) *runner.RunConfig {
	flags := cmd.Flags()

	opts := runner.CommandOptions{
		Kill:   cfg.Defaults.Kill,
		NoRmi:  cfg.Defaults.NoRmi,
		NoPull: cfg.Defaults.NoPull,
	}
	if flags.Changed("kill") {
		opts.Kill = kill
	}
	if flags.Changed("no-rmi") {
		opts.NoRmi = noRmi
	}
	if flags.Changed("no-pull") {
		opts.NoPull = noPull
	}

	doClean := cfg.Defaults.Clean
	if flags.Changed("clean") {
		doClean = clean
	}

	var dir string
	if len(args) > 0 {
		dir = args[0]
	}

	return &runner.RunConfig{
		Dir:         dir,
		Action:      action,
		Options:     opts,
		Clean:       doClean,
		AssumeYes:   assumeYes,
		DryRun:      dryRun,
		Verbose:     verbosity > 0,
		RequireRoot: cfg.RequireRoot,
		Scan: project.ScanOptions{
			FollowSymlinks: cfg.FollowSymlinks,
			Exclude:        cfg.Exclude,
		},
		DockerCommand:  cfg.DockerCommand,
		ComposeCommand: cfg.ComposeCommand,
		Banner:         banner(),
		Args:           os.Args,
		Logger:         logger,
	}
}

func runAction(cmd *cobra.Command, action runner.Action, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	return runner.Run(ctx, buildRunConfig(cmd, cfg, action, args))
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.CountVarP(&verbosity, "verbose", "v", "Print docker commands; repeat for trace logging")
	flags.StringVar(&configPath, "config", "", "Config file (default: $XDG_CONFIG_HOME/compose-all/config.toml)")
	flags.BoolVar(&dryRun, "dry-run", false, "Print the commands instead of running them")
	flags.BoolVar(&kill, "kill", false, `Use "compose kill" instead of "compose stop"`)
	flags.BoolVar(&noRmi, "no-rmi", false, `Do not remove images on "compose down"`)
	flags.BoolVar(&noPull, "no-pull", false, `Do not pull newer base images on "compose build"`)
	flags.BoolVar(&clean, "clean", false, "Prune ALL unused networks, images and build cache after a successful run")
	flags.BoolVarP(&assumeYes, "yes", "y", false, "Do not ask before cleaning up")

	rootCmd.Flags().BoolVarP(&showVersion, "version", "V", false, "Print version information")
	rootCmd.SetVersionTemplate(`compose-all version {{.Version}}
Runs docker compose commands across many projects.
`)
}
