package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/obra/compose-all/pkg/docker"
	"github.com/obra/compose-all/pkg/project"
	"github.com/obra/compose-all/pkg/ui"
)

// ErrFailures is returned by Run when at least one command failed
var ErrFailures = errors.New("some commands failed")

// geteuid is swapped out by tests
var geteuid = os.Geteuid

type RunConfig struct {
	Dir         string
	Action      Action
	Options     CommandOptions
	Clean       bool
	AssumeYes   bool
	DryRun      bool
	Verbose     bool
	RequireRoot bool
	Scan        project.ScanOptions

	DockerCommand  string
	ComposeCommand []string

	// Banner is logged first, e.g. "compose-all version 0.3.0".
	Banner string
	// Args is the invoking command line, echoed in the closing message.
	Args []string

	Logger zerolog.Logger

	// Executor replaces the docker CLI client when set.
	Executor Executor
	// Confirm asks before cleaning up; defaults to ui.Confirm.
	Confirm func(title, description string) (bool, error)
	// Interactive reports whether a prompt can be shown; defaults to ui.IsInteractive.
	Interactive func() bool
}

// Run scans config.Dir for compose projects, runs the action's pipeline in
// each of them, reports failures, and cleans up when asked to and nothing
// failed.
func Run(ctx context.Context, config *RunConfig) error {
	log := config.Logger
	start := time.Now()
	defer func() {
		log.Info().Msg("Exiting")
		log.Info().Msgf("Time elapsed: %s", time.Since(start).Truncate(time.Second))
	}()

	if config.Banner != "" {
		log.Info().Msg(ui.Bold(config.Banner))
	}

	// Step 1: Privilege check
	if config.RequireRoot && !config.DryRun {
		if geteuid() != 0 {
			log.Error().Msg("Need root privilege")
			return fmt.Errorf("need root privilege (run as root or set require_root = false)")
		}
		log.Debug().Msg("Running as root")
	}

	// Step 2: Initialize Docker client
	exec := config.Executor
	if exec == nil {
		client, err := docker.NewClient(config.Verbose,
			docker.WithDryRun(config.DryRun),
			docker.WithDockerCommand(config.DockerCommand),
			docker.WithComposeCommand(config.ComposeCommand),
		)
		if err != nil {
			return fmt.Errorf("failed to initialize docker: %w", err)
		}
		exec = client
	}

	// Step 3: Check installation
	log.Info().Msg("Checking Docker & Docker Compose installation")
	versions, err := exec.CheckInstallation(ctx)
	if err != nil {
		log.Error().Msg(ui.Error("Docker & Docker Compose installation incomplete"))
		return fmt.Errorf("docker & docker compose installation incomplete: %w", err)
	}
	for _, v := range versions {
		log.Debug().Msg(v)
	}

	// Step 4: Discover projects
	dir, err := ResolveDir(config.Dir)
	if err != nil {
		return err
	}
	projects, err := scan(dir, config.Scan, log)
	if err != nil {
		return err
	}

	// Step 5: Run the pipeline
	r := New(exec, log)
	report, runErr := r.RunCommands(ctx, project.Dirs(projects), config.Action.Commands(config.Options))
	commandLine := ui.Bold(strings.Join(config.Args, " "))

	// Step 6: Report and clean up
	if !report.OK() || runErr != nil {
		if !report.OK() {
			log.Info().Msg("After run all commands, errors:")
			for _, failure := range report.Failures {
				log.Error().Msg(ui.Error(failure.String()))
			}
		}
		if config.Clean {
			log.Warn().Msg("Skip clean because error happened")
		}
		log.Info().Msgf("Command %s exit with some error", commandLine)

		if runErr != nil {
			if !report.OK() {
				return fmt.Errorf("interrupted: %w: %w", ErrFailures, runErr)
			}
			return fmt.Errorf("interrupted: %w", runErr)
		}
		return fmt.Errorf("%w: %d failed", ErrFailures, len(report.Failures))
	}

	if config.Clean {
		proceed, err := confirmClean(config)
		if err != nil {
			return err
		}
		if proceed {
			if err := r.Clean(ctx); err != nil {
				return fmt.Errorf("interrupted: %w", err)
			}
		} else {
			log.Warn().Msg("Skip clean because it was not confirmed")
		}
	}

	log.Info().Msgf("Command %s exit with no error", commandLine)
	return nil
}

func scan(dir string, opts project.ScanOptions, log zerolog.Logger) ([]project.Project, error) {
	if opts.OnError == nil {
		opts.OnError = func(path string, err error) {
			log.Debug().Err(err).Msgf("Cannot read %s", ui.Path(path))
		}
	}

	log.Info().Msgf("Scanning %s ...", ui.PathBold(dir))
	projects, err := project.Scan(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}
	for _, p := range projects {
		log.Info().Msgf("Found: %s", ui.Path(p.Dir))
	}
	log.Info().Msgf("Found %s Docker Compose projects", ui.Bold(len(projects)))
	return projects, nil
}

func confirmClean(config *RunConfig) (bool, error) {
	if config.AssumeYes || config.DryRun {
		return true, nil
	}
	interactive := config.Interactive
	if interactive == nil {
		interactive = ui.IsInteractive
	}
	if !interactive() {
		return true, nil
	}
	confirm := config.Confirm
	if confirm == nil {
		confirm = ui.Confirm
	}
	return confirm(
		"Remove ALL unused networks, images and build cache?",
		"This affects every project on this host, not just the ones scanned, and may cause data loss.",
	)
}

// ResolveDir expands a leading ~, makes path absolute and checks that it is
// a directory. An empty path means the working directory.
func ResolveDir(path string) (string, error) {
	if path == "" {
		path = "."
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("dir not found: %q", abs)
	}
	return abs, nil
}
