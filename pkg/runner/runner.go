// Package runner drives compose commands across every discovered project,
// one project and one command at a time.
package runner

import (
	"context"
	"fmt"

	"github.com/kballard/go-shellquote"
	"github.com/rs/zerolog"

	"github.com/obra/compose-all/pkg/ui"
)

// Executor runs docker and compose commands. *docker.Client implements it.
type Executor interface {
	Compose(ctx context.Context, dir string, args ...string) error
	Docker(ctx context.Context, args ...string) error
	ComposeArgv(args ...string) []string
	Command() string
	CheckInstallation(ctx context.Context) ([]string, error)
}

// Failure records one command that failed in one project
type Failure struct {
	Dir     string
	Command []string
	Err     error
}

func (f Failure) String() string {
	return fmt.Sprintf("Dir: %q, Command: %s, Error: %v", f.Dir, shellquote.Join(f.Command...), f.Err)
}

// Report collects the failures of a batch in the order they happened
type Report struct {
	Failures []Failure
	failed   map[string]bool
}

// OK reports whether every command succeeded everywhere
func (r *Report) OK() bool {
	return len(r.Failures) == 0
}

// Failed reports whether dir already failed a command in this batch
func (r *Report) Failed(dir string) bool {
	return r.failed[dir]
}

func (r *Report) record(f Failure) {
	if r.failed == nil {
		r.failed = make(map[string]bool)
	}
	r.Failures = append(r.Failures, f)
	r.failed[f.Dir] = true
}

// Runner executes command pipelines across project directories
type Runner struct {
	exec Executor
	log  zerolog.Logger
}

// New creates a Runner
func New(exec Executor, logger zerolog.Logger) *Runner {
	return &Runner{exec: exec, log: logger}
}

// RunCommands runs each command in every directory, in order. A directory
// that fails a command is skipped for every later command of the batch.
// When ctx is cancelled the batch stops and ctx.Err() is returned with the
// report gathered so far.
func (r *Runner) RunCommands(ctx context.Context, dirs []string, commands []Command) (*Report, error) {
	report := &Report{failed: make(map[string]bool)}

	for _, command := range commands {
		argv := r.exec.ComposeArgv(command.Args...)
		r.log.Info().Msgf("Running %s in all Docker Compose projects", ui.CommandBold(argv))

		for i, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return report, err
			}

			r.log.Info().Msgf("Running %s in %s (%d/%d)", ui.Command(argv), ui.Path(dir), i+1, len(dirs))
			if report.Failed(dir) {
				r.log.Warn().Msg("Skipped because an earlier command failed here")
				continue
			}

			if err := r.exec.Compose(ctx, dir, command.Args...); err != nil {
				failure := Failure{Dir: dir, Command: argv, Err: err}
				report.record(failure)
				r.log.Error().Msg(ui.Error(failure.String()))

				if ctxErr := ctx.Err(); ctxErr != nil {
					return report, ctxErr
				}
			}
		}
	}

	return report, nil
}

// Clean prunes unused networks, images and build cache. A failing step is
// logged and the remaining steps still run.
func (r *Runner) Clean(ctx context.Context) error {
	r.log.Info().Msg("Cleaning up")
	for _, step := range CleanSteps {
		if err := ctx.Err(); err != nil {
			return err
		}

		argv := append([]string{r.exec.Command()}, step.Args...)
		r.log.Info().Msg(step.Description)
		r.log.Info().Msgf("Running %s", ui.CommandBold(argv))

		if err := r.exec.Docker(ctx, step.Args...); err != nil {
			r.log.Warn().Msgf("%s failed: %v", ui.Command(argv), err)
		}
	}
	return nil
}
