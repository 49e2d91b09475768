package runner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obra/compose-all/pkg/project"
	"github.com/obra/compose-all/pkg/ui"
)

func init() {
	ui.SetColor(false)
}

type call struct {
	dir  string
	args string
}

type fakeExecutor struct {
	calls       []call
	dockerCalls []string
	// fail maps "dir|args" or "docker|args" to the error returned.
	fail     map[string]error
	checkErr error
	// onCompose runs before each compose call returns.
	onCompose func(dir, args string)
}

func (f *fakeExecutor) Compose(ctx context.Context, dir string, args ...string) error {
	joined := strings.Join(args, " ")
	f.calls = append(f.calls, call{dir: dir, args: joined})
	if f.onCompose != nil {
		f.onCompose(dir, joined)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return f.fail[dir+"|"+joined]
}

func (f *fakeExecutor) Docker(ctx context.Context, args ...string) error {
	joined := strings.Join(args, " ")
	f.dockerCalls = append(f.dockerCalls, joined)
	return f.fail["docker|"+joined]
}

func (f *fakeExecutor) ComposeArgv(args ...string) []string {
	return append([]string{"docker-compose"}, args...)
}

func (f *fakeExecutor) Command() string { return "docker" }

func (f *fakeExecutor) CheckInstallation(ctx context.Context) ([]string, error) {
	if f.checkErr != nil {
		return nil, f.checkErr
	}
	return []string{"Docker version 27.1.1", "Docker Compose version v2.29.1"}, nil
}

func testLogger(buf *bytes.Buffer) zerolog.Logger {
	return zerolog.New(zerolog.ConsoleWriter{Out: buf, NoColor: true}).Level(zerolog.DebugLevel)
}

func TestRunCommandsSkipsFailedDirs(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{
		"/srv/b|down --rmi all": errors.New("exit status 1"),
	}}
	var logs bytes.Buffer
	r := New(exec, testLogger(&logs))

	dirs := []string{"/srv/a", "/srv/b", "/srv/c"}
	report, err := r.RunCommands(context.Background(), dirs, ActionRestart.Commands(CommandOptions{}))
	require.NoError(t, err)

	var got []string
	for _, c := range exec.calls {
		got = append(got, c.dir+" "+c.args)
	}
	assert.Equal(t, []string{
		"/srv/a stop", "/srv/b stop", "/srv/c stop",
		"/srv/a down --rmi all", "/srv/b down --rmi all", "/srv/c down --rmi all",
		"/srv/a build --pull", "/srv/c build --pull",
		"/srv/a up -d", "/srv/c up -d",
		"/srv/a ps", "/srv/c ps",
	}, got)

	require.Len(t, report.Failures, 1)
	assert.False(t, report.OK())
	assert.True(t, report.Failed("/srv/b"))
	assert.False(t, report.Failed("/srv/a"))
	assert.Equal(t, 3, strings.Count(logs.String(), "Skipped because an earlier command failed here"))
	assert.Contains(t, logs.String(), "(2/3)")
}

func TestRunCommandsRecordsEveryFailureInOrder(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{
		"/srv/b|stop": errors.New("first"),
		"/srv/a|down": errors.New("second"),
	}}
	r := New(exec, zerolog.Nop())

	report, err := r.RunCommands(context.Background(), []string{"/srv/a", "/srv/b"}, ActionDown.Commands(CommandOptions{NoRmi: true}))
	require.NoError(t, err)

	require.Len(t, report.Failures, 2)
	assert.Equal(t, `Dir: "/srv/b", Command: docker-compose stop, Error: first`, report.Failures[0].String())
	assert.Equal(t, `Dir: "/srv/a", Command: docker-compose down, Error: second`, report.Failures[1].String())
}

func TestRunCommandsStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exec := &fakeExecutor{onCompose: func(dir, args string) {
		if dir == "/srv/b" {
			cancel()
		}
	}}
	r := New(exec, zerolog.Nop())

	report, err := r.RunCommands(ctx, []string{"/srv/a", "/srv/b", "/srv/c"}, ActionDown.Commands(CommandOptions{}))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, exec.calls, 2)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "/srv/b", report.Failures[0].Dir)
}

func TestRunCommandsNoDirs(t *testing.T) {
	exec := &fakeExecutor{}
	report, err := New(exec, zerolog.Nop()).RunCommands(context.Background(), nil, ActionRestart.Commands(CommandOptions{}))
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Empty(t, exec.calls)
}

func TestCleanContinuesAfterFailure(t *testing.T) {
	exec := &fakeExecutor{fail: map[string]error{
		"docker|image prune -f": errors.New("daemon busy"),
	}}
	var logs bytes.Buffer

	err := New(exec, testLogger(&logs)).Clean(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"network prune -f", "image prune -f", "builder prune -f"}, exec.dockerCalls)
	assert.Contains(t, logs.String(), "docker image prune -f failed: daemon busy")
	assert.Contains(t, logs.String(), "Removing build cache")
}

// projectTree creates two compose projects and returns the root.
func projectTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, name := range []string{"alpha", "beta"} {
		dir := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(dir, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "compose.yaml"), []byte("services: {}\n"), 0644))
	}
	return root
}

func baseConfig(root string, exec Executor, logs *bytes.Buffer) *RunConfig {
	return &RunConfig{
		Dir:         root,
		RequireRoot: false,
		Banner:      "compose-all version test",
		Args:        []string{"compose-all", "ps"},
		Logger:      testLogger(logs),
		Executor:    exec,
		Scan:        project.ScanOptions{FollowSymlinks: true},
		Interactive: func() bool { return false },
	}
}

func TestRunSucceedsAndCleans(t *testing.T) {
	root := projectTree(t)
	exec := &fakeExecutor{}
	var logs bytes.Buffer

	config := baseConfig(root, exec, &logs)
	config.Action = ActionPS
	config.Clean = true

	require.NoError(t, Run(context.Background(), config))

	assert.Equal(t, []call{
		{dir: filepath.Join(root, "alpha"), args: "ps"},
		{dir: filepath.Join(root, "beta"), args: "ps"},
	}, exec.calls)
	assert.Len(t, exec.dockerCalls, 3)

	out := logs.String()
	assert.Contains(t, out, "compose-all version test")
	assert.Contains(t, out, "Found 2 Docker Compose projects")
	assert.Contains(t, out, "Docker Compose version v2.29.1")
	assert.Contains(t, out, "Command compose-all ps exit with no error")
	assert.Contains(t, out, "Exiting")
	assert.Contains(t, out, "Time elapsed: 0s")
}

func TestRunReportsFailuresAndSkipsClean(t *testing.T) {
	root := projectTree(t)
	exec := &fakeExecutor{fail: map[string]error{
		filepath.Join(root, "alpha") + "|up -d": errors.New("exit status 1"),
	}}
	var logs bytes.Buffer

	config := baseConfig(root, exec, &logs)
	config.Action = ActionUp
	config.Clean = true
	config.AssumeYes = true

	err := Run(context.Background(), config)
	assert.ErrorIs(t, err, ErrFailures)
	assert.Empty(t, exec.dockerCalls)

	out := logs.String()
	assert.Contains(t, out, "After run all commands, errors:")
	assert.Contains(t, out, "Skip clean because error happened")
	assert.Contains(t, out, "exit with some error")
}

func TestRunInterruptedAfterFailure(t *testing.T) {
	root := projectTree(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alpha := filepath.Join(root, "alpha")
	exec := &fakeExecutor{
		fail: map[string]error{alpha + "|stop": errors.New("exit status 1")},
		onCompose: func(dir, args string) {
			if args == "down --rmi all" {
				cancel()
			}
		},
	}
	var logs bytes.Buffer

	config := baseConfig(root, exec, &logs)
	config.Action = ActionRestart
	config.Clean = true
	config.AssumeYes = true

	err := Run(ctx, config)
	assert.ErrorIs(t, err, ErrFailures)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, exec.dockerCalls)

	out := logs.String()
	assert.Contains(t, out, "After run all commands, errors:")
	assert.Contains(t, out, "Skip clean because error happened")
}

func TestRunInterruptedWithoutFailures(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	exec := &fakeExecutor{}
	var logs bytes.Buffer
	config := baseConfig(projectTree(t), exec, &logs)
	config.Action = ActionUp

	err := Run(ctx, config)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrFailures)
	assert.Empty(t, exec.calls)
}

func TestRunCleanNeedsConfirmation(t *testing.T) {
	root := projectTree(t)

	tests := []struct {
		name       string
		answer     bool
		assumeYes  bool
		wantDocker int
		wantAsked  bool
	}{
		{name: "declined", answer: false, wantDocker: 0, wantAsked: true},
		{name: "accepted", answer: true, wantDocker: 3, wantAsked: true},
		{name: "assume yes skips prompt", assumeYes: true, wantDocker: 3, wantAsked: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exec := &fakeExecutor{}
			var logs bytes.Buffer
			asked := false

			config := baseConfig(root, exec, &logs)
			config.Clean = true
			config.AssumeYes = tt.assumeYes
			config.Interactive = func() bool { return true }
			config.Confirm = func(title, description string) (bool, error) {
				asked = true
				return tt.answer, nil
			}

			require.NoError(t, Run(context.Background(), config))
			assert.Equal(t, tt.wantAsked, asked)
			assert.Len(t, exec.dockerCalls, tt.wantDocker)
			assert.Empty(t, exec.calls, "no action means scan only")
		})
	}
}

func TestRunRequiresRoot(t *testing.T) {
	prev := geteuid
	geteuid = func() int { return 1000 }
	defer func() { geteuid = prev }()

	exec := &fakeExecutor{}
	var logs bytes.Buffer
	config := baseConfig(projectTree(t), exec, &logs)
	config.RequireRoot = true
	config.Action = ActionStop

	err := Run(context.Background(), config)
	assert.ErrorContains(t, err, "need root privilege")
	assert.Empty(t, exec.calls)

	config.DryRun = true
	assert.NoError(t, Run(context.Background(), config), "dry runs do not need root")
}

func TestRunInstallationCheckFails(t *testing.T) {
	exec := &fakeExecutor{checkErr: errors.New("docker-compose: not found")}
	var logs bytes.Buffer
	config := baseConfig(projectTree(t), exec, &logs)
	config.Action = ActionUp

	err := Run(context.Background(), config)
	assert.ErrorContains(t, err, "installation incomplete")
	assert.Empty(t, exec.calls)
}

func TestRunMissingDir(t *testing.T) {
	exec := &fakeExecutor{}
	var logs bytes.Buffer
	config := baseConfig(filepath.Join(t.TempDir(), "nope"), exec, &logs)

	err := Run(context.Background(), config)
	assert.ErrorContains(t, err, "dir not found")
}

func TestResolveDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	require.NoError(t, os.Mkdir(filepath.Join(home, "stacks"), 0755))

	got, err := ResolveDir("~/stacks")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "stacks"), got)

	got, err = ResolveDir("~")
	require.NoError(t, err)
	assert.Equal(t, home, got)

	wd, err := os.Getwd()
	require.NoError(t, err)
	got, err = ResolveDir("")
	require.NoError(t, err)
	assert.Equal(t, wd, got)

	_, err = ResolveDir(filepath.Join(home, "missing"))
	assert.ErrorContains(t, err, "dir not found")
}
