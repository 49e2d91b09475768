package docker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/kballard/go-shellquote"
)

// Client handles Docker and Docker Compose CLI interactions
type Client struct {
	cmd     string
	compose []string
	verbose bool
	dryRun  bool
	stdout  io.Writer
	stderr  io.Writer
}

// Option customizes a Client
type Option func(*Client)

// WithDryRun makes the client print commands instead of executing them
func WithDryRun(dryRun bool) Option {
	return func(c *Client) { c.dryRun = dryRun }
}

// WithOutput redirects the streamed output of executed commands
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *Client) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithDockerCommand pins the docker CLI instead of detecting it
func WithDockerCommand(cmd string) Option {
	return func(c *Client) { c.cmd = cmd }
}

// WithComposeCommand pins the compose argv prefix instead of detecting it
func WithComposeCommand(argv []string) Option {
	return func(c *Client) {
		if len(argv) > 0 {
			c.compose = append([]string(nil), argv...)
		}
	}
}

// NewClient creates a new Docker client
func NewClient(verbose bool, opts ...Option) (*Client, error) {
	client := &Client{
		verbose: verbose,
		stdout:  os.Stdout,
		stderr:  os.Stderr,
	}
	for _, opt := range opts {
		opt(client)
	}

	if client.cmd == "" {
		cmd, err := client.DetectCLI()
		switch {
		case err == nil:
			client.cmd = cmd
		case client.dryRun:
			// Nothing is executed, so print the commands docker would get.
			client.cmd = "docker"
		default:
			return nil, err
		}
	}

	if len(client.compose) == 0 {
		compose, err := client.DetectCompose()
		if err != nil {
			return nil, err
		}
		client.compose = compose
	}

	return client, nil
}

// DetectCLI finds the docker command to use
func (c *Client) DetectCLI() (string, error) {
	// Check for DOCKER_CMD environment variable
	if envCmd := os.Getenv("DOCKER_CMD"); envCmd != "" {
		if _, err := exec.LookPath(envCmd); err != nil {
			return "", fmt.Errorf("DOCKER_CMD=%s not found in PATH", envCmd)
		}
		return envCmd, nil
	}

	// Try docker first
	if _, err := exec.LookPath("docker"); err == nil {
		return "docker", nil
	}

	// Try podman as fallback
	if _, err := exec.LookPath("podman"); err == nil {
		return "podman", nil
	}

	return "", fmt.Errorf("no docker-compatible CLI found (tried: docker, podman)")
}

// DetectCompose finds the compose argv prefix to use. A standalone
// docker-compose/podman-compose binary wins over the CLI plugin.
func (c *Client) DetectCompose() ([]string, error) {
	if envCmd := os.Getenv("COMPOSE_CMD"); envCmd != "" {
		argv, err := shellquote.Split(envCmd)
		if err != nil {
			return nil, fmt.Errorf("failed to parse COMPOSE_CMD: %w", err)
		}
		if len(argv) == 0 {
			return nil, fmt.Errorf("COMPOSE_CMD is blank")
		}
		if _, err := exec.LookPath(argv[0]); err != nil {
			return nil, fmt.Errorf("COMPOSE_CMD=%s not found in PATH", argv[0])
		}
		return argv, nil
	}

	for _, standalone := range []string{"docker-compose", "podman-compose"} {
		if _, err := exec.LookPath(standalone); err == nil {
			return []string{standalone}, nil
		}
	}

	if c.cmd == "" {
		return nil, fmt.Errorf("no compose command found (tried: docker-compose, podman-compose)")
	}
	return []string{c.cmd, "compose"}, nil
}

// Run executes argv and captures its combined output, trimmed. Dry runs
// print the command and return no output.
func (c *Client) Run(ctx context.Context, argv ...string) (string, error) {
	line := shellquote.Join(argv...)
	if c.dryRun {
		fmt.Fprintf(c.stdout, "+ %s\n", line)
		return "", nil
	}
	if c.verbose {
		fmt.Fprintf(c.stderr, "+ %s\n", line)
	}

	output, err := exec.CommandContext(ctx, argv[0], argv[1:]...).CombinedOutput()
	out := strings.TrimSpace(string(output))
	if err != nil {
		if out != "" {
			err = fmt.Errorf("%w: %s", err, out)
		}
		return out, newCommandError(ctx, argv, "", err)
	}
	return out, nil
}

// Docker executes a docker command, streaming its output
func (c *Client) Docker(ctx context.Context, args ...string) error {
	return c.exec(ctx, "", append([]string{c.cmd}, args...))
}

// Compose executes a compose subcommand inside dir, streaming its output
func (c *Client) Compose(ctx context.Context, dir string, args ...string) error {
	return c.exec(ctx, dir, c.ComposeArgv(args...))
}

// ComposeArgv returns the full argv used for a compose subcommand
func (c *Client) ComposeArgv(args ...string) []string {
	argv := make([]string, 0, len(c.compose)+len(args))
	argv = append(argv, c.compose...)
	return append(argv, args...)
}

// Command returns the docker command being used
func (c *Client) Command() string {
	return c.cmd
}

// CheckInstallation runs `--version` on both the docker CLI and compose and
// returns what they printed
func (c *Client) CheckInstallation(ctx context.Context) ([]string, error) {
	checks := [][]string{
		{c.cmd, "--version"},
		c.ComposeArgv("--version"),
	}
	var versions []string
	for _, argv := range checks {
		out, err := c.Run(ctx, argv...)
		if err != nil {
			return nil, fmt.Errorf("failed to run %s: %w", shellquote.Join(argv...), err)
		}
		if out != "" {
			versions = append(versions, out)
		}
	}
	return versions, nil
}

func (c *Client) exec(ctx context.Context, dir string, argv []string) error {
	line := shellquote.Join(argv...)
	if dir != "" {
		line = fmt.Sprintf("(cd %s) %s", shellquote.Join(dir), line)
	}

	if c.dryRun {
		fmt.Fprintf(c.stdout, "+ %s\n", line)
		return nil
	}
	if c.verbose {
		fmt.Fprintf(c.stderr, "+ %s\n", line)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Stdin = os.Stdin
	cmd.Stdout = c.stdout
	cmd.Stderr = c.stderr

	if err := cmd.Run(); err != nil {
		return newCommandError(ctx, argv, dir, err)
	}
	return nil
}

// CommandError reports a command that could not be started or exited non-zero
type CommandError struct {
	Argv []string
	Dir  string
	Code int
	Err  error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s exited with status %d: %v", shellquote.Join(e.Argv...), e.Code, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

func newCommandError(ctx context.Context, argv []string, dir string, err error) *CommandError {
	code := 1
	var exitErr *exec.ExitError
	var execErr *exec.Error
	switch {
	case ctx.Err() != nil:
		code = 124
		err = fmt.Errorf("%w: %w", ctx.Err(), err)
	case errors.As(err, &exitErr):
		code = exitErr.ExitCode()
	case errors.As(err, &execErr):
		code = 127
	}
	return &CommandError{Argv: argv, Dir: dir, Code: code, Err: err}
}
