package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/kballard/go-shellquote"
)

// Sections lists the parts of the config the editor can show
var Sections = []string{"defaults", "discovery", "runtime", "all"}

// FormValues is the flat view of Config the interactive editor binds to
type FormValues struct {
	DockerCommand  string
	ComposeCommand string // shell words
	RequireRoot    bool
	FollowSymlinks bool
	Exclude        string // comma separated
	Kill           bool
	NoRmi          bool
	NoPull         bool
	Clean          bool
}

// NewFormValues copies cfg into editable values
func NewFormValues(cfg *Config) *FormValues {
	return &FormValues{
		DockerCommand:  cfg.DockerCommand,
		ComposeCommand: shellquote.Join(cfg.ComposeCommand...),
		RequireRoot:    cfg.RequireRoot,
		FollowSymlinks: cfg.FollowSymlinks,
		Exclude:        strings.Join(cfg.Exclude, ", "),
		Kill:           cfg.Defaults.Kill,
		NoRmi:          cfg.Defaults.NoRmi,
		NoPull:         cfg.Defaults.NoPull,
		Clean:          cfg.Defaults.Clean,
	}
}

// Apply writes the edited values back into cfg. Settings not shown in the
// editor are left untouched.
func (v *FormValues) Apply(cfg *Config) error {
	compose, err := shellquote.Split(v.ComposeCommand)
	if err != nil {
		return fmt.Errorf("invalid compose command: %w", err)
	}

	cfg.DockerCommand = strings.TrimSpace(v.DockerCommand)
	cfg.ComposeCommand = compose
	cfg.RequireRoot = v.RequireRoot
	cfg.FollowSymlinks = v.FollowSymlinks
	cfg.Exclude = SplitList(v.Exclude)
	cfg.Defaults = Defaults{
		Kill:   v.Kill,
		NoRmi:  v.NoRmi,
		NoPull: v.NoPull,
		Clean:  v.Clean,
	}
	return cfg.Validate()
}

// SplitList splits a comma separated list, dropping blanks
func SplitList(s string) []string {
	return normalizeList(strings.Split(s, ","))
}

// BuildForm returns the editor form for one section, or all of them
func BuildForm(section string, v *FormValues) (*huh.Form, error) {
	var groups []*huh.Group

	switch strings.ToLower(section) {
	case "defaults":
		groups = append(groups, defaultsGroup(v))
	case "discovery":
		groups = append(groups, discoveryGroup(v))
	case "runtime":
		groups = append(groups, runtimeGroup(v))
	case "all", "":
		groups = append(groups, runtimeGroup(v), discoveryGroup(v), defaultsGroup(v))
	default:
		return nil, fmt.Errorf("unknown section: %s (valid: %s)", section, strings.Join(Sections, ", "))
	}

	return huh.NewForm(groups...), nil
}

func runtimeGroup(v *FormValues) *huh.Group {
	return huh.NewGroup(
		huh.NewInput().
			Title("Docker command").
			Description("docker, podman, ... (empty: detect)").
			Value(&v.DockerCommand),

		huh.NewInput().
			Title("Compose command").
			Description(`e.g. "docker compose" or "docker-compose" (empty: detect)`).
			Validate(func(s string) error {
				_, err := shellquote.Split(s)
				return err
			}).
			Value(&v.ComposeCommand),

		huh.NewConfirm().
			Title("Require root?").
			Description("Refuse to run unless started as root").
			Value(&v.RequireRoot).
			Affirmative("Yes").
			Negative("No"),
	)
}

func discoveryGroup(v *FormValues) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Follow symlinks?").
			Description("Descend into symlinked directories while scanning").
			Value(&v.FollowSymlinks).
			Affirmative("Yes").
			Negative("No"),

		huh.NewInput().
			Title("Exclude").
			Description("Comma separated directory name patterns to skip, e.g. node_modules, .*").
			Validate(func(s string) error {
				for _, pattern := range SplitList(s) {
					if _, err := filepath.Match(pattern, ""); err != nil {
						return fmt.Errorf("bad pattern %q", pattern)
					}
				}
				return nil
			}).
			Value(&v.Exclude),
	)
}

func defaultsGroup(v *FormValues) *huh.Group {
	return huh.NewGroup(
		huh.NewConfirm().
			Title("Kill instead of stop?").
			Description(`Run "compose kill" where "compose stop" would run`).
			Value(&v.Kill).
			Affirmative("Yes").
			Negative("No"),

		huh.NewConfirm().
			Title("Keep images on down?").
			Description(`Run "compose down" without "--rmi all"`).
			Value(&v.NoRmi).
			Affirmative("Yes").
			Negative("No"),

		huh.NewConfirm().
			Title("Skip pulling on build?").
			Description(`Run "compose build" without "--pull"`).
			Value(&v.NoPull).
			Affirmative("Yes").
			Negative("No"),

		huh.NewConfirm().
			Title("Clean up after successful runs?").
			Description("Prune ALL unused networks, images and build cache. This may cause data loss.").
			Value(&v.Clean).
			Affirmative("Yes").
			Negative("No"),
	)
}
