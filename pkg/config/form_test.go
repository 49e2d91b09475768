package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormValuesRoundTrip(t *testing.T) {
	cfg := &Config{
		DockerCommand:  "docker",
		ComposeCommand: []string{"docker", "compose", "--ansi", "never"},
		RequireRoot:    true,
		FollowSymlinks: false,
		Exclude:        []string{"node_modules", ".*"},
		Defaults:       Defaults{Clean: true},
	}

	values := NewFormValues(cfg)
	assert.Equal(t, "docker compose --ansi never", values.ComposeCommand)
	assert.Equal(t, "node_modules, .*", values.Exclude)

	edited := Default()
	require.NoError(t, values.Apply(edited))
	assert.Equal(t, cfg, edited)
}

func TestFormValuesApplyEdits(t *testing.T) {
	cfg := Default()
	values := NewFormValues(cfg)
	values.ComposeCommand = `podman-compose`
	values.Exclude = " backup ,, *.bak "
	values.NoPull = true

	require.NoError(t, values.Apply(cfg))
	assert.Equal(t, []string{"podman-compose"}, cfg.ComposeCommand)
	assert.Equal(t, []string{"backup", "*.bak"}, cfg.Exclude)
	assert.True(t, cfg.Defaults.NoPull)
}

func TestFormValuesApplyRejectsBadInput(t *testing.T) {
	cfg := Default()

	values := NewFormValues(cfg)
	values.ComposeCommand = `docker "compose`
	assert.ErrorContains(t, values.Apply(cfg), "invalid compose command")

	values = NewFormValues(cfg)
	values.Exclude = "[oops"
	assert.ErrorContains(t, values.Apply(cfg), "bad exclude pattern")
}

func TestBuildForm(t *testing.T) {
	values := NewFormValues(Default())

	for _, section := range Sections {
		form, err := BuildForm(section, values)
		require.NoError(t, err, "section %s", section)
		assert.NotNil(t, form)
	}

	_, err := BuildForm("credentials", values)
	assert.ErrorContains(t, err, "unknown section: credentials")
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{}, SplitList(""))
	assert.Equal(t, []string{"a", "b"}, SplitList("a, b,"))
}
