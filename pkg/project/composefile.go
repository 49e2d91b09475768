package project

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ComposeFilenames lists the file names that mark a compose project, in the
// order compose itself prefers them.
var ComposeFilenames = []string{
	"compose.yaml",
	"compose.yml",
	"docker-compose.yaml",
	"docker-compose.yml",
}

// ComposeFile holds the parts of a compose file compose-all reports on
type ComposeFile struct {
	Name     string               `yaml:"name"`
	Services map[string]yaml.Node `yaml:"services"`
}

// IsComposeFilename reports whether name marks a compose project
func IsComposeFilename(name string) bool {
	for _, candidate := range ComposeFilenames {
		if name == candidate {
			return true
		}
	}
	return false
}

// LoadComposeFile parses the compose file at path
func LoadComposeFile(path string) (*ComposeFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var file ComposeFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return &file, nil
}

// ServiceNames returns the declared services, sorted
func (f *ComposeFile) ServiceNames() []string {
	names := make([]string, 0, len(f.Services))
	for name := range f.Services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
