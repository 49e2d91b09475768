// Package project discovers Docker Compose projects below a root directory.
package project

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Project is one directory holding a compose file
type Project struct {
	Dir         string
	ComposeFile string
	Name        string
	Services    []string
}

// ScanOptions controls how the tree is walked
type ScanOptions struct {
	// FollowSymlinks descends into symlinked directories.
	FollowSymlinks bool
	// Exclude holds glob patterns matched against directory base names.
	Exclude []string
	// OnError is told about subdirectories that could not be read.
	OnError func(path string, err error)
}

// Scan walks root top-down and returns every compose project, parents before
// children and siblings in lexical order. Each directory appears once.
func Scan(root string, opts ScanOptions) ([]Project, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}

	realRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	if _, err := os.ReadDir(root); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	s := &scanner{
		opts:     opts,
		realRoot: realRoot,
		visited:  make(map[string]bool),
		seen:     make(map[string]bool),
	}
	s.walk(root)
	return s.projects, nil
}

type scanner struct {
	opts     ScanOptions
	realRoot string
	visited  map[string]bool // resolved real paths, breaks symlink cycles
	seen     map[string]bool
	projects []Project
}

func (s *scanner) walk(dir string) {
	real, err := filepath.EvalSymlinks(dir)
	if err != nil {
		s.report(dir, err)
		return
	}
	if s.visited[real] {
		return
	}
	s.visited[real] = true

	entries, err := os.ReadDir(dir)
	if err != nil {
		s.report(dir, err)
		return
	}

	var subdirs []string
	present := make(map[string]bool)
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if s.isDir(path, entry) {
			if s.descend(path, entry) {
				subdirs = append(subdirs, path)
			}
			continue
		}
		present[entry.Name()] = true
	}

	if file := preferred(present); file != "" && !s.seen[dir] {
		s.seen[dir] = true
		s.projects = append(s.projects, load(dir, file))
	}

	for _, sub := range subdirs {
		s.walk(sub)
	}
}

func (s *scanner) isDir(path string, entry fs.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&fs.ModeSymlink == 0 || !s.opts.FollowSymlinks {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// descend reports whether the walk enters path. A symlink whose target lies
// inside the root is left alone: the walk reaches the target under its own
// name, which is the name compose derives the project from.
func (s *scanner) descend(path string, entry fs.DirEntry) bool {
	if s.excluded(entry.Name()) {
		return false
	}
	if entry.Type()&fs.ModeSymlink == 0 {
		return true
	}
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		s.report(path, err)
		return false
	}
	return !within(s.realRoot, real)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (s *scanner) excluded(name string) bool {
	return matchAny(s.opts.Exclude, name)
}

func matchAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (s *scanner) report(path string, err error) {
	if s.opts.OnError != nil {
		s.opts.OnError(path, err)
	}
}

func preferred(present map[string]bool) string {
	for _, name := range ComposeFilenames {
		if present[name] {
			return name
		}
	}
	return ""
}

// load fills in name and services; a broken compose file still counts as a
// project, compose itself will report the problem when run.
func load(dir, file string) Project {
	p := Project{
		Dir:         dir,
		ComposeFile: file,
		Name:        NormalizeName(filepath.Base(dir)),
	}

	cf, err := LoadComposeFile(filepath.Join(dir, file))
	if err != nil {
		return p
	}
	if cf.Name != "" {
		p.Name = cf.Name
	}
	p.Services = cf.ServiceNames()
	return p
}

// Dirs returns the project directories in scan order
func Dirs(projects []Project) []string {
	dirs := make([]string, len(projects))
	for i, p := range projects {
		dirs[i] = p.Dir
	}
	return dirs
}
