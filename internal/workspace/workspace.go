// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package workspace manages the directory root the assistant operates on:
// opening and validating it, enumerating its files, and guarding reads and
// writes against path escape.
package workspace

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// MaxFileSize bounds single-file reads. Anything larger is almost
// certainly a binary or generated artifact, not source worth analyzing.
const MaxFileSize = 1 << 20 // 1MB

// skipDirs are directory names never descended into during enumeration.
var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"__pycache__":  true,
	"dist":         true,
	"build":        true,
	".idea":        true,
	".vscode":      true,
}

// Context is an opened workspace root. All file operations resolve
// relative paths against the root and refuse to escape it.
type Context struct {
	root string
}

// Open validates that path exists and is a directory, and returns a
// Context rooted at its absolute path.
func Open(path string) (*Context, error) {
	if path == "" {
		return nil, arguserr.New(arguserr.CodeWorkspacePathInvalid, "workspace path is empty")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, arguserr.Wrapf(err, arguserr.CodeWorkspacePathInvalid, "resolving workspace path %s", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeWorkspaceOpenFailure,
			"workspace not accessible", arguserr.FieldWorkspace(abs))
	}
	if !info.IsDir() {
		return nil, arguserr.New(arguserr.CodeWorkspacePathInvalid,
			"workspace path is not a directory", arguserr.FieldWorkspace(abs))
	}

	return &Context{root: abs}, nil
}

// Root returns the absolute workspace root.
func (c *Context) Root() string { return c.root }

// Resolve joins rel onto the root and verifies the result stays inside it.
func (c *Context) Resolve(rel string) (string, error) {
	joined := filepath.Join(c.root, rel)
	cleaned := filepath.Clean(joined)
	if cleaned != c.root && !strings.HasPrefix(cleaned, c.root+string(filepath.Separator)) {
		return "", arguserr.New(arguserr.CodeWorkspacePathInvalid,
			"path escapes workspace root", arguserr.Field("path", rel))
	}
	return cleaned, nil
}

// ListFiles walks the tree and returns relative paths of regular files,
// honoring optional include and exclude glob patterns matched against the
// relative path's base name and full relative path. Well-known dependency
// and VCS directories are always skipped.
func (c *Context) ListFiles(include, exclude []string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != c.root && (skipDirs[d.Name()] || strings.HasPrefix(d.Name(), ".")) {
				return filepath.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(c.root, path)
		if relErr != nil {
			return nil
		}
		if !matches(rel, include, true) || matches(rel, exclude, false) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	if err != nil {
		return nil, arguserr.Wrap(err, arguserr.CodeWorkspaceReadFailure,
			"walking workspace", arguserr.FieldWorkspace(c.root))
	}

	return files, nil
}

// ReadFile reads a workspace-relative file, refusing paths that escape the
// root and files larger than MaxFileSize.
func (c *Context) ReadFile(rel string) (string, error) {
	path, err := c.Resolve(rel)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", arguserr.Wrap(err, arguserr.CodeWorkspaceReadFailure,
			"reading file", arguserr.Field("path", rel))
	}
	if info.IsDir() {
		return "", arguserr.New(arguserr.CodeWorkspacePathInvalid,
			"path is a directory", arguserr.Field("path", rel))
	}
	if info.Size() > MaxFileSize {
		return "", arguserr.New(arguserr.CodeWorkspaceReadFailure,
			"file exceeds read size limit", arguserr.Field("path", rel), arguserr.Field("size", info.Size()))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", arguserr.Wrap(err, arguserr.CodeWorkspaceReadFailure,
			"reading file", arguserr.Field("path", rel))
	}
	return string(data), nil
}

// WriteFile writes content to a workspace-relative path, creating parent
// directories as needed.
func (c *Context) WriteFile(rel, content string) error {
	path, err := c.Resolve(rel)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return arguserr.Wrap(err, arguserr.CodeWorkspaceWriteFailure,
			"creating parent directory", arguserr.Field("path", rel))
	}
	if err := os.WriteFile(path, []byte(content), 0o640); err != nil {
		return arguserr.Wrap(err, arguserr.CodeWorkspaceWriteFailure,
			"writing file", arguserr.Field("path", rel))
	}
	return nil
}

// matches reports whether rel matches any of the patterns, testing both
// the full relative path and its base name. An empty pattern list yields
// the provided default.
func matches(rel string, patterns []string, emptyDefault bool) bool {
	if len(patterns) == 0 {
		return emptyDefault
	}
	base := filepath.Base(rel)
	for _, p := range patterns {
		if ok, _ := filepath.Match(p, rel); ok {
			return true
		}
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}
