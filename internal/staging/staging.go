// Package staging manages the working directory where issue documents and
// attachments are assembled before a delivery.
package staging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a staging area rooted at a single directory. All paths handed to
// its methods are relative and must resolve under the root.
type Dir struct {
	root string
}

// New creates a staging area rooted at root, creating the directory when
// it does not exist yet.
func New(root string) (*Dir, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("staging: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("staging: create root: %w", err)
	}
	return &Dir{root: abs}, nil
}

// Root returns the absolute staging root.
func (d *Dir) Root() string {
	return d.root
}

// safePath resolves a relative path against the root and rejects any
// result that escapes it (directory traversal).
func (d *Dir) safePath(rel string) (string, error) {
	if rel == "" {
		return d.root, nil
	}
	cleaned := filepath.Clean(rel)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("staging: absolute paths not allowed: %s", rel)
	}
	joined := filepath.Join(d.root, cleaned)
	abs, err := filepath.Abs(joined)
	if err != nil {
		return "", fmt.Errorf("staging: resolve path: %w", err)
	}
	if !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) && abs != d.root {
		return "", fmt.Errorf("staging: path escapes staging root: %s", rel)
	}
	return abs, nil
}

// Reset wipes the staging area and recreates it empty. Every delivery
// starts here.
func (d *Dir) Reset() error {
	if err := os.RemoveAll(d.root); err != nil {
		return fmt.Errorf("staging: clear root: %w", err)
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return fmt.Errorf("staging: recreate root: %w", err)
	}
	return nil
}

// MkdirIssue creates the per-issue working directory.
func (d *Dir) MkdirIssue(key string) error {
	abs, err := d.safePath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("staging: mkdir %s: %w", key, err)
	}
	return nil
}

// WriteFile streams content to a staged file, creating parent directories
// as needed.
func (d *Dir) WriteFile(rel string, content io.Reader) error {
	abs, err := d.safePath(rel)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return fmt.Errorf("staging: mkdir for %s: %w", rel, err)
	}
	f, err := os.Create(abs)
	if err != nil {
		return fmt.Errorf("staging: create %s: %w", rel, err)
	}
	if _, err := io.Copy(f, content); err != nil {
		f.Close()
		os.Remove(abs)
		return fmt.Errorf("staging: write %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(abs)
		return fmt.Errorf("staging: close %s: %w", rel, err)
	}
	return nil
}

// StagedFiles returns the absolute paths of the top-level regular files,
// the shape a finished staging area has after finalization.
func (d *Dir) StagedFiles() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, fmt.Errorf("staging: read root: %w", err)
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		out = append(out, filepath.Join(d.root, e.Name()))
	}
	return out, nil
}

// TotalSize sums the sizes of the top-level staged files.
func (d *Dir) TotalSize() (int64, error) {
	files, err := d.StagedFiles()
	if err != nil {
		return 0, err
	}
	var total int64
	for _, p := range files {
		info, err := os.Stat(p)
		if err != nil {
			return 0, fmt.Errorf("staging: stat %s: %w", p, err)
		}
		total += info.Size()
	}
	return total, nil
}

// FinalizeIssue flattens an issue's working directory into the staging
// root: two or more files are zipped as {key}.zip, a single file is moved
// up under its own name, and an empty directory yields zero. The working
// directory is removed in every case. Returns how many files the issue
// contributed before flattening.
func (d *Dir) FinalizeIssue(key string) (int, error) {
	dir, err := d.safePath(key)
	if err != nil {
		return 0, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("staging: read issue dir %s: %w", key, err)
	}

	var files []string
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}

	switch {
	case len(files) > 1:
		if err := zipFiles(filepath.Join(d.root, key+".zip"), files); err != nil {
			return 0, fmt.Errorf("staging: zip %s: %w", key, err)
		}
	case len(files) == 1:
		dst := filepath.Join(d.root, filepath.Base(files[0]))
		if err := os.Rename(files[0], dst); err != nil {
			return 0, fmt.Errorf("staging: move up %s: %w", key, err)
		}
	}

	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("staging: remove issue dir %s: %w", key, err)
	}
	return len(files), nil
}
