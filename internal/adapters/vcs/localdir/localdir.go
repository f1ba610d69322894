// Package localdir serves component checkouts from a plain directory
// tree. Clone and push stay with the surrounding tooling; the engine only
// needs to read files and journal the changes it makes.
package localdir

import (
	"context"
	"crypto/sha1"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"langsync/internal/domain"
	"langsync/internal/ports"
)

const journalName = ".langsync-journal"

type Tree struct {
	base string
}

var _ ports.WorkingTree = (*Tree)(nil)

func New(base string) (*Tree, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve checkout base: %w", err)
	}
	return &Tree{base: abs}, nil
}

func (t *Tree) Dir(c *domain.Component) (string, error) {
	dir := filepath.Join(t.base, filepath.FromSlash(c.RepoPath))
	rel, err := filepath.Rel(t.base, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("repo path %q escapes the checkout base", c.RepoPath)
	}
	return dir, nil
}

// Revision hashes the file listing of the checkout: names, sizes and
// modification times. Good enough to tell states apart without content
// hashing on every rescan.
func (t *Tree) Revision(c *domain.Component) (string, error) {
	dir, err := t.Dir(c)
	if err != nil {
		return "", err
	}
	h := sha1.New()
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() == journalName {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(h, "%s\x00%d\x00%d\n", filepath.ToSlash(rel), info.Size(), info.ModTime().UnixNano())
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk checkout: %w", err)
	}
	return fmt.Sprintf("%x", h.Sum(nil))[:12], nil
}

// CommitPending appends the change to the checkout journal. With a plain
// directory there is nothing else to commit to; no paths means nothing
// pending, a no-op.
func (t *Tree) CommitPending(ctx context.Context, c *domain.Component, message string, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	dir, err := t.Dir(c)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, journalName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	line := fmt.Sprintf("%s\t%s\t%s\n", time.Now().UTC().Format(time.RFC3339), message, strings.Join(paths, " "))
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}
