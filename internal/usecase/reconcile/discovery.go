package reconcile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// RepositoryAccessError reports that the component checkout is missing or
// unreadable. It aborts the whole pass: no repository never means "no
// files".
type RepositoryAccessError struct {
	Path string
	Err  error
}

func (e *RepositoryAccessError) Error() string {
	return fmt.Sprintf("repository access failed: %s: %v", e.Path, e.Err)
}

func (e *RepositoryAccessError) Unwrap() error { return e.Err }

// Discovered is one mask match: the file path relative to the checkout
// and the code the star stood for.
type Discovered struct {
	Path string
	Code string
}

// SplitMask validates the single star mask and returns the parts around
// the star.
func SplitMask(mask string) (prefix, suffix string, err error) {
	if strings.Count(mask, "*") != 1 {
		return "", "", fmt.Errorf("file mask %q must contain exactly one *", mask)
	}
	i := strings.Index(mask, "*")
	return mask[:i], mask[i+1:], nil
}

// ExpandMask substitutes code for the mask's star.
func ExpandMask(mask, code string) (string, error) {
	prefix, suffix, err := SplitMask(mask)
	if err != nil {
		return "", err
	}
	return prefix + code + suffix, nil
}

// DiscoverFiles matches the mask against dir and extracts the file code
// from every match. Matches come back sorted by code, so logs and
// tie-breaks are reproducible even though correctness must not depend on
// order.
func DiscoverFiles(dir, mask string) ([]Discovered, error) {
	prefix, suffix, err := SplitMask(mask)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, &RepositoryAccessError{Path: dir, Err: err}
	}
	matches, err := filepath.Glob(filepath.Join(dir, filepath.FromSlash(mask)))
	if err != nil {
		return nil, fmt.Errorf("file mask %q: %w", mask, err)
	}
	out := make([]Discovered, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(dir, m)
		if err != nil {
			continue
		}
		relSlash := filepath.ToSlash(rel)
		code := strings.TrimSuffix(strings.TrimPrefix(relSlash, prefix), suffix)
		if code == "" {
			continue
		}
		out = append(out, Discovered{Path: relSlash, Code: code})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
