// Package walk discovers candidate files under the paths named on the
// command line. Discovery order is deterministic (lexical per directory),
// and paths reached more than once — via symlinks or overlapping roots —
// are visited only once.
package walk

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"epubgrep/internal/scan"
)

// Discover walks roots and returns candidates in discovery order. Files
// named directly are always candidates; files found under directories must
// match one of the include glob patterns (doublestar syntax, matched against
// the path relative to the root). An empty include list matches everything;
// extension validation stays with the scan filter.
func Discover(roots []string, include []string, log zerolog.Logger) ([]scan.Candidate, error) {
	d := &discovery{
		include: include,
		visited: make(map[string]struct{}),
		log:     log,
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", root, err)
		}
		if info.IsDir() {
			if err := d.walkDir(root); err != nil {
				return nil, err
			}
			continue
		}
		// Explicitly named files bypass the include patterns.
		d.add(root, info.Size(), true)
	}

	return d.found, nil
}

type discovery struct {
	include []string
	visited map[string]struct{}
	found   []scan.Candidate
	log     zerolog.Logger
}

func (d *discovery) walkDir(root string) error {
	return filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree: log and keep walking.
			d.log.Warn().Str("path", path).Err(err).Msg("walk error")
			return nil
		}
		if entry.IsDir() || !entry.Type().IsRegular() {
			return nil
		}
		if !d.matches(root, path) {
			return nil
		}
		info, err := entry.Info()
		if err != nil {
			d.log.Warn().Str("path", path).Err(err).Msg("stat error")
			return nil
		}
		d.add(path, info.Size(), false)
		return nil
	})
}

// matches tests path (relative to root) against the include patterns.
func (d *discovery) matches(root, path string) bool {
	if len(d.include) == 0 {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	rel = filepath.ToSlash(rel)
	for _, pat := range d.include {
		if ok, err := doublestar.Match(pat, rel); err == nil && ok {
			return true
		}
	}
	return false
}

// add records a candidate unless its resolved path was seen before.
func (d *discovery) add(path string, size int64, explicit bool) {
	key := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		key = resolved
	}
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}
	if _, seen := d.visited[key]; seen {
		if explicit {
			d.log.Debug().Str("path", path).Msg("already visited")
		}
		return
	}
	d.visited[key] = struct{}{}
	d.found = append(d.found, scan.Candidate{Path: path, Size: size})
}
