// Package scan coordinates concurrent, optionally randomized scanning of
// candidate files: pre-filtering, worker dispatch, result aggregation in
// canonical order, and live progress state.
package scan

import (
	"archive/zip"
	"fmt"
	"path/filepath"
	"strings"
)

// Candidate is a file considered for scanning: its path and on-disk
// (compressed) size, known before opening.
type Candidate struct {
	Path string
	Size int64
}

// Filter is the cheap pre-filter protecting later stages from pathological
// inputs. It rejects candidates by extension and by size budget without
// decompressing any content; the uncompressed total comes from the archive's
// central directory alone.
type Filter struct {
	budget int64
	exts   map[string]bool
}

// defaultExtensions identify files this tool treats as ePub containers.
var defaultExtensions = []string{".epub"}

// NewFilter creates a Filter with the given size budget in bytes. A budget
// <= 0 disables the size checks. exts overrides the accepted extensions;
// nil keeps the default (.epub).
func NewFilter(budget int64, exts []string) *Filter {
	if exts == nil {
		exts = defaultExtensions
	}
	m := make(map[string]bool, len(exts))
	for _, e := range exts {
		m[strings.ToLower(e)] = true
	}
	return &Filter{budget: budget, exts: m}
}

// Accept reports whether c should be scanned. The reason string is non-empty
// only on rejection and is meant for skipped-file accounting, not for user
// errors: rejection is a silent skip.
func (f *Filter) Accept(c Candidate) (ok bool, reason string) {
	if !f.exts[strings.ToLower(filepath.Ext(c.Path))] {
		return false, "extension not recognized"
	}
	if f.budget > 0 && c.Size > f.budget {
		return false, fmt.Sprintf("compressed size %d exceeds budget %d", c.Size, f.budget)
	}
	if f.budget > 0 {
		if total, err := uncompressedTotal(c.Path); err == nil && total > uint64(f.budget) {
			return false, fmt.Sprintf("uncompressed size %d exceeds budget %d", total, f.budget)
		}
		// A file that does not open as a zip passes through; the container
		// reader reports it as a per-file error with a proper reason.
	}
	return true, ""
}

// uncompressedTotal sums the declared entry sizes from the central directory.
// No entry content is decompressed.
func uncompressedTotal(path string) (uint64, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return 0, err
	}
	defer zrc.Close()

	var total uint64
	for _, f := range zrc.File {
		total += f.UncompressedSize64
	}
	return total, nil
}
