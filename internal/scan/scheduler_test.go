package scan

import (
	"context"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"epubgrep/internal/search"
)

func newTestScheduler(t *testing.T, pattern string, minMatches int) *Scheduler {
	t.Helper()
	engine, err := search.Compile(pattern, false, 10, 10, 5)
	require.NoError(t, err)
	return &Scheduler{
		Engine:     engine,
		Filter:     NewFilter(0, nil),
		State:      NewState(),
		Log:        zerolog.Nop(),
		Workers:    4,
		MinMatches: minMatches,
	}
}

func threeBooks(t *testing.T) []Candidate {
	t.Helper()
	dir := t.TempDir()
	return []Candidate{
		writeEPUB(t, dir, "a.epub", "Book A", []testDoc{
			{"ch1.xhtml", "whale here and whale there"},
		}),
		writeEPUB(t, dir, "b.epub", "Book B", []testDoc{
			{"ch1.xhtml", "nothing of interest"},
		}),
		writeEPUB(t, dir, "c.epub", "Book C", []testDoc{
			{"ch1.xhtml", "whale whale whale"},
			{"ch2.xhtml", "whale and again whale"},
		}),
	}
}

func TestScheduler_MinMatchesFilter(t *testing.T) {
	candidates := threeBooks(t)

	s := newTestScheduler(t, "whale", 1)
	results, fileErrs := s.Run(context.Background(), candidates)
	require.Empty(t, fileErrs)

	// B has zero matches and is dropped; A and C keep discovery order.
	require.Len(t, results, 2)
	assert.Equal(t, candidates[0].Path, results[0].Path)
	assert.Equal(t, 2, results[0].Count)
	assert.Equal(t, "Book A", results[0].Title)
	assert.Equal(t, candidates[2].Path, results[1].Path)
	assert.Equal(t, 5, results[1].Count)
}

func TestScheduler_MinMatchesExcludesAll(t *testing.T) {
	s := newTestScheduler(t, "whale", 6)
	results, fileErrs := s.Run(context.Background(), threeBooks(t))
	assert.Empty(t, results)
	assert.Empty(t, fileErrs)
}

func TestScheduler_CanonicalOrderWithOneWorker(t *testing.T) {
	// Order must match discovery order regardless of worker count; with many
	// workers completion order is nondeterministic, so assert both settings
	// agree.
	candidates := threeBooks(t)

	one := newTestScheduler(t, "whale", 0)
	one.Workers = 1
	many := newTestScheduler(t, "whale", 0)
	many.Workers = 8

	r1, _ := one.Run(context.Background(), candidates)
	r2, _ := many.Run(context.Background(), candidates)
	require.Len(t, r1, 3)
	require.Len(t, r2, 3)
	for i := range r1 {
		assert.Equal(t, r1[i].Path, r2[i].Path)
	}
}

func TestScheduler_RandomizeSameSeedSameOrder(t *testing.T) {
	candidates := threeBooks(t)

	run := func(seed uint64) []string {
		s := newTestScheduler(t, "whale", 0)
		s.Randomize = true
		s.Seed = seed
		results, _ := s.Run(context.Background(), candidates)
		paths := make([]string, len(results))
		for i, r := range results {
			paths[i] = r.Path
		}
		return paths
	}

	first := run(42)
	second := run(42)
	require.Len(t, first, 3)
	assert.Equal(t, first, second)
}

func TestScheduler_RandomizeDifferentSeedDifferentOrder(t *testing.T) {
	dir := t.TempDir()
	candidates := make([]Candidate, 0, 10)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, writeEPUB(t, dir, fmt.Sprintf("book-%d.epub", i), "", []testDoc{
			{"ch1.xhtml", "a whale"},
		}))
	}

	run := func(seed uint64) []string {
		s := newTestScheduler(t, "whale", 0)
		s.Randomize = true
		s.Seed = seed
		results, _ := s.Run(context.Background(), candidates)
		paths := make([]string, len(results))
		for i, r := range results {
			paths[i] = r.Path
		}
		return paths
	}

	// With 10 candidates two seeds landing on the same permutation would be
	// a 1-in-10! coincidence; checking a few seeds rules even that out.
	first := run(1)
	require.Len(t, first, 10)
	differs := false
	for seed := uint64(2); seed <= 5 && !differs; seed++ {
		other := run(seed)
		require.Len(t, other, 10)
		for i := range first {
			if first[i] != other[i] {
				differs = true
				break
			}
		}
	}
	assert.True(t, differs, "every seed produced the same order")
}

func TestScheduler_SkippedCandidatesCounted(t *testing.T) {
	candidates := append(threeBooks(t), Candidate{Path: "notes.txt", Size: 10})

	s := newTestScheduler(t, "whale", 0)
	results, _ := s.Run(context.Background(), candidates)
	assert.Len(t, results, 3)

	sn := s.State.Snapshot()
	assert.Equal(t, int64(1), sn.Skipped)
	assert.Equal(t, int64(3), sn.Total)
}

func TestScheduler_FileErrorDoesNotAbortRun(t *testing.T) {
	dir := t.TempDir()
	candidates := []Candidate{
		writeFile(t, dir, "broken.epub", []byte("not a zip archive")),
		writeEPUB(t, dir, "good.epub", "Good Book", []testDoc{
			{"ch1.xhtml", "a whale appears"},
		}),
	}

	s := newTestScheduler(t, "whale", 1)
	results, fileErrs := s.Run(context.Background(), candidates)

	require.Len(t, fileErrs, 1)
	assert.Equal(t, candidates[0].Path, fileErrs[0].Path)
	require.Len(t, results, 1)
	assert.Equal(t, candidates[1].Path, results[0].Path)

	sn := s.State.Snapshot()
	assert.Equal(t, int64(1), sn.Failed)
	assert.Equal(t, int64(2), sn.Completed)
}

func TestScheduler_PreviewsCarryDocument(t *testing.T) {
	dir := t.TempDir()
	candidates := []Candidate{
		writeEPUB(t, dir, "book.epub", "Titled", []testDoc{
			{"first.xhtml", "no hits"},
			{"second.xhtml", "the whale swims"},
		}),
	}

	s := newTestScheduler(t, "whale", 1)
	results, fileErrs := s.Run(context.Background(), candidates)
	require.Empty(t, fileErrs)
	require.Len(t, results, 1)
	require.NotEmpty(t, results[0].Previews)
	assert.Equal(t, "OEBPS/second.xhtml", results[0].Previews[0].Document)
}

func TestScheduler_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := newTestScheduler(t, "whale", 0)
	results, fileErrs := s.Run(ctx, threeBooks(t))
	assert.Empty(t, results)
	assert.Empty(t, fileErrs)
}
