package scan

import (
	"context"
	"math/rand"
	"sync"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"epubgrep/internal/epub"
	"epubgrep/internal/search"
)

// FileError is a per-file failure: the file could not be scanned, the run
// continued. It never aborts the batch.
type FileError struct {
	Path string
	Err  error
}

// Scheduler drives one run: it filters candidates, dispatches them to a
// bounded pool of workers, and aggregates results back into canonical order.
type Scheduler struct {
	Engine     *search.Engine
	Filter     *Filter
	State      *State
	Log        zerolog.Logger
	Workers    int
	MinMatches int
	Randomize  bool
	Seed       uint64
	EntryLimit int64 // per-entry decompression bound handed to epub.Open
}

// Run scans candidates and returns results whose match count is at least
// MinMatches, plus the per-file errors. Result order is canonical: discovery
// order, or the seeded permutation when Randomize is set — never worker
// completion order. The same seed always yields the same processing and
// output order.
func (s *Scheduler) Run(ctx context.Context, candidates []Candidate) ([]search.FileResult, []FileError) {
	accepted := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		ok, reason := s.Filter.Accept(c)
		if !ok {
			s.State.Skip()
			s.Log.Debug().Str("path", c.Path).Str("reason", reason).Msg("candidate skipped")
			continue
		}
		accepted = append(accepted, c)
	}

	if s.Randomize {
		rng := rand.New(rand.NewSource(int64(s.Seed)))
		rng.Shuffle(len(accepted), func(i, j int) {
			accepted[i], accepted[j] = accepted[j], accepted[i]
		})
	}
	s.State.SetTotal(len(accepted))

	workers := s.Workers
	if workers < 1 {
		workers = 1
	}

	// Slots are indexed by dispatch position, so the canonical order is
	// preserved no matter which worker finishes first.
	results := make([]*search.FileResult, len(accepted))
	var errMu sync.Mutex
	var fileErrs []FileError

	p := pool.New().WithMaxGoroutines(workers).WithContext(ctx)
	for i, c := range accepted {
		p.Go(func(ctx context.Context) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			s.State.Begin(c.Path)
			res, err := s.scanFile(c)
			if err != nil {
				s.State.Done(c.Path, true)
				s.Log.Warn().Str("path", c.Path).Err(err).Msg("file failed")
				errMu.Lock()
				fileErrs = append(fileErrs, FileError{Path: c.Path, Err: err})
				errMu.Unlock()
				return nil
			}
			s.State.Done(c.Path, false)
			results[i] = res
			return nil
		})
	}
	// File-level errors are swallowed above; only context cancellation
	// surfaces here, and the partial results are still worth returning.
	_ = p.Wait()

	out := make([]search.FileResult, 0, len(results))
	for _, r := range results {
		if r == nil || r.Count < s.MinMatches {
			continue
		}
		out = append(out, *r)
	}
	return out, fileErrs
}

// scanFile runs the container → extract → match pipeline for one file.
// The file's whole working set is owned here and freed on return.
func (s *Scheduler) scanFile(c Candidate) (*search.FileResult, error) {
	book, err := epub.Open(c.Path, s.EntryLimit)
	if err != nil {
		return nil, err
	}
	defer book.Close()

	for _, w := range book.Warnings() {
		s.Log.Debug().Str("path", c.Path).Msg(w)
	}

	docs := book.Documents()
	segments := make([]search.Segment, 0, len(docs))
	for _, doc := range docs {
		raw, err := book.ReadDocument(doc)
		if err != nil {
			// One unreadable document does not fail the file.
			s.Log.Debug().Str("path", c.Path).Str("doc", doc.Href).Err(err).Msg("document skipped")
			continue
		}
		segments = append(segments, search.Segment{
			Name: doc.Href,
			Text: epub.ExtractText(raw),
		})
	}

	text := search.NewText(segments)
	count, previews := s.Engine.Search(text)

	return &search.FileResult{
		Path:     c.Path,
		Title:    book.Title(),
		Count:    count,
		Previews: previews,
	}, nil
}
