// Package prefetch drives the appointment ingestion pipeline: it splits a
// requested date span into fixed-size chunks, fetches each chunk through the
// upstream client, normalizes and deduplicates the results, caches them by
// query signature, and reports progress for the loading UI.
package prefetch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/dateutil"
)

// DefaultChunkDays is the fixed chunk size. The upstream API enforces an
// undocumented maximum span per call; 4 days stays safely under it and
// keeps progress feedback granular during a slow full load.
const DefaultChunkDays = 4

// ErrAlreadyRunning is returned when Prefetch or Reload is invoked while a
// prior operation is still in flight. Operations are serialized, never
// interleaved.
var ErrAlreadyRunning = errors.New("a prefetch operation is already running")

// Fetcher is the upstream collaborator the engine pulls raw records from.
// konsist.Client satisfies it.
type Fetcher interface {
	FetchRange(ctx context.Context, datai, dataf string) ([]agenda.RawRecord, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, datai, dataf string) ([]agenda.RawRecord, error)

func (f FetcherFunc) FetchRange(ctx context.Context, datai, dataf string) ([]agenda.RawRecord, error) {
	return f(ctx, datai, dataf)
}

// Progress is the loading-indicator state for the current operation. Total
// is the number of planned chunks; Done counts processed chunks, failures
// included, and so also reflects chronological coverage.
type Progress struct {
	Running bool   `json:"running"`
	Done    int    `json:"done"`
	Total   int    `json:"total"`
	Current string `json:"currentLabel"`
}

// Engine owns one session's working record set, chunk cache, and progress
// state. Construct one per session or view; there are no process-wide
// singletons. All mutation happens inside the operation loop under a single
// mutex, so readers may take snapshots while a fetch is in flight.
type Engine struct {
	fetcher   Fetcher
	cache     Cache
	chunkDays int

	mu          sync.Mutex
	running     bool
	working     []agenda.Appointment
	filter      agenda.Filter
	windowStart string
	windowEnd   string
	progress    Progress
}

func NewEngine(fetcher Fetcher, cache Cache, chunkDays int) *Engine {
	if chunkDays <= 0 {
		chunkDays = DefaultChunkDays
	}
	return &Engine{fetcher: fetcher, cache: cache, chunkDays: chunkDays}
}

// Prefetch loads the inclusive span [datai, dataf] under the given filter
// triple, merging fetched chunks into the working set. Previously
// accumulated records are kept.
func (e *Engine) Prefetch(ctx context.Context, datai, dataf string, f agenda.Filter) error {
	return e.run(ctx, datai, dataf, f, false)
}

// Reload discards the working set and the chunk cache, then fetches the
// span from scratch. Used for explicit refreshes, window navigation, and
// filter changes.
func (e *Engine) Reload(ctx context.Context, datai, dataf string, f agenda.Filter) error {
	return e.run(ctx, datai, dataf, f, true)
}

func (e *Engine) run(ctx context.Context, datai, dataf string, f agenda.Filter, clear bool) error {
	start, err := dateutil.ParseISO(datai)
	if err != nil {
		return fmt.Errorf("plan prefetch: %w", err)
	}
	end, err := dateutil.ParseISO(dataf)
	if err != nil {
		return fmt.Errorf("plan prefetch: %w", err)
	}
	chunks, err := dateutil.PlanChunks(start, end, e.chunkDays)
	if err != nil {
		return fmt.Errorf("plan prefetch: %w", err)
	}

	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.filter = f
	e.windowStart = datai
	e.windowEnd = dataf
	if clear {
		e.working = nil
	}
	e.progress = Progress{Running: true, Total: len(chunks)}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.running = false
		e.progress.Running = false
		e.progress.Current = ""
		e.mu.Unlock()
	}()

	if clear {
		if err := e.cache.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("chunk cache clear failed")
		}
	}

	log.Info().Str("range", datai+".."+dataf).Int("chunks", len(chunks)).
		Bool("reload", clear).Msg("prefetch started")

	for _, chunk := range chunks {
		// Cancellation point: completed chunks stay cached, nothing
		// is rolled back.
		if err := ctx.Err(); err != nil {
			log.Info().Str("chunk", chunk.Label()).Msg("prefetch cancelled")
			return err
		}

		e.setCurrent(chunk.Label())
		key := KeyFor(chunk, f)

		records, hit, err := e.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("chunk", chunk.Label()).Msg("chunk cache read failed, refetching")
			hit = false
		}
		if !hit {
			raws, err := e.fetcher.FetchRange(ctx, dateutil.FormatISO(chunk.Start), dateutil.FormatISO(chunk.End))
			if err != nil {
				// A failed chunk leaves a gap but never aborts
				// the operation; partial data beats no data.
				log.Warn().Err(err).Str("chunk", chunk.Label()).Msg("chunk fetch failed, skipping")
				e.advance()
				continue
			}
			records = agenda.Normalize(raws)
			if err := e.cache.Put(ctx, key, records); err != nil {
				log.Warn().Err(err).Str("chunk", chunk.Label()).Msg("chunk cache write failed")
			}
		}

		e.mu.Lock()
		e.working = agenda.Dedupe(e.working, records)
		e.mu.Unlock()
		e.advance()
	}

	log.Info().Str("range", datai+".."+dataf).Int("records", e.Count()).Msg("prefetch finished")
	return nil
}

func (e *Engine) setCurrent(label string) {
	e.mu.Lock()
	e.progress.Current = label
	e.mu.Unlock()
}

func (e *Engine) advance() {
	e.mu.Lock()
	if e.progress.Done < e.progress.Total {
		e.progress.Done++
	}
	e.mu.Unlock()
}

// Progress returns a snapshot of the loading state.
func (e *Engine) Progress() Progress {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.progress
}

// Snapshot returns a copy of the deduplicated working record set. Safe to
// call while an operation is in flight.
func (e *Engine) Snapshot() []agenda.Appointment {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]agenda.Appointment, len(e.working))
	copy(out, e.working)
	return out
}

// Count is the size of the working record set.
func (e *Engine) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.working)
}

// Window returns the date span of the last operation, empty strings before
// the first one.
func (e *Engine) Window() (string, string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.windowStart, e.windowEnd
}

// Filter returns the filter triple of the last operation.
func (e *Engine) Filter() agenda.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}
