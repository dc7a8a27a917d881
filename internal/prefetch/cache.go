package prefetch

import (
	"context"
	"sync"

	"github.com/avancesaude/agenda-portal/internal/agenda"
	"github.com/avancesaude/agenda-portal/internal/dateutil"
)

// ChunkKey is the composite query signature a cache entry is stored under:
// the chunk range plus the filter triple active when it was fetched.
type ChunkKey struct {
	Start  string
	End    string
	Filter agenda.Filter
}

// KeyFor builds the cache key for a planned chunk under a filter triple.
func KeyFor(c dateutil.Chunk, f agenda.Filter) ChunkKey {
	return ChunkKey{
		Start:  dateutil.FormatISO(c.Start),
		End:    dateutil.FormatISO(c.End),
		Filter: f,
	}
}

func (k ChunkKey) String() string {
	return k.Start + "_" + k.End + "_" + k.Filter.Key()
}

// Cache stores the normalized records already fetched for a chunk signature.
// Entries live for one browsing session: they are created on first
// successful fetch and cleared wholesale on window changes or reloads,
// never evicted individually.
type Cache interface {
	Get(ctx context.Context, key ChunkKey) ([]agenda.Appointment, bool, error)
	Put(ctx context.Context, key ChunkKey, records []agenda.Appointment) error
	Clear(ctx context.Context) error
}

// MemoryCache is the default single-process Cache.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string][]agenda.Appointment
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]agenda.Appointment)}
}

func (c *MemoryCache) Get(_ context.Context, key ChunkKey) ([]agenda.Appointment, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	records, ok := c.entries[key.String()]
	return records, ok, nil
}

func (c *MemoryCache) Put(_ context.Context, key ChunkKey, records []agenda.Appointment) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key.String()] = records
	return nil
}

func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]agenda.Appointment)
	return nil
}
