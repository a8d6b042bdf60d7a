package store

import (
	"sync"
	"time"

	"github.com/i474232898/historical-risk-explorer/internal/weather"
)

type memoryEntry struct {
	series  weather.TimeSeries
	savedAt time.Time
}

// MemoryStore is a concurrency-safe in-memory implementation of the series cache.
type MemoryStore struct {
	mu sync.RWMutex

	// key: cache key, value: saved series
	data map[string]memoryEntry

	// optional max age for entries
	maxAge time.Duration
	now    func() time.Time
}

// NewMemoryStore creates a new MemoryStore.
// If maxAge is <= 0, entries never expire.
func NewMemoryStore(maxAge time.Duration) *MemoryStore {
	return &MemoryStore{
		data:   make(map[string]memoryEntry),
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Save stores a copy of the series, replacing any entry with the same key.
func (s *MemoryStore) Save(loc weather.Location, variable, date string, series weather.TimeSeries, source string) error {
	key := Key(loc, variable, date, source)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[key] = memoryEntry{series: clone(series), savedAt: s.now()}
	s.evictLocked()
	return nil
}

// Load returns a copy of the cached series.
func (s *MemoryStore) Load(loc weather.Location, variable, date, source string) (weather.TimeSeries, bool) {
	key := Key(loc, variable, date, source)

	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.data[key]
	if !ok || s.expired(e) {
		return weather.TimeSeries{}, false
	}

	out := clone(e.series)
	out.Source = weather.SourceCache
	return out, true
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.data {
		if !s.expired(e) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return s.maxAge > 0 && s.now().Sub(e.savedAt) > s.maxAge
}

// Enforce retention by age.
func (s *MemoryStore) evictLocked() {
	if s.maxAge <= 0 {
		return
	}
	for k, e := range s.data {
		if s.expired(e) {
			delete(s.data, k)
		}
	}
}

func clone(ts weather.TimeSeries) weather.TimeSeries {
	out := ts
	out.Dates = append([]string(nil), ts.Dates...)
	out.Values = make([]*float64, len(ts.Values))
	for i, v := range ts.Values {
		if v != nil {
			c := *v
			out.Values[i] = &c
		}
	}
	return out
}
