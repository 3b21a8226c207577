// Package stats holds the latest stream statistics snapshot.
//
// The store is independent of the session lock: reads never wait on a
// start or stop in progress. Nothing in this module measures statistics;
// an external producer calls Set.
package stats

import "sync"

// NetworkQualityUnknown is reported until a producer supplies a value.
const NetworkQualityUnknown = "Unknown"

// StreamStats is a point-in-time statistics snapshot.
type StreamStats struct {
	Bitrate        uint32  // kbps
	FPS            float32 // frames per second
	DroppedFrames  uint32
	NetworkQuality string
	UptimeSeconds  uint64
}

// Initial returns the snapshot reported before any producer ran.
func Initial() StreamStats {
	return StreamStats{NetworkQuality: NetworkQualityUnknown}
}

// Store is a mutex-guarded StreamStats value.
type Store struct {
	mu    sync.RWMutex
	stats StreamStats
	onSet func(StreamStats)
}

// Option configures a Store.
type Option func(*Store)

// WithOnSet registers a hook called with every new snapshot after the
// store's lock is released.
func WithOnSet(fn func(StreamStats)) Option {
	return func(s *Store) {
		s.onSet = fn
	}
}

// NewStore creates a store holding Initial().
func NewStore(opts ...Option) *Store {
	s := &Store{stats: Initial()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a copy of the current snapshot.
func (s *Store) Get() StreamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats
}

// Set replaces the snapshot.
func (s *Store) Set(stats StreamStats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()

	if s.onSet != nil {
		s.onSet(stats)
	}
}

// Reset restores Initial().
func (s *Store) Reset() {
	s.Set(Initial())
}
