package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
)

// Stats keeps running usage counters. Counters only ever go up.
type Stats struct {
	kv    KV
	clock TimeSource

	mu      sync.Mutex
	current Statistics
}

// NewStats loads the stats collection, initializing firstUsed on the very
// first run. Corrupt data starts the counters over.
func NewStats(kv KV) (*Stats, error) {
	return NewStatsWithDeps(kv, &defaultTimeSource{})
}

// NewStatsWithDeps creates a Stats with a custom time source for testing
func NewStatsWithDeps(kv KV, clock TimeSource) (*Stats, error) {
	s := &Stats{kv: kv, clock: clock}

	data, err := kv.Get(KeyStats)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.current); err != nil {
			slog.Warn("Corrupt stats collection, starting over", "error", err)
			s.current = Statistics{}
		}
	}

	if s.current.FirstUsed.IsZero() {
		now := clock.Now()
		s.current.FirstUsed = now
		s.current.LastUsed = now
	}

	return s, nil
}

// RecordScan counts a completed scan. A NaN amount counts as zero.
func (s *Stats) RecordScan(amount float64, isScam bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	next.DocumentsScanned++
	if isScam {
		next.ScamsDetected++
	}
	if !math.IsNaN(amount) {
		next.TotalAmountTracked += amount
	}
	next.LastUsed = s.clock.Now()

	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// RecordArchived counts a document moved to the archive.
func (s *Stats) RecordArchived() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.current
	next.DocumentsArchived++
	next.LastUsed = s.clock.Now()

	if err := s.persist(next); err != nil {
		return err
	}
	s.current = next
	return nil
}

// Current returns a snapshot of the counters.
func (s *Stats) Current() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Stats) persist(stats Statistics) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshaling stats: %w", err)
	}
	if err := s.kv.Set(KeyStats, data); err != nil {
		return fmt.Errorf("saving stats: %w", err)
	}
	return nil
}
