package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// Settings persists the user's spoken-feedback preferences.
type Settings struct {
	kv KV

	mu      sync.Mutex
	current UserSettings
}

// NewSettings loads the settings collection, falling back to defaults when
// the data is missing or corrupt.
func NewSettings(kv KV) (*Settings, error) {
	s := &Settings{kv: kv, current: DefaultSettings()}

	data, err := kv.Get(KeySettings)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if len(data) > 0 {
		var loaded UserSettings
		if err := json.Unmarshal(data, &loaded); err != nil {
			slog.Warn("Corrupt settings collection, using defaults", "error", err)
		} else {
			s.current = loaded
		}
	}

	return s, nil
}

// Get returns the current settings.
func (s *Settings) Get() UserSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save replaces and persists the settings.
func (s *Settings) Save(settings UserSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("marshaling settings: %w", err)
	}
	if err := s.kv.Set(KeySettings, data); err != nil {
		return fmt.Errorf("saving settings: %w", err)
	}
	s.current = settings
	return nil
}
