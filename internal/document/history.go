package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// MaxHistory is the number of documents kept; older entries are dropped.
const MaxHistory = 100

// History is the ordered, bounded log of scanned documents, newest first.
// All mutations are applied read-modify-write against the latest state under
// one lock, then persisted to the history collection.
type History struct {
	kv    KV
	idGen IDGenerator
	clock TimeSource

	mu   sync.Mutex
	docs []StoredDocument
}

// NewHistory loads the history collection. Corrupt or missing data is
// treated as an empty history, never an error.
func NewHistory(kv KV) (*History, error) {
	return NewHistoryWithDeps(kv, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewHistoryWithDeps creates a History with custom dependencies for testing
func NewHistoryWithDeps(kv KV, idGen IDGenerator, clock TimeSource) (*History, error) {
	h := &History{kv: kv, idGen: idGen, clock: clock}

	data, err := kv.Get(KeyHistory)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &h.docs); err != nil {
			slog.Warn("Corrupt history collection, starting empty", "error", err)
			h.docs = nil
		}
	}

	return h, nil
}

// Add stores a new document at the head of the history, assigning its ID and
// capture timestamp, and truncates to the most recent MaxHistory entries.
// The stored record is returned so callers can link reminders or messages.
func (h *History) Add(doc StoredDocument) (StoredDocument, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	doc.ID = h.idGen.Generate()
	doc.ScannedAt = h.clock.Now()
	doc.IsArchived = false
	doc.ArchivedAt = nil

	docs := append([]StoredDocument{doc}, h.docs...)
	if len(docs) > MaxHistory {
		docs = docs[:MaxHistory]
	}

	if err := h.persist(docs); err != nil {
		return StoredDocument{}, err
	}
	h.docs = docs
	return doc, nil
}

// ToggleArchived flips the archived flag, stamping archivedAt on the way in
// and clearing it on the way out. An unknown id is a no-op, reported through
// the second return value.
func (h *History) ToggleArchived(id string) (StoredDocument, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	docs := make([]StoredDocument, len(h.docs))
	copy(docs, h.docs)

	for i := range docs {
		if docs[i].ID != id {
			continue
		}
		docs[i].IsArchived = !docs[i].IsArchived
		if docs[i].IsArchived {
			now := h.clock.Now()
			docs[i].ArchivedAt = &now
		} else {
			docs[i].ArchivedAt = nil
		}
		if err := h.persist(docs); err != nil {
			return StoredDocument{}, false, err
		}
		h.docs = docs
		return docs[i], true, nil
	}

	return StoredDocument{}, false, nil
}

// FindPrevious returns the first stored document whose provider matches
// case-insensitively or whose category matches exactly, scanning newest
// first. Either match is enough.
func (h *History) FindPrevious(provider, category string) (StoredDocument, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range h.docs {
		if strings.EqualFold(d.Provider, provider) || d.Category == category {
			return d, true
		}
	}
	return StoredDocument{}, false
}

// Get returns the stored document with the given id.
func (h *History) Get(id string) (StoredDocument, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, d := range h.docs {
		if d.ID == id {
			return d, true
		}
	}
	return StoredDocument{}, false
}

// Unread returns the unarchived documents sorted by capture time, most
// recent first.
func (h *History) Unread() []StoredDocument {
	h.mu.Lock()
	defer h.mu.Unlock()

	unread := make([]StoredDocument, 0)
	for _, d := range h.docs {
		if !d.IsArchived {
			unread = append(unread, d)
		}
	}
	sort.SliceStable(unread, func(i, j int) bool {
		return unread[i].ScannedAt.After(unread[j].ScannedAt)
	})
	return unread
}

// All returns a copy of the history in stored order, newest first.
func (h *History) All() []StoredDocument {
	h.mu.Lock()
	defer h.mu.Unlock()

	docs := make([]StoredDocument, len(h.docs))
	copy(docs, h.docs)
	return docs
}

// Recent returns up to n of the most recently stored documents.
func (h *History) Recent(n int) []StoredDocument {
	h.mu.Lock()
	defer h.mu.Unlock()

	if n > len(h.docs) {
		n = len(h.docs)
	}
	docs := make([]StoredDocument, n)
	copy(docs, h.docs[:n])
	return docs
}

func (h *History) persist(docs []StoredDocument) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("marshaling history: %w", err)
	}
	if err := h.kv.Set(KeyHistory, data); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
