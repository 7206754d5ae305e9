package document

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Reminders derives and deduplicates due-date reminders from stored
// documents. At most one reminder ever exists per document.
type Reminders struct {
	kv    KV
	clock TimeSource

	mu    sync.Mutex
	items []Reminder
}

// NewReminders loads the reminders collection. Corrupt or missing data is
// treated as empty.
func NewReminders(kv KV) (*Reminders, error) {
	return NewRemindersWithDeps(kv, &defaultTimeSource{})
}

// NewRemindersWithDeps creates a Reminders with a custom time source for testing
func NewRemindersWithDeps(kv KV, clock TimeSource) (*Reminders, error) {
	r := &Reminders{kv: kv, clock: clock}

	data, err := kv.Get(KeyReminders)
	if err != nil {
		return nil, fmt.Errorf("loading reminders: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &r.items); err != nil {
			slog.Warn("Corrupt reminders collection, starting empty", "error", err)
			r.items = nil
		}
	}

	return r, nil
}

// Create schedules a reminder for the document. Documents without a usable
// due date are skipped, and a document that already has a reminder keeps the
// one it has; a document may be analyzed and re-displayed many times, but a
// reminder is created at most once. The created reminder is returned, or nil
// when nothing was scheduled.
func (r *Reminders) Create(doc StoredDocument) (*Reminder, error) {
	if doc.DueDate == "" || doc.DueDate == "unknown" {
		return nil, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.items {
		if existing.DocID == doc.ID {
			return nil, nil
		}
	}

	reminder := Reminder{
		ID:      uuid.NewString(),
		DocID:   doc.ID,
		Title:   fmt.Sprintf("%s %s", doc.Provider, doc.Category),
		DueDate: doc.DueDate,
		Amount:  doc.Amount,
	}

	items := append(append([]Reminder{}, r.items...), reminder)
	// ISO dates sort the same lexically and chronologically
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].DueDate < items[j].DueDate
	})

	if err := r.persist(items); err != nil {
		return nil, err
	}
	r.items = items
	return &reminder, nil
}

// Upcoming returns the incomplete reminders whose due date is not before the
// current time. A due date that fails to parse is excluded.
func (r *Reminders) Upcoming() []Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.clock.Now()
	upcoming := make([]Reminder, 0)
	for _, item := range r.items {
		if item.Completed {
			continue
		}
		due, err := parseDueDate(item.DueDate)
		if err != nil || due.Before(now) {
			continue
		}
		upcoming = append(upcoming, item)
	}
	return upcoming
}

// MarkCompleted completes the reminder. Unknown ids are a no-op, reported
// through the return value.
func (r *Reminders) MarkCompleted(id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]Reminder, len(r.items))
	copy(items, r.items)

	for i := range items {
		if items[i].ID != id {
			continue
		}
		items[i].Completed = true
		if err := r.persist(items); err != nil {
			return false, err
		}
		r.items = items
		return true, nil
	}

	return false, nil
}

// All returns a copy of every reminder, sorted ascending by due date.
func (r *Reminders) All() []Reminder {
	r.mu.Lock()
	defer r.mu.Unlock()

	items := make([]Reminder, len(r.items))
	copy(items, r.items)
	return items
}

func (r *Reminders) persist(items []Reminder) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshaling reminders: %w", err)
	}
	if err := r.kv.Set(KeyReminders, data); err != nil {
		return fmt.Errorf("saving reminders: %w", err)
	}
	return nil
}
