package document

import (
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// StoredDocument is one entry in the scanned paperwork history. JSON field
// names are part of the persisted format.
type StoredDocument struct {
	ID            string     `json:"id"`
	Provider      string     `json:"provider"`
	Category      string     `json:"category"`
	Amount        float64    `json:"amount"`
	AmountSpoken  string     `json:"amountSpoken"`
	DueDate       string     `json:"dueDate"`
	DueDateSpoken string     `json:"dueDateSpoken"`
	ScannedAt     time.Time  `json:"scannedAt"`
	ImageData     string     `json:"imageData,omitempty"`
	IsArchived    bool       `json:"isArchived"`
	ArchivedAt    *time.Time `json:"archivedAt,omitempty"`
}

// Reminder is a due-date reminder derived from a stored document.
type Reminder struct {
	ID        string  `json:"id"`
	DocID     string  `json:"docId"`
	Title     string  `json:"title"`
	DueDate   string  `json:"dueDate"`
	Amount    float64 `json:"amount"`
	Completed bool    `json:"completed"`
}

// Statistics are running usage counters. Only LastUsed is ever overwritten;
// everything else is monotonically non-decreasing.
type Statistics struct {
	DocumentsScanned   int       `json:"documentsScanned"`
	ScamsDetected      int       `json:"scamsDetected"`
	TotalAmountTracked float64   `json:"totalAmountTracked"`
	DocumentsArchived  int       `json:"documentsArchived"`
	FirstUsed          time.Time `json:"firstUsed"`
	LastUsed           time.Time `json:"lastUsed"`
}

// EmergencyContact is someone the user can reach when a document worries them.
type EmergencyContact struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UserSettings holds the spoken-feedback preferences.
type UserSettings struct {
	Volume           float64           `json:"volume"`
	AutoSpeak        bool              `json:"autoSpeak"`
	SpeechRate       float64           `json:"speechRate"`
	SpeechPitch      float64           `json:"speechPitch"`
	VoiceID          string            `json:"voiceId,omitempty"`
	EmergencyContact *EmergencyContact `json:"emergencyContact,omitempty"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() UserSettings {
	return UserSettings{
		Volume:      0.3,
		AutoSpeak:   true,
		SpeechRate:  0.85,
		SpeechPitch: 1.05,
	}
}

// IDGenerator generates unique IDs for stored records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates lexically sortable ULIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return ulid.Make().String()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// NewULIDGenerator returns the default ULID-based id generator.
func NewULIDGenerator() IDGenerator {
	return &defaultIDGenerator{}
}

// SystemClock returns the wall-clock time source.
func SystemClock() TimeSource {
	return &defaultTimeSource{}
}

// DueDateLayout is the ISO date format used for due dates.
const DueDateLayout = "2006-01-02"

// parseDueDate parses an ISO due date.
func parseDueDate(value string) (time.Time, error) {
	t, err := time.Parse(DueDateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing due date: %w", err)
	}
	return t, nil
}
