package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sterling-assist/sterling/internal/analysis"
	"github.com/sterling-assist/sterling/internal/capture"
	"github.com/sterling-assist/sterling/internal/document"
)

// Role distinguishes who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry in the conversation. JSON field names match the
// frontend's message format.
type Message struct {
	ID             string                     `json:"id"`
	Type           Role                       `json:"type"`
	Content        string                     `json:"content"`
	FullRawContent string                     `json:"fullRawContent,omitempty"`
	Timestamp      time.Time                  `json:"timestamp"`
	ImageData      string                     `json:"imageData,omitempty"`
	Analysis       *analysis.DocumentAnalysis `json:"analysis,omitempty"`
	RelatedDocID   string                     `json:"relatedDocId,omitempty"`
}

// ErrAnalysisInFlight is returned when a new request arrives while a remote
// analysis is still outstanding. At most one request is in flight at a time.
var ErrAnalysisInFlight = errors.New("an analysis is already in progress")

// QualityError rejects a capture that failed the full-resolution quality
// re-validation before submission.
type QualityError struct {
	Verdict capture.Verdict
	Message string
}

func (e *QualityError) Error() string {
	return e.Message
}

const (
	// Greeting opens every session.
	Greeting = "Hello! I'm Sterling, your visionary guard. I'm here to be your eyes on your paperwork and your shield against scams. Tap Scan to show me a document, or use a Voice Command."

	readingNotice = "I'm using my eyes to read that photo for you now. Just a moment."

	imageApology      = "I'm so sorry, I had a bit of a blink there and couldn't process that image. Could you try taking the photo once more, perhaps with a bit more light?"
	connectionApology = "I'm having a little trouble connecting to my brain right now. Could you check your internet for me, please?"
)

// Service orchestrates capture validation, the remote analysis call, reply
// parsing and the bookkeeping side effects.
type Service struct {
	analyzer  analysis.Analyzer
	history   *document.History
	reminders *document.Reminders
	stats     *document.Stats
	settings  *document.Settings
	speaker   Speaker
	haptics   Haptics
	earcons   Earcons
	idGen     document.IDGenerator
	clock     document.TimeSource
	inFlight  atomic.Bool
}

// Deps bundles the service dependencies.
type Deps struct {
	Analyzer  analysis.Analyzer
	History   *document.History
	Reminders *document.Reminders
	Stats     *document.Stats
	Settings  *document.Settings
	Speaker   Speaker
	Haptics   Haptics
	Earcons   Earcons

	// IDGen and Clock may be left nil outside of tests.
	IDGen document.IDGenerator
	Clock document.TimeSource
}

// NewService creates a new Service
func NewService(deps Deps) *Service {
	if deps.IDGen == nil {
		deps.IDGen = document.NewULIDGenerator()
	}
	if deps.Clock == nil {
		deps.Clock = document.SystemClock()
	}
	return &Service{
		analyzer:  deps.Analyzer,
		history:   deps.History,
		reminders: deps.Reminders,
		stats:     deps.Stats,
		settings:  deps.Settings,
		speaker:   deps.Speaker,
		haptics:   deps.Haptics,
		earcons:   deps.Earcons,
		idGen:     deps.IDGen,
		clock:     deps.Clock,
	}
}

// ScanDocument validates an uploaded or captured document photo and submits
// it for analysis. The photo is normalized to PNG and re-assessed at full
// resolution; a failing verdict never reaches the analyzer and comes back as
// a QualityError carrying the spoken retry message.
func (s *Service) ScanDocument(ctx context.Context, data []byte, contentType, text string) (Message, error) {
	pngData, mimeType, err := analysis.PrepareImage(data, contentType)
	if err != nil {
		return Message{}, fmt.Errorf("preparing image: %w", err)
	}

	frame, err := capture.DecodeFrame(pngData)
	if err != nil {
		return Message{}, fmt.Errorf("decoding capture: %w", err)
	}

	if verdict := capture.Assess(frame); verdict.Quality != capture.QualityGood {
		s.haptics.Error()
		msg := capture.RetryMessage(verdict.Issue)
		s.speaker.Speak(msg)
		return Message{}, &QualityError{Verdict: verdict, Message: msg}
	}

	return s.ProcessInput(ctx, text, &analysis.Image{MIMEType: mimeType, Data: pngData})
}

// ProcessInput sends the user's text and optional photo to the analyzer and
// applies the reply. Remote failures are swallowed and replaced with a fixed
// apology; they never reach the caller as errors. Only one request may be in
// flight at a time.
func (s *Service) ProcessInput(ctx context.Context, text string, image *analysis.Image) (Message, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		return Message{}, ErrAnalysisInFlight
	}
	defer s.inFlight.Store(false)

	if image != nil && text == "" {
		s.haptics.Success()
		s.speaker.Speak(readingNotice)
	}

	contextText := text
	if summary := s.historySummary(); summary != "" {
		contextText += " [Scanned history: " + summary + "]"
	}

	raw, err := s.analyzer.Analyze(ctx, contextText, image)
	if err != nil {
		slog.Error("Analysis failed", "error", err)
		s.haptics.Error()
		raw = apologyFor(err)
	}

	return s.recordReply(raw, image), nil
}

// historySummary condenses the ten most recent documents into the context
// snippet sent alongside every request.
func (s *Service) historySummary() string {
	recent := s.history.Recent(10)
	if len(recent) == 0 {
		return ""
	}

	parts := make([]string, 0, len(recent))
	for _, d := range recent {
		amount := strconv.FormatFloat(d.Amount, 'f', -1, 64)
		parts = append(parts, fmt.Sprintf("%s: £%s. Archived: %t", d.Provider, amount, d.IsArchived))
	}
	return strings.Join(parts, "; ")
}

// recordReply parses the reply and applies its side effects: the document is
// always stored, a reminder is scheduled for bills with a known due date,
// and the statistics are always updated. The sequence runs to completion
// before the message is returned, so readers never observe a partial
// application.
func (s *Service) recordReply(raw string, image *analysis.Image) Message {
	content, parsed := analysis.ParseReply(raw)

	msg := Message{
		ID:             s.idGen.Generate(),
		Type:           RoleAssistant,
		Content:        content,
		FullRawContent: raw,
		Timestamp:      s.clock.Now(),
	}
	if image != nil {
		msg.ImageData = base64.StdEncoding.EncodeToString(image.Data)
	}

	if parsed != nil {
		if parsed.IsScam() {
			s.earcons.Alert()
			s.haptics.Warning()
		} else {
			s.earcons.ScanSuccess()
			s.haptics.Success()
		}

		stored, err := s.history.Add(document.StoredDocument{
			Provider:      parsed.Provider,
			Category:      parsed.Category,
			Amount:        parsed.Amount,
			AmountSpoken:  parsed.AmountSpoken,
			DueDate:       parsed.DueDate,
			DueDateSpoken: parsed.DueDateSpoken,
			ImageData:     msg.ImageData,
		})
		if err != nil {
			slog.Error("Failed to store document", "error", err)
		} else {
			msg.RelatedDocID = stored.ID
			if parsed.DocumentType == analysis.DocumentTypeBill && parsed.DueDate != analysis.DueDateUnknown {
				if _, err := s.reminders.Create(stored); err != nil {
					slog.Error("Failed to create reminder", "doc_id", stored.ID, "error", err)
				}
			}
		}

		if err := s.stats.RecordScan(parsed.Amount, parsed.IsScam()); err != nil {
			slog.Error("Failed to record scan", "error", err)
		}

		msg.Analysis = parsed
	}

	if s.settings.Get().AutoSpeak {
		s.speaker.Speak(content)
	}

	return msg
}

// apologyFor maps a remote failure to one of the two fixed user-facing
// apology strings. Raw errors never reach the user.
func apologyFor(err error) string {
	if strings.Contains(err.Error(), "Unable to process input image") {
		return imageApology
	}
	return connectionApology
}

// ToggleRead flips a document's archived state. The first transition into
// the archive also counts towards the statistics and is confirmed out loud.
func (s *Service) ToggleRead(id string) (string, bool, error) {
	updated, found, err := s.history.ToggleArchived(id)
	if err != nil {
		return "", false, fmt.Errorf("toggling archive: %w", err)
	}
	if !found {
		return "", false, nil
	}

	s.haptics.Success()
	if !updated.IsArchived {
		return "", true, nil
	}

	if err := s.stats.RecordArchived(); err != nil {
		slog.Error("Failed to record archive", "error", err)
	}
	confirmation := fmt.Sprintf("Got it. I've marked your %s document as read and moved it to your archive.", updated.Provider)
	s.speaker.Speak(confirmation)
	return confirmation, true, nil
}

// UnreadSummary voices and returns the state of the unread pile.
func (s *Service) UnreadSummary() string {
	unread := s.history.Unread()

	var msg string
	if len(unread) == 0 {
		msg = "Sterling shows no unread documents in your records. You're all caught up!"
	} else {
		msg = fmt.Sprintf("You have %d items waiting. The most recent is from %s.", len(unread), unread[0].Provider)
	}

	s.haptics.Success()
	s.speaker.Speak(msg)
	return msg
}

// Documents returns the scan history, newest first.
func (s *Service) Documents() []document.StoredDocument {
	return s.history.All()
}

// UnreadDocuments returns the unarchived documents, most recent first.
func (s *Service) UnreadDocuments() []document.StoredDocument {
	return s.history.Unread()
}

// FindPrevious looks up an earlier document from the same provider or
// category for trend comparisons.
func (s *Service) FindPrevious(provider, category string) (document.StoredDocument, bool) {
	return s.history.FindPrevious(provider, category)
}

// Reminders returns every reminder, soonest first.
func (s *Service) Reminders() []document.Reminder {
	return s.reminders.All()
}

// UpcomingReminders returns the incomplete reminders that are not yet due.
func (s *Service) UpcomingReminders() []document.Reminder {
	return s.reminders.Upcoming()
}

// CompleteReminder marks a reminder as handled.
func (s *Service) CompleteReminder(id string) (bool, error) {
	return s.reminders.MarkCompleted(id)
}

// Statistics returns the current usage counters.
func (s *Service) Statistics() document.Statistics {
	return s.stats.Current()
}

// Settings returns the current user settings.
func (s *Service) Settings() document.UserSettings {
	return s.settings.Get()
}

// SaveSettings replaces the user settings.
func (s *Service) SaveSettings(settings document.UserSettings) error {
	return s.settings.Save(settings)
}

// Close closes the analyzer
func (s *Service) Close() error {
	return s.analyzer.Close()
}
