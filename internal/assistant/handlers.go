package assistant

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/sterling-assist/sterling/internal/document"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// writeJSON writes a JSON response body
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// handleGreeting returns the session opening line
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"greeting": Greeting})
}

// handleScan handles a document photo upload
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	// Max 50MB to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		setCORSHeaders(w)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		setCORSHeaders(w)
		errorMsg := "No file provided"
		if err.Error() == "http: no such file" {
			errorMsg = "No file was selected. Please choose a file to upload."
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": errorMsg})
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		setCORSHeaders(w)
		writeJSON(w, http.StatusBadRequest, map[string]string{
			"error": "File is too large. Maximum size is 50MB. Please compress or resize your image.",
		})
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		setCORSHeaders(w)
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": "Error reading file. Please try again.",
		})
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		ext := strings.ToLower(filepath.Ext(header.Filename))
		switch ext {
		case ".jpg", ".jpeg":
			contentType = "image/jpeg"
		case ".png":
			contentType = "image/png"
		case ".pdf":
			contentType = "application/pdf"
		case ".heic":
			contentType = "image/heic"
		case ".heif":
			contentType = "image/heif"
		default:
			contentType = "application/octet-stream"
		}
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))

	text := r.FormValue("text")

	msg, err := s.service.ScanDocument(r.Context(), data, contentType, text)
	if err != nil {
		s.writeServiceError(w, header.Filename, err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// handleMessage handles a text-only conversation turn
func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		corsError(w, "Text required", http.StatusBadRequest)
		return
	}

	msg, err := s.service.ProcessInput(r.Context(), req.Text, nil)
	if err != nil {
		s.writeServiceError(w, "", err)
		return
	}

	writeJSON(w, http.StatusCreated, msg)
}

// writeServiceError maps service failures to HTTP responses. Quality
// rejections and the single-flight limit carry their own status codes.
func (s *Server) writeServiceError(w http.ResponseWriter, filename string, err error) {
	var qerr *QualityError
	if errors.As(err, &qerr) {
		setCORSHeaders(w)
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":   qerr.Message,
			"quality": string(qerr.Verdict.Quality),
			"issue":   string(qerr.Verdict.Issue),
		})
		return
	}
	if errors.Is(err, ErrAnalysisInFlight) {
		setCORSHeaders(w)
		writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		return
	}

	slog.Error("Error processing input", "filename", filename, "error", err)
	setCORSHeaders(w)
	writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
}

// handleListDocuments returns the full scan history
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.service.Documents()
	if docs == nil {
		docs = []document.StoredDocument{}
	}
	writeJSON(w, http.StatusOK, docs)
}

// handleUnreadDocuments returns the unarchived documents with a spoken summary
func (s *Server) handleUnreadDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.service.UnreadDocuments()
	if docs == nil {
		docs = []document.StoredDocument{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"documents": docs,
		"summary":   s.service.UnreadSummary(),
	})
}

// handleFindPrevious looks up an earlier document by provider or category
func (s *Server) handleFindPrevious(w http.ResponseWriter, r *http.Request) {
	provider := r.URL.Query().Get("provider")
	category := r.URL.Query().Get("category")
	if provider == "" && category == "" {
		corsError(w, "Provider or category required", http.StatusBadRequest)
		return
	}

	doc, found := s.service.FindPrevious(provider, category)
	if !found {
		corsError(w, "No previous document", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, doc)
}

// handleToggleArchive flips a document's archived state
func (s *Server) handleToggleArchive(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Document ID required", http.StatusBadRequest)
		return
	}

	confirmation, found, err := s.service.ToggleRead(id)
	if err != nil {
		slog.Error("Error toggling archive", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		corsError(w, "Document not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"confirmation": confirmation})
}

// handleListReminders returns every reminder
func (s *Server) handleListReminders(w http.ResponseWriter, r *http.Request) {
	reminders := s.service.Reminders()
	if reminders == nil {
		reminders = []document.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// handleUpcomingReminders returns the incomplete reminders not yet due
func (s *Server) handleUpcomingReminders(w http.ResponseWriter, r *http.Request) {
	reminders := s.service.UpcomingReminders()
	if reminders == nil {
		reminders = []document.Reminder{}
	}
	writeJSON(w, http.StatusOK, reminders)
}

// handleCompleteReminder marks a reminder as handled
func (s *Server) handleCompleteReminder(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		corsError(w, "Reminder ID required", http.StatusBadRequest)
		return
	}

	found, err := s.service.CompleteReminder(id)
	if err != nil {
		slog.Error("Error completing reminder", "id", id, "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	if !found {
		corsError(w, "Reminder not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleStats returns the usage counters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Statistics())
}

// handleGetSettings returns the current user settings
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Settings())
}

// handleSaveSettings replaces the user settings
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var settings document.UserSettings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.service.SaveSettings(settings); err != nil {
		slog.Error("Error saving settings", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, settings)
}
