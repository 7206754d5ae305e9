package analysis

import "context"

// DocumentAnalysis is the structured record embedded in an assistant reply.
type DocumentAnalysis struct {
	DocumentType     string      `json:"document_type"`
	Provider         string      `json:"provider"`
	Amount           float64     `json:"amount"`
	AmountSpoken     string      `json:"amount_spoken"`
	DueDate          string      `json:"due_date"`
	DueDateSpoken    string      `json:"due_date_spoken"`
	Urgency          string      `json:"urgency"`
	ScamRisk         string      `json:"scam_risk"`
	ScamIndicators   []string    `json:"scam_indicators"`
	ScamReasoning    string      `json:"scam_reasoning,omitempty"`
	SuggestedActions []string    `json:"suggested_actions"`
	Category         string      `json:"category"`
	RequiresResponse bool        `json:"requires_response"`
	Comparison       *Comparison `json:"comparison,omitempty"`
}

// Comparison relates a document to a previously scanned one from the same
// provider or category.
type Comparison struct {
	HasPrevious      bool    `json:"has_previous"`
	PreviousAmount   float64 `json:"previous_amount,omitempty"`
	PreviousDate     string  `json:"previous_date,omitempty"`
	Difference       float64 `json:"difference,omitempty"`
	DifferenceSpoken string  `json:"difference_spoken,omitempty"`
	PercentageChange float64 `json:"percentage_change,omitempty"`
	Trend            string  `json:"trend,omitempty"`
	Unusual          bool    `json:"unusual,omitempty"`
	Note             string  `json:"note,omitempty"`
}

const (
	// DocumentTypeBill is the only document type that schedules a reminder.
	DocumentTypeBill = "bill"

	// ScamRiskNone means the model found nothing suspicious.
	ScamRiskNone = "none"

	// DueDateUnknown is the sentinel the model uses when no due date was
	// found on the document.
	DueDateUnknown = "unknown"
)

// IsScam reports whether the model flagged any level of scam risk.
func (a *DocumentAnalysis) IsScam() bool {
	return a.ScamRisk != "" && a.ScamRisk != ScamRiskNone
}

// Image is a document photo attached to an analysis request.
type Image struct {
	MIMEType string
	Data     []byte
}

// Analyzer is the remote document-understanding service. Analyze returns the
// raw reply text, which may embed a fenced DocumentAnalysis block.
type Analyzer interface {
	Analyze(ctx context.Context, text string, image *Image) (string, error)

	// Close closes the analyzer and releases resources
	Close() error
}
