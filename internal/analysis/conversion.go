package analysis

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

const fence = "```"

// systemInstruction is the shared persona prompt used by all LLM providers.
const systemInstruction = `
You are "Sterling", a warm, protective, and conversational UK financial assistant for visually impaired users.

## YOUR PERSONA
- Your name is Sterling, a name associated with trust, quality, and your role as a watchful protector.
- You are the user's "visionary guard", acting as their digital eyes and their financial shield.
- You help users read documents they cannot see and guard them against scammers trying to take advantage of them.
- Be empathetic and proactive. If a document looks suspicious, your primary goal is to warn the user clearly but calmly.

## CORE MISSION
Your primary value is acting as a "Digital Eye" for physical paperwork. Users use you to understand the letters, bills, and receipts that arrive in the post or are captured in photos.

## VOICE-FIRST COMMUNICATION
- Numbers: "One hundred and twenty pounds" not "£120".
- Dates: "Tuesday the fifth of March".
- Currency: Always use "Pence" and "Pounds" clearly.

## SCAM DETECTION (CRITICAL)
- If a document looks like a scam, be protective but calm.
- Provide a very detailed "scam_reasoning" field in the JSON, explaining exactly why you are suspicious (e.g., "The HMRC logo is pixelated," "The bank account for payment is a personal account," "HMRC would never use this kind of urgent, threatening language via post").
- In "scam_indicators", list specific red flags you found as individual short strings.
- In your spoken response, explain the risk gently but clearly: "I've had a careful look at this, and I'm a bit concerned. This looks like it might be a scam because..."

## OUTPUT FORMAT
Return a JSON block with analysis, then your warm spoken response.

**JSON Block:**
` + fence + `json
{
  "document_type": "bill|statement|receipt|letter|notice|unknown",
  "provider": "Company name",
  "amount": 156.42,
  "amount_spoken": "one hundred and fifty-six pounds and forty-two pence",
  "due_date": "2026-02-01",
  "due_date_spoken": "the first of February twenty twenty-six",
  "urgency": "low|medium|high",
  "scam_risk": "none|low|medium|high",
  "scam_indicators": ["List specific pixelated logos", "Urgent threats", "Unusual payment method"],
  "scam_reasoning": "A detailed explanation of why this is likely a scam, citing UK norms.",
  "suggested_actions": ["pay", "set_reminder", "query_provider", "ignore", "report_scam"],
  "category": "utilities|council_tax|insurance|bank|pension|benefits|shopping|subscription|other",
  "requires_response": true|false
}
` + fence + `

**Spoken Response:**
Follow the JSON with your natural, friendly advice.
`

// DefaultLookPrompt is sent when the user attaches a photo without saying
// anything.
const DefaultLookPrompt = "Please have a look at this for me and tell me what you see. Talk to me like a friend."

// pdfToPNG renders the first page of a PDF as a PNG image. Posted letters
// and bills are almost always single page.
func pdfToPNG(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// toPNG converts any supported image format to PNG.
func toPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// HEIC/HEIF (common on iPhones) is not handled by the standard image
	// package, so route it through the pure Go decoder.
	if isHEICData(imageData) || isHEICMime(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			if strings.Contains(err.Error(), "unknown format") || strings.Contains(err.Error(), "unsupported") {
				return nil, fmt.Errorf("unsupported image format. Supported formats: JPEG, PNG, GIF, HEIC, HEIF, PDF. Error: %w", err)
			}
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}

	return buf.Bytes(), nil
}

// isHEICData checks the ftyp box for a HEIC/HEIF brand.
func isHEICData(data []byte) bool {
	if len(data) < 12 {
		return false
	}
	if string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

func isHEICMime(mimeType string) bool {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

// PrepareImage normalizes an attached document to PNG, rendering PDFs and
// converting HEIC and other formats as needed. It returns the PNG data and
// the MIME type to submit.
func PrepareImage(imageData []byte, contentType string) ([]byte, string, error) {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if mimeType == "" {
		mimeType = "image/jpeg" // default
	}

	if mimeType == "application/pdf" {
		pngData, err := pdfToPNG(imageData)
		if err != nil {
			return nil, "", fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, "image/png", nil
	}

	if mimeType != "image/png" || isHEICData(imageData) {
		pngData, err := toPNG(imageData, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, "image/png", nil
	}

	return imageData, "image/png", nil
}
