package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Gemini implements the Analyzer interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGemini creates a new Gemini Analyzer instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	// Slightly lower for more factual document reading
	model.SetTemperature(0.4)

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// Analyze sends the document photo and user text to Gemini and returns the
// raw reply, fenced analysis block and all.
func (g *Gemini) Analyze(ctx context.Context, text string, image *Image) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var parts []genai.Part
	if image != nil {
		// After PrepareImage everything is PNG; genai.ImageData wants just
		// the format suffix, not the full MIME type.
		data, _, err := PrepareImage(image.Data, image.MIMEType)
		if err != nil {
			return "", err
		}
		parts = append(parts, genai.ImageData("png", data))
	}

	if text == "" && image != nil {
		text = DefaultLookPrompt
	}
	parts = append(parts, genai.Text(text))

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", fmt.Errorf("generating content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from gemini")
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			reply.WriteString(string(t))
		}
	}

	return strings.TrimSpace(reply.String()), nil
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
