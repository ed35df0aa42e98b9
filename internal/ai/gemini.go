package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	DefaultModel          = "gemini-2.0-flash"
	DefaultEmbeddingModel = "text-embedding-004"

	// Gemini caps a batch embed request at 100 contents.
	maxEmbedBatch = 100
)

// GeminiProvider implements LLMProvider and Embedder using Google's Gemini models.
type GeminiProvider struct {
	client   *genai.Client
	intent   *genai.GenerativeModel
	text     *genai.GenerativeModel
	embedder *genai.EmbeddingModel
}

// NewGeminiProvider initializes a new Gemini client. An empty model uses DefaultModel.
func NewGeminiProvider(ctx context.Context, apiKey, model string) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	// Force JSON for the router so the reply parses as an IntentResult.
	intent := client.GenerativeModel(model)
	intent.ResponseMIMEType = "application/json"
	intent.SetTemperature(0.2)

	// Answers stay close to the retrieved context.
	text := client.GenerativeModel(model)
	text.SetTemperature(0.3)

	return &GeminiProvider{
		client:   client,
		intent:   intent,
		text:     text,
		embedder: client.EmbeddingModel(DefaultEmbeddingModel),
	}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) ParseUserIntent(ctx context.Context, userMessage string, history []string) (*IntentResult, error) {
	prompt := fmt.Sprintf("%s\n\nConversation so far:\n%s\n\nUser Message: %s",
		intentSystemPrompt, formatHistory(history), userMessage)

	raw, err := generateText(ctx, p.intent, prompt)
	if err != nil {
		return nil, err
	}
	return parseIntentJSON(raw)
}

func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	return generateText(ctx, p.text, prompt)
}

func (p *GeminiProvider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += maxEmbedBatch {
		end := min(start+maxEmbedBatch, len(texts))
		batch := p.embedder.NewBatch()
		for _, t := range texts[start:end] {
			batch.AddContent(genai.Text(t))
		}
		resp, err := p.embedder.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embedding error: %w", err)
		}
		if len(resp.Embeddings) != end-start {
			return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), end-start)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}
	return out, nil
}

func generateText(ctx context.Context, model *genai.GenerativeModel, prompt string) (string, error) {
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("no response candidates from Gemini")
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("gemini returned empty text parts")
	}
	return b.String(), nil
}

// parseIntentJSON decodes and sanity-checks the router output.
func parseIntentJSON(raw string) (*IntentResult, error) {
	cleaned := cleanJSONString(raw)
	var result IntentResult
	if err := json.Unmarshal([]byte(cleaned), &result); err != nil {
		return nil, fmt.Errorf("failed to parse JSON response: %w. Raw: %s", err, cleaned)
	}
	switch result.ToolCall {
	case ToolBookRide, ToolCancelRide, ToolListBookings, ToolAnswerQuery, ToolLogout, ToolClarify:
	default:
		return nil, fmt.Errorf("unknown tool_call %q", result.ToolCall)
	}
	return &result, nil
}

func formatHistory(history []string) string {
	if len(history) == 0 {
		return "(none)"
	}
	return strings.Join(history, "\n")
}

const intentSystemPrompt = `You are a helpful ride-hailing assistant. Respond with one of the following tools based on the user's intent:

1. "book_ride": the user wants to book a ride. Include both "pickup" and "drop". If the user asks for a later pickup, put it in "schedule" as DD/MM/YYYY HH:MM.
2. "cancel_ride": the user wants to cancel a ride. Include "booking_id".
3. "list_bookings": the user asks about their current bookings.
4. "answer_query": a general question about rides, fees, safety, lost items or the service.
5. "logout": the user wants to exit, log out or end the conversation.
6. "clarify": a tool above fits but a required field is missing. Put the follow-up question in "reply".

Never invent a pickup, drop or booking id the user did not give in this message or earlier in the conversation.

Respond ONLY with JSON:
{
  "tool_call": "book_ride" | "cancel_ride" | "list_bookings" | "answer_query" | "logout" | "clarify",
  "pickup": "string or null",
  "drop": "string or null",
  "schedule": "DD/MM/YYYY HH:MM or null",
  "booking_id": "string or null",
  "reply": "string (only for clarify)"
}`

// cleanJSONString removes markdown code blocks if present (e.g. ```json ... ```)
func cleanJSONString(input string) string {
	input = strings.TrimSpace(input)
	input = strings.TrimPrefix(input, "```json")
	input = strings.TrimPrefix(input, "```")
	input = strings.TrimSuffix(input, "```")
	return strings.TrimSpace(input)
}
