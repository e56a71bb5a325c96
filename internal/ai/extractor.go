// Package ai turns raw OCR text into structured products and promotions via
// an OpenAI-compatible chat-completions endpoint in JSON mode.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jonathan/menu-crawler/internal/types"
)

// DefaultModel is used when no model is configured.
const DefaultModel = openai.GPT4oMini

// maxInputChars bounds request size; OCR text beyond this is truncated.
const maxInputChars = 180_000

// requestTimeout bounds one chat-completion round trip so a hung endpoint
// cannot stall a page visit past its own deadline.
const requestTimeout = 90 * time.Second

// ErrNoAPIKey is returned when AI extraction is requested without a credential.
var ErrNoAPIKey = errors.New("OPENAI_API_KEY missing for AI extraction")

const systemPrompt = `You are a precise information extractor.
Given raw OCR text from a cannabis dispensary menu page, return JSON with two arrays:
- products: [{product_name, brand, category, size, price, price_sale, thc_percent, cbd_percent, stock_status}]
- promotions: [{title, details, discount_pct, start_date, end_date, type, raw}]
Rules:
- Parse prices as numbers (no $).
- If a promo states a percent or BOGO, infer discount_pct when explicit.
- category: one of ["flower","pre-roll","vape","edible","concentrate","topical","tincture","accessory","other"].
- stock_status: in_stock | low_stock | out_of_stock | null.
- If multiple variants/sizes exist, output multiple product entries with distinct "size"/"price".
Return ONLY JSON.`

// Client is the minimal chat-completion surface the extractor needs, so any
// OpenAI-compatible or local backend can be substituted.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Extractor calls the AI collaborator and validates its output shape.
type Extractor struct {
	client Client
	model  string
}

// NewExtractor builds an extractor against the configured endpoint. baseURL
// and model are optional; apiKey is not.
func NewExtractor(apiKey, baseURL, model string) (*Extractor, error) {
	if apiKey == "" {
		return nil, ErrNoAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{
		client: openai.NewClientWithConfig(clientConfig(apiKey, baseURL)),
		model:  model,
	}, nil
}

func clientConfig(apiKey, baseURL string) openai.ClientConfig {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = newHTTPClient()
	return cfg
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}

// NewExtractorWithClient builds an extractor over an existing client.
func NewExtractorWithClient(client Client, model string) *Extractor {
	if model == "" {
		model = DefaultModel
	}
	return &Extractor{client: client, model: model}
}

// Extract sends the raw text (truncated to the input ceiling) and returns the
// decoded payload plus the raw JSON-mode content for audit persistence. An
// absent content field defaults to an empty object.
func (e *Extractor) Extract(ctx context.Context, rawText string) (*types.AIExtraction, []byte, error) {
	if len(rawText) > maxInputChars {
		rawText = rawText[:maxInputChars]
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: rawText},
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("chat completion: %w", err)
	}

	content := "{}"
	if len(resp.Choices) > 0 && strings.TrimSpace(resp.Choices[0].Message.Content) != "" {
		content = resp.Choices[0].Message.Content
	}
	raw := []byte(content)

	if err := ValidateExtraction(raw); err != nil {
		return nil, raw, fmt.Errorf("extraction response: %w", err)
	}

	var parsed types.AIExtraction
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, raw, fmt.Errorf("decode extraction response: %w", err)
	}
	return &parsed, raw, nil
}
