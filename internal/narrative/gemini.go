package narrative

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// DefaultModelName is the Gemini model used when none is configured.
const DefaultModelName = "gemini-2.5-flash"

const systemInstruction = "You are a careful household finance analyst. " +
	"You only use the numbers you are given and you answer with a single JSON object."

// TextModel sends a prompt to a language model and returns its raw text answer.
// This interface enables mocking of the model in tests.
type TextModel interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// GeminiConfig configures the Gemini client.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
}

// GeminiModel is the TextModel backed by the Gemini API.
type GeminiModel struct {
	client      *genai.Client
	model       string
	temperature float32
	logger      zerolog.Logger
}

// NewGeminiModel creates the client once; it is safe for concurrent use.
func NewGeminiModel(ctx context.Context, cfg GeminiConfig, logger zerolog.Logger) (*GeminiModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("NewGeminiModel: api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiModel: create genai client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}
	return &GeminiModel{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		logger:      logger,
	}, nil
}

// GenerateText implements TextModel.
func (m *GeminiModel) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := m.client.Models.GenerateContent(ctx, m.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		Temperature:       genai.Ptr(m.temperature),
		ResponseMIMEType:  "application/json",
	})
	if err != nil {
		return "", fmt.Errorf("GenerateText: generate content: %w", err)
	}

	if resp.UsageMetadata != nil {
		m.logger.Debug().
			Str("model", m.model).
			Int32("tokens_input", resp.UsageMetadata.PromptTokenCount).
			Int32("tokens_output", resp.UsageMetadata.CandidatesTokenCount).
			Msg("Gemini call finished")
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("GenerateText: empty response from model")
	}
	return text, nil
}
