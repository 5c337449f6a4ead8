package inference

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"

	"docstructgo/internal/config"
	"docstructgo/internal/models"
	"docstructgo/internal/structured"
)

// Processing modes and their sampling temperatures.
const (
	ModeFast     = "fast"
	ModeAccurate = "accurate"
)

// StructureAutoDetect is the only implemented output-structure hint.
const StructureAutoDetect = "auto-detect"

var (
	// ErrMissingCredential means no API key is configured for the selected
	// provider. Checked eagerly at construction, never per call.
	ErrMissingCredential = errors.New("inference API key is missing")
	// ErrInferenceParse means the model response was not a single JSON object.
	ErrInferenceParse = errors.New("inference response is not a JSON object")
	// ErrUpstream wraps network or service-level failures from the provider.
	ErrUpstream = errors.New("inference request failed")
)

// generator is the slice of the eino chat model the client needs.
type generator interface {
	Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error)
}

// Client turns extracted document text into the standardized structured
// output by calling a chat model.
type Client struct {
	model generator
	cfg   config.InferenceConfig
}

// NewClient builds the chat model for the configured provider.
func NewClient(ctx context.Context, cfg config.InferenceConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingCredential
	}

	var (
		chatModel model.ToolCallingChatModel
		err       error
	)
	switch cfg.Provider {
	case "openai":
		chatModel, err = openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
		})
	case "gemini":
		var client *genai.Client
		client, err = genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
		if err != nil {
			return nil, fmt.Errorf("create gemini client: %w", err)
		}
		chatModel, err = gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  cfg.Model,
		})
	case "claude":
		var baseURLPtr *string
		if cfg.BaseURL != "" {
			baseURLPtr = &cfg.BaseURL
		}
		chatModel, err = claude.NewChatModel(ctx, &claude.Config{
			APIKey:    cfg.APIKey,
			Model:     cfg.Model,
			BaseURL:   baseURLPtr,
			MaxTokens: cfg.MaxTokens,
		})
	default:
		return nil, fmt.Errorf("invalid provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("init %s chat model: %w", cfg.Provider, err)
	}

	return &Client{model: chatModel, cfg: cfg}, nil
}

// Convert sends the extracted text to the model and returns the validated
// (or sanitized) structured output with fresh metadata.
func (c *Client) Convert(ctx context.Context, text, outputStructure, processingMode string) (*models.StructuredOutput, error) {
	if outputStructure != StructureAutoDetect {
		return nil, fmt.Errorf("output structure %q is not implemented, only %q is supported", outputStructure, StructureAutoDetect)
	}

	start := time.Now()
	messages := []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: userPrompt(text)},
	}

	resp, err := c.model.Generate(ctx, messages,
		model.WithTemperature(c.temperatureFor(processingMode)),
		model.WithMaxTokens(c.cfg.MaxTokens),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	raw, err := parseJSONObject(resp.Content)
	if err != nil {
		return nil, err
	}

	confidence := 0.9
	out, validationErrs := structured.Validate(raw)
	if validationErrs != nil {
		log.Warn().Strs("errors", validationErrs).Msg("structured output validation failed, sanitizing")
		out = structured.Sanitize(raw)
		confidence = 0.7
	}

	out.Metadata = &models.OutputMetadata{
		ExtractedAt:    time.Now().UTC().Format(time.RFC3339),
		Confidence:     confidence,
		ProcessingTime: time.Since(start).Seconds(),
	}
	return out, nil
}

func (c *Client) temperatureFor(mode string) float32 {
	if mode == ModeAccurate {
		return c.cfg.TemperatureAccurate
	}
	return c.cfg.TemperatureFast
}

// parseJSONObject decodes a model response into a generic JSON object,
// tolerating a markdown code fence around the payload.
func parseJSONObject(content string) (map[string]any, error) {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
		trimmed = strings.TrimSpace(trimmed)
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInferenceParse, err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInferenceParse, v)
	}
	return obj, nil
}
