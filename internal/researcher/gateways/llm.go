package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	errx "github.com/deepresearch-core-poc/server/internal/core/error"
	"github.com/deepresearch-core-poc/server/internal/researcher/model"
	"github.com/deepresearch-core-poc/server/internal/researcher/parsers"
	logx "github.com/deepresearch-core-poc/server/pkg/logger"
)

// LLMConfig holds the provider settings shared by every chat model the
// gateway constructs.
type LLMConfig struct {
	APIKey      string  `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL     string  `envconfig:"GEMINI_BASE_URL"`
	Temperature float32 `envconfig:"LLM_TEMPERATURE" default:"0.1"`
	MaxTokens   int     `envconfig:"LLM_MAX_TOKENS" default:"8000"`
}

// LLMGateway implements model.CompletionGateway over Eino Gemini chat models.
// Chat models are constructed lazily per model id and cached; the workflow
// addresses models by id (report model vs summarization model) without caring
// how they are built.
type LLMGateway struct {
	client *genai.Client
	cfg    LLMConfig

	mu     sync.Mutex
	models map[string]einomodel.BaseChatModel
}

// NewLLMGateway creates the shared Gemini client and an empty model cache.
func NewLLMGateway(ctx context.Context, cfg LLMConfig) (*LLMGateway, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	return &LLMGateway{
		client: client,
		cfg:    cfg,
		models: make(map[string]einomodel.BaseChatModel),
	}, nil
}

// Client exposes the underlying Gemini client so other gateways (query
// embedding) can share the same connection and credentials.
func (g *LLMGateway) Client() *genai.Client {
	return g.client
}

func (g *LLMGateway) chatModel(ctx context.Context, modelID string) (einomodel.BaseChatModel, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if cm, ok := g.models[modelID]; ok {
		return cm, nil
	}

	temperature := g.cfg.Temperature
	maxTokens := g.cfg.MaxTokens
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      g.client,
		Model:       modelID,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelID).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model %s: %w", modelID, err)
	}

	g.models[modelID] = cm
	return cm, nil
}

// Invoke runs one system+user exchange against the given model and returns
// the raw completion text. Blank content is an EmptyResponseError; any
// transport or model failure is an InvocationError carrying the cause.
func (g *LLMGateway) Invoke(ctx context.Context, modelID, systemPrompt, userPrompt string) (string, error) {
	cm, err := g.chatModel(ctx, modelID)
	if err != nil {
		return "", errx.NewInvocation(modelID, err)
	}

	out, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelID).Msg("Model invocation failed")
		return "", errx.NewInvocation(modelID, err)
	}
	if out == nil || strings.TrimSpace(out.Content) == "" {
		logx.Error().Str("model", modelID).Msg("Model returned empty response")
		return "", errx.NewEmptyResponse(modelID)
	}

	return out.Content, nil
}

// InvokeStructured runs Invoke and decodes the completion into out. Reasoning
// spans are stripped first and the first JSON object span is used, so models
// that wrap their JSON in prose still decode. When out implements
// model.Validatable the decoded value is validated before return.
func (g *LLMGateway) InvokeStructured(ctx context.Context, modelID, systemPrompt, userPrompt string, out any) error {
	text, err := g.Invoke(ctx, modelID, systemPrompt, userPrompt)
	if err != nil {
		return err
	}

	payload := parsers.StripReasoning(text)
	if span, ok := parsers.FirstJSONObject(payload); ok {
		payload = span
	}
	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return fmt.Errorf("decode structured output from model %s: %w", modelID, err)
	}
	if v, ok := out.(model.Validatable); ok {
		if err := v.Validate(); err != nil {
			return fmt.Errorf("validate structured output from model %s: %w", modelID, err)
		}
	}
	return nil
}

var _ model.CompletionGateway = (*LLMGateway)(nil)
