package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

// OpenAIConfig configures an OpenAI-compatible chat completion endpoint.
// Gemini and OpenRouter expose the same API under a different base URL.
type OpenAIConfig struct {
	Name    string
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	Pricing Pricing
}

type openAIProvider struct {
	name    string
	client  *openaigo.Client
	model   string
	pricing Pricing
	logger  *zap.Logger
}

var _ TextProvider = (*openAIProvider)(nil)

// NewOpenAI creates a text provider backed by go-openai.
func NewOpenAI(cfg OpenAIConfig, logger *zap.Logger) TextProvider {
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	clientCfg := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	logger = logger.Named("OpenAIProvider").With(zap.String("provider", name))
	logger.Info("OpenAI-compatible provider created",
		zap.String("base_url", clientCfg.BaseURL),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &openAIProvider{
		name:    name,
		client:  openaigo.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		pricing: cfg.Pricing,
		logger:  logger,
	}
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	log := p.logger.With(zap.String("model", model), zap.String("account_id", req.AccountID))

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", models.ErrBadRequest)
	}

	messages := make([]openaigo.ChatCompletionMessage, 0, 2)
	if req.System != nil && strings.TrimSpace(*req.System) != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: *req.System,
		})
	}
	messages = append(messages, openaigo.ChatCompletionMessage{
		Role:    openaigo.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openaigo.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
	}
	if req.Temperature != nil {
		chatReq.Temperature = float32(*req.Temperature)
	}
	if req.MaxTokens != nil {
		chatReq.MaxTokens = *req.MaxTokens
	}

	log.Debug("Sending chat completion request", zap.Int("prompt_bytes", len(req.Prompt)))
	start := time.Now()
	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	elapsed := time.Since(start)
	if err != nil {
		classified := classifyOpenAIError(err)
		log.Warn("Chat completion failed", zap.Duration("duration", elapsed), zap.Error(classified))
		observeFailure(p.name, model, classified)
		return nil, classified
	}

	if len(resp.Choices) == 0 {
		err := fmt.Errorf("%w: empty choices", models.ErrProviderUnavailable)
		observeFailure(p.name, model, err)
		return nil, err
	}
	choice := resp.Choices[0]
	if choice.FinishReason == openaigo.FinishReasonContentFilter {
		err := fmt.Errorf("%w: response blocked by content filter", models.ErrUnsafeContent)
		observeFailure(p.name, model, err)
		return nil, err
	}
	if choice.Message.Content == "" {
		err := fmt.Errorf("%w: empty response", models.ErrProviderUnavailable)
		observeFailure(p.name, model, err)
		return nil, err
	}

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = model
	}
	result := &TextResult{
		Text:             choice.Message.Content,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TokensUsed:       resp.Usage.TotalTokens,
		ModelUsed:        modelUsed,
		LatencyMs:        elapsed.Milliseconds(),
	}
	if result.TokensUsed == 0 {
		result.PromptTokens = estimateTokens(model, systemText(req.System)+req.Prompt)
		result.CompletionTokens = estimateTokens(model, result.Text)
		result.TokensUsed = result.PromptTokens + result.CompletionTokens
		log.Debug("Usage missing from response, using estimate", zap.Int("tokens", result.TokensUsed))
	}
	result.CostEstimateUSD = p.pricing.Cost(model, result.PromptTokens, result.CompletionTokens)

	observeText(p.name, result, elapsed.Seconds())
	log.Info("Chat completion received",
		zap.Duration("duration", elapsed),
		zap.Int("tokens_used", result.TokensUsed),
		zap.Float64("cost_usd", result.CostEstimateUSD),
	)
	return result, nil
}

func classifyOpenAIError(err error) error {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		if fmt.Sprint(apiErr.Code) == "insufficient_quota" || apiErr.Type == "insufficient_quota" {
			return fmt.Errorf("%w: %s", models.ErrQuotaExceeded, apiErr.Message)
		}
		if apiErr.HTTPStatusCode == http.StatusBadRequest && fmt.Sprint(apiErr.Code) == "content_filter" {
			return fmt.Errorf("%w: %s", models.ErrUnsafeContent, apiErr.Message)
		}
		return classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return classifyStatus(reqErr.HTTPStatusCode, reqErr.Error())
	}
	return classifyTransport(err)
}

func systemText(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
