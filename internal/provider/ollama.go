package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

// OllamaConfig configures a local Ollama server.
type OllamaConfig struct {
	Name    string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type ollamaProvider struct {
	name   string
	client *api.Client
	model  string
	logger *zap.Logger
}

var _ TextProvider = (*ollamaProvider)(nil)

// NewOllama creates a text provider backed by the native Ollama API.
func NewOllama(cfg OllamaConfig, logger *zap.Logger) (TextProvider, error) {
	name := cfg.Name
	if name == "" {
		name = "ollama"
	}
	// api.NewClient expects the server root, not the OpenAI-compatible /v1 path.
	base := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsed, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Ollama base URL %q: %w", base, err)
	}

	logger = logger.Named("OllamaProvider").With(zap.String("provider", name))
	logger.Info("Ollama provider created",
		zap.String("base_url", base),
		zap.String("model", cfg.Model),
		zap.Duration("timeout", cfg.Timeout),
	)
	return &ollamaProvider{
		name:   name,
		client: api.NewClient(parsed, &http.Client{Timeout: cfg.Timeout}),
		model:  cfg.Model,
		logger: logger,
	}, nil
}

func (p *ollamaProvider) Name() string { return p.name }

func (p *ollamaProvider) GenerateText(ctx context.Context, req TextRequest) (*TextResult, error) {
	model := req.Model
	if model == "" {
		model = p.model
	}
	log := p.logger.With(zap.String("model", model), zap.String("account_id", req.AccountID))

	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", models.ErrBadRequest)
	}

	messages := make([]api.Message, 0, 2)
	if req.System != nil && strings.TrimSpace(*req.System) != "" {
		messages = append(messages, api.Message{Role: "system", Content: *req.System})
	}
	messages = append(messages, api.Message{Role: "user", Content: req.Prompt})

	options := map[string]interface{}{}
	if req.Temperature != nil {
		options["temperature"] = *req.Temperature
	}
	if req.MaxTokens != nil {
		options["num_predict"] = *req.MaxTokens
	}
	stream := false
	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}

	start := time.Now()
	var resp api.ChatResponse
	err := p.client.Chat(ctx, chatReq, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	elapsed := time.Since(start)
	if err != nil {
		classified := classifyOllamaError(err)
		log.Warn("Ollama chat failed", zap.Duration("duration", elapsed), zap.Error(classified))
		observeFailure(p.name, model, classified)
		return nil, classified
	}
	if resp.Message.Content == "" {
		err := fmt.Errorf("%w: empty response", models.ErrProviderUnavailable)
		observeFailure(p.name, model, err)
		return nil, err
	}

	modelUsed := resp.Model
	if modelUsed == "" {
		modelUsed = model
	}
	result := &TextResult{
		Text:             resp.Message.Content,
		PromptTokens:     resp.PromptEvalCount,
		CompletionTokens: resp.EvalCount,
		TokensUsed:       resp.PromptEvalCount + resp.EvalCount,
		ModelUsed:        modelUsed,
		LatencyMs:        elapsed.Milliseconds(),
	}
	if result.TokensUsed == 0 {
		result.PromptTokens = estimateTokens(model, systemText(req.System)+req.Prompt)
		result.CompletionTokens = estimateTokens(model, result.Text)
		result.TokensUsed = result.PromptTokens + result.CompletionTokens
	}

	observeText(p.name, result, elapsed.Seconds())
	log.Info("Ollama response received",
		zap.Duration("duration", elapsed),
		zap.Int("tokens_used", result.TokensUsed),
		zap.String("done_reason", resp.DoneReason),
	)
	return result, nil
}

func classifyOllamaError(err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return classifyStatus(statusErr.StatusCode, statusErr.ErrorMessage)
	}
	var statusErrPtr *api.StatusError
	if errors.As(err, &statusErrPtr) {
		return classifyStatus(statusErrPtr.StatusCode, statusErrPtr.ErrorMessage)
	}
	return classifyTransport(err)
}
