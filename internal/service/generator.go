package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/render"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// TextSelector picks the text provider and model for a generation.
type TextSelector interface {
	SelectText(category models.PromptCategory, model string) (provider.TextProvider, string)
}

// GeneratorConfig tunes provider calls made by the generator.
type GeneratorConfig struct {
	MaxAttempts    int
	BaseRetryDelay time.Duration
	TextTimeout    time.Duration
}

// RetryFunc is told about each retried provider attempt.
type RetryFunc func(attempt int, delay time.Duration, err error)

// GenerateRequest describes one content generation.
type GenerateRequest struct {
	Category models.PromptCategory
	// TemplateID pins a template; empty resolves the account's template for Category.
	TemplateID string
	Story      *models.Story
	Config     models.GenerationConfig
	// Extra is layered over the story variables, e.g. prior workflow step outputs.
	Extra   map[string]string
	JobID   string
	OnRetry RetryFunc
	// Cancelled is polled before every retry; true stops the step with ErrJobCancelled.
	Cancelled func() bool
}

// GenerateResult is the persisted outcome of a generation.
type GenerateResult struct {
	Item    *models.ContentItem
	Text    string
	Version *models.TemplateVersion
	LogID   string
	// ParseError is set when the response did not match the category schema.
	ParseError error
}

// PreviewInput renders a version and optionally calls the provider.
type PreviewInput struct {
	Variables    map[string]string `json:"variables"`
	StoryID      *int64            `json:"story_id,omitempty"`
	CallProvider bool              `json:"call_provider"`
	Model        string            `json:"model,omitempty"`
	Temperature  *float64          `json:"temperature,omitempty"`
	MaxTokens    *int              `json:"max_tokens,omitempty"`
}

// PreviewResult is the outcome of a template version test.
type PreviewResult struct {
	VersionID      string         `json:"version_id"`
	RenderedPrompt string         `json:"rendered_prompt"`
	RenderedSystem *string        `json:"rendered_system,omitempty"`
	Output         string         `json:"output,omitempty"`
	Parsed         map[string]any `json:"parsed,omitempty"`
	ParseError     string         `json:"parse_error,omitempty"`
	TokensUsed     int            `json:"tokens_used,omitempty"`
	ModelUsed      string         `json:"model_used,omitempty"`
	LatencyMs      int64          `json:"latency_ms,omitempty"`
	LogID          string         `json:"log_id,omitempty"`
	// Variables lists the placeholders the version references.
	Variables []string `json:"variables"`
}

// ContentGenerator produces content items from templates.
type ContentGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error)
	Preview(ctx context.Context, templateID, versionID string, in PreviewInput) (*PreviewResult, error)
	GetDefaults(ctx context.Context) (*models.GenerationDefaults, error)
	UpdateDefaults(ctx context.Context, in models.GenerationDefaults) (*models.GenerationDefaults, error)
}

type generatorImpl struct {
	db        interfaces.DBTX
	txm       interfaces.TxManager
	templates interfaces.TemplateRepository
	genLogs   interfaces.GenerationLogRepository
	contents  interfaces.ContentRepository
	stories   interfaces.StoryRepository
	defaults  interfaces.GenerationDefaultsRepository
	selector  TextSelector
	cfg       GeneratorConfig
	logger    *zap.Logger
}

// NewContentGenerator creates the content generator.
func NewContentGenerator(
	db interfaces.DBTX,
	txm interfaces.TxManager,
	templates interfaces.TemplateRepository,
	genLogs interfaces.GenerationLogRepository,
	contents interfaces.ContentRepository,
	stories interfaces.StoryRepository,
	defaults interfaces.GenerationDefaultsRepository,
	selector TextSelector,
	cfg GeneratorConfig,
	logger *zap.Logger,
) ContentGenerator {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &generatorImpl{
		db:        db,
		txm:       txm,
		templates: templates,
		genLogs:   genLogs,
		contents:  contents,
		stories:   stories,
		defaults:  defaults,
		selector:  selector,
		cfg:       cfg,
		logger:    logger.Named("ContentGenerator"),
	}
}

type callTarget struct {
	accountID string
	template  *models.Template
	version   *models.TemplateVersion
	jobID     string
}

func (g *generatorImpl) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	log := g.logger.With(zap.String("account_id", accountID), zap.String("job_id", req.JobID))

	tmpl, version, err := g.resolveTemplate(ctx, accountID, req.Category, req.TemplateID)
	if err != nil {
		return nil, err
	}
	category := tmpl.Category
	defaults, err := g.loadDefaults(ctx, accountID)
	if err != nil {
		return nil, err
	}

	bag := storyBag(req.Story, category).
		Merge(defaults.Variables).
		Merge(req.Config.Variables).
		Merge(req.Extra)
	rendered, err := render.Render(version.PromptContent, version.SystemMessage, bag)
	if err != nil {
		return nil, err
	}

	cfg := defaults.Apply(req.Config)
	target := callTarget{accountID: accountID, template: tmpl, version: version, jobID: req.JobID}
	textReq := provider.TextRequest{
		System:      rendered.System,
		Prompt:      rendered.Prompt,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		AccountID:   accountID,
	}
	res, logID, err := g.callWithRetry(ctx, target, textReq, req.OnRetry, req.Cancelled)
	if err != nil {
		return nil, err
	}

	data, parseErr := parseContent(category, res.Text)
	if parseErr != nil {
		data["parse_error"] = parseErr.Error()
		log.Warn("Provider response did not match category schema, keeping draft for review",
			zap.String("category", string(category)), zap.Error(parseErr))
	}
	data["template_id"] = tmpl.ID
	data["version_id"] = version.ID
	data["model_used"] = res.ModelUsed
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to encode content data: %w", err)
	}

	item := &models.ContentItem{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		PromptCategory: category,
		ContentData:    encoded,
		Status:         models.ContentStatusDraft,
		HasParseError:  parseErr != nil,
	}
	if req.Story != nil {
		storyID := req.Story.ID
		item.StoryID = &storyID
	}

	err = g.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := g.contents.Create(ctx, tx, item); err != nil {
			return err
		}
		if err := g.genLogs.AttachContent(ctx, tx, accountID, logID, item.ID); err != nil {
			return err
		}
		return g.templates.IncrementUsage(ctx, tx, version.ID)
	})
	if err != nil {
		log.Error("Failed to persist generated content", zap.String("log_id", logID), zap.Error(err))
		return nil, err
	}

	log.Info("Content generated",
		zap.String("content_id", item.ID),
		zap.String("category", string(category)),
		zap.String("version_id", version.ID),
		zap.Bool("parse_error", parseErr != nil),
	)
	return &GenerateResult{Item: item, Text: res.Text, Version: version, LogID: logID, ParseError: parseErr}, nil
}

func (g *generatorImpl) Preview(ctx context.Context, templateID, versionID string, in PreviewInput) (*PreviewResult, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}
	tmpl, err := g.templates.GetTemplate(ctx, g.db, id.AccountID, templateID)
	if err != nil {
		return nil, err
	}
	version, err := g.templates.GetVersion(ctx, g.db, tmpl.ID, versionID)
	if err != nil {
		return nil, err
	}

	var story *models.Story
	if in.StoryID != nil {
		story, err = g.stories.Get(ctx, g.db, id.AccountID, *in.StoryID)
		if err != nil {
			return nil, err
		}
	}
	defaults, err := g.loadDefaults(ctx, id.AccountID)
	if err != nil {
		return nil, err
	}
	bag := storyBag(story, tmpl.Category).Merge(defaults.Variables).Merge(in.Variables)
	rendered, err := render.Render(version.PromptContent, version.SystemMessage, bag)
	if err != nil {
		return nil, err
	}

	out := &PreviewResult{
		VersionID:      version.ID,
		RenderedPrompt: rendered.Prompt,
		RenderedSystem: rendered.System,
		Variables:      versionPlaceholders(version),
	}
	if !in.CallProvider {
		return out, nil
	}

	cfg := defaults.Apply(models.GenerationConfig{Model: in.Model, Temperature: in.Temperature, MaxTokens: in.MaxTokens})
	target := callTarget{accountID: id.AccountID, template: tmpl, version: version}
	res, logID, err := g.call(ctx, target, provider.TextRequest{
		System:      rendered.System,
		Prompt:      rendered.Prompt,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		AccountID:   id.AccountID,
	})
	if err != nil {
		return nil, err
	}
	out.Output = res.Text
	out.TokensUsed = res.TokensUsed
	out.ModelUsed = res.ModelUsed
	out.LatencyMs = res.LatencyMs
	out.LogID = logID
	parsed, parseErr := parseContent(tmpl.Category, res.Text)
	out.Parsed = parsed
	if parseErr != nil {
		out.ParseError = parseErr.Error()
	}
	return out, nil
}

// GetDefaults returns the account's generation defaults, empty when never saved.
func (g *generatorImpl) GetDefaults(ctx context.Context) (*models.GenerationDefaults, error) {
	id, err := account.RequirePermission(ctx, account.PermJobsRead)
	if err != nil {
		return nil, err
	}
	return g.loadDefaults(ctx, id.AccountID)
}

func (g *generatorImpl) UpdateDefaults(ctx context.Context, in models.GenerationDefaults) (*models.GenerationDefaults, error) {
	id, err := account.RequirePermission(ctx, account.PermSettingsWrite)
	if err != nil {
		return nil, err
	}
	if in.Temperature != nil && (*in.Temperature < 0 || *in.Temperature > 2) {
		return nil, fmt.Errorf("%w: temperature must be between 0 and 2", models.ErrInvalidInput)
	}
	if in.MaxTokens != nil && *in.MaxTokens <= 0 {
		return nil, fmt.Errorf("%w: max_tokens must be positive", models.ErrInvalidInput)
	}
	for name := range in.Variables {
		if strings.TrimSpace(name) == "" || strings.ContainsAny(name, "{} ") {
			return nil, fmt.Errorf("%w: invalid variable name %q", models.ErrInvalidInput, name)
		}
	}
	in.AccountID = id.AccountID
	if in.Variables == nil {
		in.Variables = map[string]string{}
	}
	if err := g.defaults.Upsert(ctx, g.db, &in); err != nil {
		return nil, err
	}
	g.logger.Info("Generation defaults updated",
		zap.String("account_id", id.AccountID),
		zap.String("model", in.Model),
		zap.Int("variables", len(in.Variables)),
	)
	return &in, nil
}

// loadDefaults reads the defaults row; a missing row yields empty defaults.
func (g *generatorImpl) loadDefaults(ctx context.Context, accountID string) (*models.GenerationDefaults, error) {
	d, err := g.defaults.Get(ctx, g.db, accountID)
	if errors.Is(err, models.ErrNotFound) {
		return &models.GenerationDefaults{AccountID: accountID, Variables: map[string]string{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

// versionPlaceholders lists the names used by the prompt and the system message.
func versionPlaceholders(v *models.TemplateVersion) []string {
	names := append([]string{}, render.Placeholders(v.PromptContent)...)
	if v.SystemMessage == nil {
		return names
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		seen[n] = true
	}
	for _, n := range render.Placeholders(*v.SystemMessage) {
		if !seen[n] {
			seen[n] = true
			names = append(names, n)
		}
	}
	return names
}

func (g *generatorImpl) resolveTemplate(ctx context.Context, accountID string, category models.PromptCategory, templateID string) (*models.Template, *models.TemplateVersion, error) {
	var (
		tmpl *models.Template
		err  error
	)
	if templateID != "" {
		tmpl, err = g.templates.GetTemplate(ctx, g.db, accountID, templateID)
	} else {
		tmpl, err = g.templates.GetTemplateByCategory(ctx, g.db, accountID, category)
	}
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: %s", models.ErrNoTemplate, category)
	}
	if err != nil {
		return nil, nil, err
	}
	if tmpl.Category.IsMedia() {
		return nil, nil, fmt.Errorf("%w: template %s produces media", models.ErrInvalidInput, tmpl.ID)
	}
	version, err := g.templates.GetCurrentVersion(ctx, g.db, tmpl.ID)
	if errors.Is(err, models.ErrNotFound) {
		return nil, nil, fmt.Errorf("%w: template %s has no current version", models.ErrNoTemplate, tmpl.ID)
	}
	if err != nil {
		return nil, nil, err
	}
	return tmpl, version, nil
}

// callWithRetry retries transient provider failures inside the step. A
// cancel seen between attempts ends the step without another provider call.
func (g *generatorImpl) callWithRetry(ctx context.Context, target callTarget, req provider.TextRequest, onRetry RetryFunc, cancelled func() bool) (*provider.TextResult, string, error) {
	delay := g.cfg.BaseRetryDelay
	for attempt := 1; ; attempt++ {
		if cancelled != nil && cancelled() {
			return nil, "", models.ErrJobCancelled
		}
		res, logID, err := g.call(ctx, target, req)
		if err == nil {
			return res, logID, nil
		}
		if !models.IsRetryable(err) || attempt >= g.cfg.MaxAttempts || ctx.Err() != nil {
			return nil, logID, err
		}
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return nil, logID, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
}

// call performs one provider request under the text step timeout and always
// records a generation log row.
func (g *generatorImpl) call(ctx context.Context, target callTarget, req provider.TextRequest) (*provider.TextResult, string, error) {
	p, model := g.selector.SelectText(target.template.Category, req.Model)
	req.Model = model

	callCtx := ctx
	if g.cfg.TextTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.cfg.TextTimeout)
		defer cancel()
	}
	start := time.Now()
	res, err := p.GenerateText(callCtx, req)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, models.ErrTimeout) {
		err = fmt.Errorf("%w: %v", models.ErrTimeout, err)
	}

	entry := &models.GenerationLog{
		ID:         uuid.NewString(),
		AccountID:  target.accountID,
		TemplateID: &target.template.ID,
		VersionID:  &target.version.ID,
		AIService:  p.Name(),
		ModelUsed:  model,
	}
	if target.jobID != "" {
		jobID := target.jobID
		entry.JobID = &jobID
	}
	if err != nil {
		entry.GenerationTimeMs = time.Since(start).Milliseconds()
		entry.Fail(err)
	} else {
		entry.Succeed()
		entry.ModelUsed = res.ModelUsed
		entry.TokensUsed = res.TokensUsed
		entry.GenerationTimeMs = res.LatencyMs
		entry.CostEstimateUSD = res.CostEstimateUSD
	}
	// The log row uses the parent context so a timed-out call is still recorded.
	if logErr := g.genLogs.Insert(ctx, g.db, entry); logErr != nil {
		g.logger.Error("Failed to write generation log", zap.String("account_id", target.accountID), zap.Error(logErr))
		if err == nil {
			return nil, "", logErr
		}
	}
	return res, entry.ID, err
}

// storyBag exposes the story fields templates may reference.
func storyBag(story *models.Story, category models.PromptCategory) render.Bag {
	bag := render.Bag{
		"category": string(category),
		"date":     time.Now().UTC().Format("2006-01-02"),
	}
	if story == nil {
		return bag
	}
	bag["title"] = story.Title
	bag["full_text"] = story.FullText
	bag["content"] = story.FullText
	bag["url"] = story.URL
	bag["source_name"] = story.SourceName
	bag["relevance_score"] = strconv.FormatFloat(story.RelevanceScore, 'f', -1, 64)
	bag["keywords"] = strings.Join(story.Keywords, ", ")
	bag["publication_date"] = ""
	if story.PublicationDate != nil {
		bag["publication_date"] = story.PublicationDate.UTC().Format("2006-01-02")
	}
	return bag
}
