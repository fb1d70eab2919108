package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"content-pipeline/internal/service"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

const defaultFullCycleLimit = 5

var defaultCategories = []models.PromptCategory{models.CategoryBlogPost}

// Handler executes one claimed job. Partial results written into results are
// kept when the job ends cancelled or failed.
type Handler interface {
	Handle(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error
}

// Dependencies are the collaborators job handlers call into. Ingestor may be nil.
type Dependencies struct {
	DB        interfaces.DBTX
	Stories   interfaces.StoryRepository
	Contents  interfaces.ContentRepository
	Workflows interfaces.WorkflowRepository
	Ingestor  interfaces.SourceIngestor
	Generator service.ContentGenerator
	Engine    *service.WorkflowEngine
	Images    service.ImageService
}

type jobHandlers struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewHandler dispatches jobs to the handler of their type.
func NewHandler(deps Dependencies, logger *zap.Logger) Handler {
	return &jobHandlers{deps: deps, logger: logger.Named("JobHandlers")}
}

func (h *jobHandlers) Handle(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	switch job.JobType {
	case models.JobTypeFullCycle:
		return h.fullCycle(ctx, job, rep, results)
	case models.JobTypeGenerateForStory:
		return h.generateForStory(ctx, job, rep, results)
	case models.JobTypeRegenerate:
		return h.regenerate(ctx, job, rep, results)
	case models.JobTypeSourceRefresh:
		return h.sourceRefresh(ctx, job, rep, results)
	case models.JobTypeSubmitURLs:
		return h.submitURLs(ctx, job, rep, results)
	case models.JobTypeGenerateImage:
		return h.generateImage(ctx, job, rep, results)
	case models.JobTypeRunWorkflow:
		return h.runWorkflow(ctx, job, rep, results)
	}
	return fmt.Errorf("%w: unknown job type %q", models.ErrInvalidInput, job.JobType)
}

func decodePayload(job *models.Job, dst any) error {
	if err := json.Unmarshal(job.Payload, dst); err != nil {
		return fmt.Errorf("%w: payload of %s job: %v", models.ErrInvalidInput, job.JobType, err)
	}
	return nil
}

// generation is one story/category pair in a multi-step job.
type generation struct {
	story    *models.Story
	category models.PromptCategory
}

// generateAll runs the steps in order. Progress is reported after every step
// and a pending cancel stops the loop before any step starts.
func (h *jobHandlers) generateAll(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults, steps []generation, cfg models.GenerationConfig) error {
	total := len(steps)
	for i, step := range steps {
		if rep.CancelRequested() {
			return models.ErrJobCancelled
		}
		label := string(step.category)
		meta := map[string]any{"category": step.category}
		if step.story != nil {
			label = fmt.Sprintf("%s for story %d", step.category, step.story.ID)
			meta["story_id"] = step.story.ID
		}

		res, err := h.deps.Generator.Generate(ctx, service.GenerateRequest{
			Category:  step.category,
			Story:     step.story,
			Config:    cfg,
			JobID:     job.ID,
			OnRetry:   rep.RetryLogger("Generation of " + label),
			Cancelled: rep.CancelRequested,
		})
		if errors.Is(err, models.ErrJobCancelled) {
			return err
		}
		if err != nil {
			meta["error"] = err.Error()
			rep.Log(models.LogLevelError, "Generation of "+label+" failed", meta)
			return fmt.Errorf("generate %s: %w", label, err)
		}
		results.AddContent(res.Item)
		contentGenerated.WithLabelValues(string(job.JobType)).Inc()
		meta["content_id"] = res.Item.ID
		if res.ParseError != nil {
			meta["parse_error"] = res.ParseError.Error()
			rep.Log(models.LogLevelWarn, "Generated "+label+" kept as draft, response did not match schema", meta)
		} else {
			rep.Log(models.LogLevelInfo, "Generated "+label, meta)
		}

		cancelled, err := rep.ReportProgress(ctx, (i+1)*100/total, fmt.Sprintf("Step %d/%d: %s", i+1, total, label))
		if err != nil {
			return err
		}
		if cancelled && i+1 < total {
			return models.ErrJobCancelled
		}
	}
	return nil
}

// checkCancel refreshes the cancel flag between phases that have no step
// boundary of their own.
func checkCancel(ctx context.Context, rep *Reporter) error {
	cancelled, err := rep.RefreshCancel(ctx)
	if err != nil {
		return err
	}
	if cancelled {
		return models.ErrJobCancelled
	}
	return nil
}

func (h *jobHandlers) fullCycle(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.FullCyclePayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	limit := p.Limit
	if limit <= 0 {
		limit = defaultFullCycleLimit
	}
	categories := p.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}

	aggregated := 0
	if len(p.SourceIDs) > 0 {
		if h.deps.Ingestor == nil {
			rep.Log(models.LogLevelWarn, "Source ingestion is not configured, skipping aggregation", map[string]any{"source_ids": p.SourceIDs})
		} else {
			for _, sourceID := range p.SourceIDs {
				n, err := h.deps.Ingestor.Refresh(ctx, job.AccountID, sourceID)
				if err != nil {
					rep.Log(models.LogLevelWarn, "Source refresh failed", map[string]any{"source_id": sourceID, "error": err.Error()})
					continue
				}
				aggregated += n
			}
		}
	}
	results.ArticlesAggregated = &aggregated
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Aggregation finished: %d new articles", aggregated), nil)
	if err := checkCancel(ctx, rep); err != nil {
		return err
	}

	stories, err := h.deps.Stories.ListUnprocessed(ctx, h.deps.DB, job.AccountID, limit)
	if err != nil {
		return fmt.Errorf("list unprocessed stories: %w", err)
	}
	analyzed := len(stories)
	results.ArticlesAnalyzed = &analyzed
	if err := checkCancel(ctx, rep); err != nil {
		return err
	}
	if analyzed == 0 {
		rep.Log(models.LogLevelInfo, "No unprocessed stories, nothing to generate", nil)
		_, err := rep.ReportProgress(ctx, 100, "No unprocessed stories")
		return err
	}
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Generating %d categories for %d stories", len(categories), analyzed), nil)

	steps := make([]generation, 0, len(stories)*len(categories))
	for i := range stories {
		for _, category := range categories {
			steps = append(steps, generation{story: &stories[i], category: category})
		}
	}
	return h.generateAll(ctx, job, rep, results, steps, p.Config)
}

func (h *jobHandlers) generateForStory(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.GenerateForStoryPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	storyID := p.StoryID
	results.SpecificStoryID = &storyID

	story, err := h.deps.Stories.Get(ctx, h.deps.DB, job.AccountID, p.StoryID)
	if err != nil {
		return fmt.Errorf("load story %d: %w", p.StoryID, err)
	}
	categories := p.Categories
	if len(categories) == 0 {
		categories = defaultCategories
	}
	steps := make([]generation, 0, len(categories))
	for _, category := range categories {
		steps = append(steps, generation{story: story, category: category})
	}
	return h.generateAll(ctx, job, rep, results, steps, p.Config)
}

func (h *jobHandlers) regenerate(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.RegeneratePayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	item, err := h.deps.Contents.Get(ctx, h.deps.DB, job.AccountID, p.ContentID)
	if err != nil {
		return fmt.Errorf("load content %s: %w", p.ContentID, err)
	}

	var story *models.Story
	if item.StoryID != nil {
		story, err = h.deps.Stories.Get(ctx, h.deps.DB, job.AccountID, *item.StoryID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("load story %d: %w", *item.StoryID, err)
		}
		results.SpecificStoryID = item.StoryID
	}

	var prior struct {
		TemplateID string `json:"template_id"`
	}
	if len(item.ContentData) > 0 {
		if err := json.Unmarshal(item.ContentData, &prior); err != nil {
			h.logger.Warn("Stored content data is not valid JSON, falling back to the category template",
				zap.String("job_id", job.ID), zap.String("content_id", item.ID), zap.Error(err))
			rep.Log(models.LogLevelWarn, "Could not read the original template of the content, using the category template",
				map[string]any{"content_id": item.ID, "error": err.Error()})
			prior.TemplateID = ""
		}
	}

	res, err := h.deps.Generator.Generate(ctx, service.GenerateRequest{
		Category:   item.PromptCategory,
		TemplateID: prior.TemplateID,
		Story:      story,
		Config:     p.Config,
		JobID:      job.ID,
		OnRetry:    rep.RetryLogger("Regeneration"),
		Cancelled:  rep.CancelRequested,
	})
	if errors.Is(err, models.ErrNotFound) && prior.TemplateID != "" {
		rep.Log(models.LogLevelWarn, "Original template is gone, using the current template of the category",
			map[string]any{"template_id": prior.TemplateID})
		res, err = h.deps.Generator.Generate(ctx, service.GenerateRequest{
			Category:  item.PromptCategory,
			Story:     story,
			Config:    p.Config,
			JobID:     job.ID,
			OnRetry:   rep.RetryLogger("Regeneration"),
			Cancelled: rep.CancelRequested,
		})
	}
	if err != nil {
		return fmt.Errorf("regenerate %s: %w", p.ContentID, err)
	}
	results.AddContent(res.Item)
	contentGenerated.WithLabelValues(string(job.JobType)).Inc()
	rep.Log(models.LogLevelInfo, "Content regenerated", map[string]any{"source_content_id": p.ContentID, "content_id": res.Item.ID})
	_, err = rep.ReportProgress(ctx, 100, "Regenerated")
	return err
}

func (h *jobHandlers) sourceRefresh(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.SourceRefreshPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	if h.deps.Ingestor == nil {
		return errors.New("source ingestion is not configured on this worker")
	}
	n, err := h.deps.Ingestor.Refresh(ctx, job.AccountID, p.SourceID)
	if err != nil {
		return fmt.Errorf("refresh source %s: %w", p.SourceID, err)
	}
	results.ArticlesAggregated = &n
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Source refreshed: %d new articles", n), map[string]any{"source_id": p.SourceID})
	_, err = rep.ReportProgress(ctx, 100, "Source refreshed")
	return err
}

func (h *jobHandlers) submitURLs(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.SubmitURLsPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	ids, err := h.deps.Stories.CreateSubmitted(ctx, h.deps.DB, job.AccountID, p.URLs)
	if err != nil {
		return fmt.Errorf("store submitted urls: %w", err)
	}
	n := len(ids)
	results.ArticlesAggregated = &n
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Submitted %d urls, %d stored", len(p.URLs), n), map[string]any{"story_ids": ids})
	_, err = rep.ReportProgress(ctx, 100, "URLs submitted")
	return err
}

func (h *jobHandlers) generateImage(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.GenerateImagePayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	jobID := job.ID
	gen, err := h.deps.Images.Generate(ctx, p.ContentID, p.Params, &jobID)
	if errors.Is(err, models.ErrUnsafeContent) {
		rep.Log(models.LogLevelWarn, "Every generated image was flagged unsafe", map[string]any{"content_id": p.ContentID})
		_, err = rep.ReportProgress(ctx, 100, "Images flagged unsafe")
		return err
	}
	if err != nil {
		return fmt.Errorf("generate image: %w", err)
	}
	for _, img := range gen.Images {
		results.ImageIDs = append(results.ImageIDs, img.ID)
	}
	meta := map[string]any{"content_id": p.ContentID, "model_version": gen.ModelVersion, "style_type": gen.StyleType, "images": len(gen.Images)}
	if gen.StyleCoerced {
		rep.Log(models.LogLevelWarn, fmt.Sprintf("Style %q is not supported by %s, used %s", p.Params.StyleType, gen.ModelVersion, gen.StyleType), meta)
	}
	rep.Log(models.LogLevelInfo, fmt.Sprintf("Generated %d images", len(gen.Images)), meta)
	_, err = rep.ReportProgress(ctx, 100, "Images generated")
	return err
}

func (h *jobHandlers) runWorkflow(ctx context.Context, job *models.Job, rep *Reporter, results *models.JobResults) error {
	var p models.RunWorkflowPayload
	if err := decodePayload(job, &p); err != nil {
		return err
	}
	wf, err := h.deps.Workflows.Get(ctx, h.deps.DB, job.AccountID, p.WorkflowID)
	if err != nil {
		return fmt.Errorf("load workflow %s: %w", p.WorkflowID, err)
	}
	story, err := h.deps.Stories.Get(ctx, h.deps.DB, job.AccountID, p.StoryID)
	if err != nil {
		return fmt.Errorf("load story %d: %w", p.StoryID, err)
	}
	storyID := p.StoryID
	results.SpecificStoryID = &storyID

	rep.Log(models.LogLevelInfo, fmt.Sprintf("Running workflow %q", wf.Name), map[string]any{"workflow_id": wf.ID, "steps": len(wf.Steps)})
	run, err := h.deps.Engine.Run(ctx, wf, story, p.Config, job.ID, rep)
	if run != nil {
		for _, item := range run.Contents {
			results.AddContent(item)
			contentGenerated.WithLabelValues(string(job.JobType)).Inc()
		}
		results.SkippedSteps = run.Skipped
		results.FailedSteps = run.Failed
	}
	return err
}
