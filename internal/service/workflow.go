package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"content-pipeline/internal/account"
	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// NewWorkflowInput carries the fields of a new workflow.
type NewWorkflowInput struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Steps       []models.WorkflowStep `json:"steps"`
}

// WorkflowService manages workflow definitions.
type WorkflowService interface {
	CreateWorkflow(ctx context.Context, in NewWorkflowInput) (*models.Workflow, error)
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error)
	ReplaceSteps(ctx context.Context, workflowID string, steps []models.WorkflowStep) (*models.Workflow, error)
}

type workflowServiceImpl struct {
	db        interfaces.DBTX
	txm       interfaces.TxManager
	repo      interfaces.WorkflowRepository
	templates interfaces.TemplateRepository
	logger    *zap.Logger
}

// NewWorkflowService creates the workflow definition service.
func NewWorkflowService(
	db interfaces.DBTX,
	txm interfaces.TxManager,
	repo interfaces.WorkflowRepository,
	templates interfaces.TemplateRepository,
	logger *zap.Logger,
) WorkflowService {
	return &workflowServiceImpl{
		db:        db,
		txm:       txm,
		repo:      repo,
		templates: templates,
		logger:    logger.Named("WorkflowService"),
	}
}

func (s *workflowServiceImpl) CreateWorkflow(ctx context.Context, in NewWorkflowInput) (*models.Workflow, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrInvalidInput)
	}
	if err := s.validateSteps(ctx, id.AccountID, in.Steps); err != nil {
		return nil, err
	}

	wf := &models.Workflow{
		ID:          uuid.NewString(),
		AccountID:   id.AccountID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
	}
	err = s.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		if err := s.repo.Create(ctx, tx, wf); err != nil {
			return err
		}
		return s.repo.ReplaceSteps(ctx, tx, wf.ID, in.Steps)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("Workflow created", zap.String("account_id", id.AccountID), zap.String("workflow_id", wf.ID), zap.Int("steps", len(in.Steps)))
	return s.repo.Get(ctx, s.db, id.AccountID, wf.ID)
}

func (s *workflowServiceImpl) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, s.db, accountID)
}

func (s *workflowServiceImpl) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	accountID, err := account.Scoped(ctx)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db, accountID, workflowID)
}

// ReplaceSteps rewrites the step list; orders become 1..N in slice order.
func (s *workflowServiceImpl) ReplaceSteps(ctx context.Context, workflowID string, steps []models.WorkflowStep) (*models.Workflow, error) {
	id, err := account.RequirePermission(ctx, account.PermTemplatesWrite)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.Get(ctx, s.db, id.AccountID, workflowID); err != nil {
		return nil, err
	}
	if err := s.validateSteps(ctx, id.AccountID, steps); err != nil {
		return nil, err
	}
	err = s.txm.WithTransaction(ctx, func(ctx context.Context, tx interfaces.DBTX) error {
		return s.repo.ReplaceSteps(ctx, tx, workflowID, steps)
	})
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, s.db, id.AccountID, workflowID)
}

func (s *workflowServiceImpl) validateSteps(ctx context.Context, accountID string, steps []models.WorkflowStep) error {
	seen := map[string]bool{}
	for i, step := range steps {
		if strings.TrimSpace(step.DisplayName) == "" {
			return fmt.Errorf("%w: step %d needs a display_name", models.ErrInvalidInput, i+1)
		}
		slug := StepSlug(step.DisplayName)
		if seen[slug] {
			return fmt.Errorf("%w: duplicate step name %q", models.ErrInvalidInput, step.DisplayName)
		}
		seen[slug] = true
		for _, c := range step.Conditions {
			if !c.Operator.IsValid() {
				return fmt.Errorf("%w: step %q has unknown operator %q", models.ErrInvalidInput, step.DisplayName, c.Operator)
			}
			if strings.TrimSpace(c.Field) == "" {
				return fmt.Errorf("%w: step %q has a condition without field", models.ErrInvalidInput, step.DisplayName)
			}
		}
		tmpl, err := s.templates.GetTemplate(ctx, s.db, accountID, step.TemplateID)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: step %q references unknown template %s", models.ErrInvalidInput, step.DisplayName, step.TemplateID)
		}
		if err != nil {
			return err
		}
		if tmpl.Category.IsMedia() {
			return fmt.Errorf("%w: step %q references a media template", models.ErrInvalidInput, step.DisplayName)
		}
	}
	return nil
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// StepSlug is the variable-safe form of a step display name: "Social Media" -> "social_media".
func StepSlug(displayName string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(displayName), "_"), "_")
}

// StepReporter receives workflow progress. ReportProgress and CancelRequested
// return true when cancellation has been requested.
type StepReporter interface {
	Log(level models.LogLevel, msg string, metadata map[string]any)
	ReportProgress(ctx context.Context, percentage int, details string) (cancelRequested bool, err error)
	CancelRequested() bool
}

// WorkflowRun is the outcome of a workflow execution.
type WorkflowRun struct {
	Steps    []models.StepOutcome
	Contents []*models.ContentItem
	Skipped  []string
	Failed   []string
}

// WorkflowEngine executes workflows step by step.
type WorkflowEngine struct {
	generator ContentGenerator
	logger    *zap.Logger
}

// NewWorkflowEngine creates an engine on top of the content generator.
func NewWorkflowEngine(generator ContentGenerator, logger *zap.Logger) *WorkflowEngine {
	return &WorkflowEngine{generator: generator, logger: logger.Named("WorkflowEngine")}
}

// Run executes the enabled steps of wf in order. The run is returned even on
// error so partial results survive cancellation and aborts.
func (e *WorkflowEngine) Run(ctx context.Context, wf *models.Workflow, story *models.Story, cfg models.GenerationConfig, jobID string, reporter StepReporter) (*WorkflowRun, error) {
	run := &WorkflowRun{}
	vars := storyBag(story, "")
	delete(vars, "category")

	var steps []models.WorkflowStep
	for _, step := range wf.Steps {
		if step.Enabled {
			steps = append(steps, step)
		}
	}
	total := len(steps)
	if total == 0 {
		reporter.Log(models.LogLevelWarn, "Workflow has no enabled steps", map[string]any{"workflow_id": wf.ID})
		return run, nil
	}

	for i, step := range steps {
		if reporter.CancelRequested() {
			return run, models.ErrJobCancelled
		}
		slug := StepSlug(step.DisplayName)
		meta := map[string]any{"workflow_id": wf.ID, "step_id": step.ID, "step": step.DisplayName, "order": step.Order}

		if ok, failed := EvaluateConditions(step.Conditions, vars); !ok {
			run.Skipped = append(run.Skipped, step.DisplayName)
			run.Steps = append(run.Steps, models.StepOutcome{StepID: step.ID, DisplayName: step.DisplayName, Skipped: true})
			meta["condition"] = failed.Field + " " + string(failed.Operator)
			reporter.Log(models.LogLevelInfo, fmt.Sprintf("Step %q skipped: condition not met", step.DisplayName), meta)
		} else {
			res, err := e.generator.Generate(ctx, GenerateRequest{
				TemplateID: step.TemplateID,
				Story:      story,
				Config:     cfg,
				Extra:      vars,
				JobID:      jobID,
				OnRetry: func(attempt int, delay time.Duration, err error) {
					reporter.Log(models.LogLevelWarn,
						fmt.Sprintf("Step %q attempt %d failed, retrying in %s", step.DisplayName, attempt, delay),
						map[string]any{"step": step.DisplayName, "attempt": attempt, "error": err.Error()})
				},
				Cancelled: reporter.CancelRequested,
			})
			if err != nil {
				run.Failed = append(run.Failed, step.DisplayName)
				run.Steps = append(run.Steps, models.StepOutcome{StepID: step.ID, DisplayName: step.DisplayName, Error: err.Error()})
				meta["error"] = err.Error()
				if !step.ContinueOnError || errors.Is(err, context.Canceled) || errors.Is(err, models.ErrJobCancelled) {
					reporter.Log(models.LogLevelError, fmt.Sprintf("Step %q failed, aborting workflow", step.DisplayName), meta)
					return run, fmt.Errorf("workflow step %q: %w", step.DisplayName, err)
				}
				reporter.Log(models.LogLevelError, fmt.Sprintf("Step %q failed, continuing", step.DisplayName), meta)
			} else {
				vars["steps."+slug] = res.Text
				vars["steps."+slug+".output"] = res.Text
				vars["steps."+slug+".content_id"] = res.Item.ID
				run.Contents = append(run.Contents, res.Item)
				run.Steps = append(run.Steps, models.StepOutcome{StepID: step.ID, DisplayName: step.DisplayName, ContentID: res.Item.ID})
				meta["content_id"] = res.Item.ID
				reporter.Log(models.LogLevelInfo, fmt.Sprintf("Step %q completed", step.DisplayName), meta)
			}
		}

		cancelled, err := reporter.ReportProgress(ctx, (i+1)*100/total, fmt.Sprintf("Step %d/%d: %s", i+1, total, step.DisplayName))
		if err != nil {
			return run, err
		}
		if cancelled && i+1 < total {
			return run, models.ErrJobCancelled
		}
	}
	return run, nil
}

// EvaluateConditions ANDs all conditions against vars. It returns the first failing condition.
func EvaluateConditions(conditions []models.Condition, vars map[string]string) (bool, models.Condition) {
	for _, c := range conditions {
		if !evaluate(c, vars) {
			return false, c
		}
	}
	return true, models.Condition{}
}

func evaluate(c models.Condition, vars map[string]string) bool {
	value, present := lookupVar(vars, c.Field)
	present = present && strings.TrimSpace(value) != ""
	switch c.Operator {
	case models.OperatorExists:
		return present
	case models.OperatorNotExists:
		return !present
	case models.OperatorEquals:
		return strings.TrimSpace(value) == strings.TrimSpace(c.Value)
	case models.OperatorNotEquals:
		return strings.TrimSpace(value) != strings.TrimSpace(c.Value)
	case models.OperatorContains:
		return strings.Contains(value, c.Value)
	case models.OperatorNotContains:
		return !strings.Contains(value, c.Value)
	}
	return false
}

// lookupVar tries the field verbatim, then with a slugged step name
// ("steps.Social Media" -> "steps.social_media").
func lookupVar(vars map[string]string, field string) (string, bool) {
	if v, ok := vars[field]; ok {
		return v, true
	}
	if rest, ok := strings.CutPrefix(field, "steps."); ok {
		name, suffix, hasSuffix := strings.Cut(rest, ".")
		key := "steps." + StepSlug(name)
		if hasSuffix {
			key += "." + suffix
		}
		v, ok := vars[key]
		return v, ok
	}
	return "", false
}
