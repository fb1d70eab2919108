package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/internal/mocks"
	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

type reportedLog struct {
	level models.LogLevel
	msg   string
}

type recordingReporter struct {
	mu        sync.Mutex
	logs      []reportedLog
	progress  []int
	cancelAt  int
	progressN int
	cancelled bool
}

func (r *recordingReporter) Log(level models.LogLevel, msg string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, reportedLog{level: level, msg: msg})
}

func (r *recordingReporter) ReportProgress(_ context.Context, pct int, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, pct)
	r.progressN++
	if r.cancelAt > 0 && r.progressN >= r.cancelAt {
		r.cancelled = true
	}
	return r.cancelled, nil
}

func (r *recordingReporter) CancelRequested() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cancelled
}

func (r *recordingReporter) count(level models.LogLevel) int {
	n := 0
	for _, l := range r.logs {
		if l.level == level {
			n++
		}
	}
	return n
}

func wfStep(id, name, templateID string, conditions ...models.Condition) models.WorkflowStep {
	return models.WorkflowStep{ID: id, DisplayName: name, TemplateID: templateID, Conditions: conditions, Enabled: true}
}

// Three steps where the social step is rate limited twice: the step retries
// locally, every step produces content and the log has two warnings plus one
// info entry per step.
func TestWorkflowRunRetriesStepLocally(t *testing.T) {
	templates := mocks.NewMockTemplateRepository(t)
	genLogs := mocks.NewMockGenerationLogRepository(t)
	contents := mocks.NewMockContentRepository(t)
	selector := mocks.NewMockTextSelector(t)
	text := mocks.NewMockTextProvider(t)

	defaults := mocks.NewMockGenerationDefaultsRepository(t)
	defaults.On("Get", mock.Anything, mock.Anything, testAccount).Return(nil, models.ErrNotFound)

	gen := service.NewContentGenerator(nil, &mocks.TxPassthrough{}, templates, genLogs, contents, mocks.NewMockStoryRepository(t), defaults, selector,
		service.GeneratorConfig{MaxAttempts: 3, BaseRetryDelay: time.Millisecond}, zap.NewNop())
	engine := service.NewWorkflowEngine(gen, zap.NewNop())

	analysisTmpl := &models.Template{ID: "tpl-analysis", AccountID: testAccount, Category: models.CategoryAnalysis}
	socialTmpl := &models.Template{ID: "tpl-social_media", AccountID: testAccount, Category: models.CategorySocialMedia}
	prayerTmpl := &models.Template{ID: "tpl-prayer", AccountID: testAccount, Category: models.CategoryPrayer}
	templates.On("GetTemplate", mock.Anything, mock.Anything, testAccount, analysisTmpl.ID).Return(analysisTmpl, nil)
	templates.On("GetTemplate", mock.Anything, mock.Anything, testAccount, socialTmpl.ID).Return(socialTmpl, nil)
	templates.On("GetTemplate", mock.Anything, mock.Anything, testAccount, prayerTmpl.ID).Return(prayerTmpl, nil)
	templates.On("GetCurrentVersion", mock.Anything, mock.Anything, analysisTmpl.ID).
		Return(&models.TemplateVersion{ID: "ver-analysis", PromptContent: "Analyse {{title}}"}, nil)
	templates.On("GetCurrentVersion", mock.Anything, mock.Anything, socialTmpl.ID).
		Return(&models.TemplateVersion{ID: "ver-social", PromptContent: "Posts from {{steps.analysis}}"}, nil)
	templates.On("GetCurrentVersion", mock.Anything, mock.Anything, prayerTmpl.ID).
		Return(&models.TemplateVersion{ID: "ver-prayer", PromptContent: "Prayer for {{title}}"}, nil)
	templates.On("IncrementUsage", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(3)

	selector.On("SelectText", mock.Anything, mock.Anything).Return(text, "gpt-4o-mini")
	text.On("Name").Return("openai")
	analysisOut := `{"sentiment":"hopeful"}`
	text.On("GenerateText", mock.Anything, mock.MatchedBy(func(r provider.TextRequest) bool { return strings.HasPrefix(r.Prompt, "Analyse") })).
		Return(&provider.TextResult{Text: analysisOut}, nil).Once()
	socialReq := mock.MatchedBy(func(r provider.TextRequest) bool { return r.Prompt == "Posts from "+analysisOut })
	text.On("GenerateText", mock.Anything, socialReq).Return(nil, models.ErrRateLimited).Twice()
	text.On("GenerateText", mock.Anything, socialReq).
		Return(&provider.TextResult{Text: `[{"platform":"X","text":"Hope rises"}]`}, nil).Once()
	text.On("GenerateText", mock.Anything, mock.MatchedBy(func(r provider.TextRequest) bool { return strings.HasPrefix(r.Prompt, "Prayer") })).
		Return(&provider.TextResult{Text: "1. For Accra"}, nil).Once()

	genLogs.On("Insert", mock.Anything, mock.Anything, mock.Anything).Return(nil).Times(5)
	genLogs.On("AttachContent", mock.Anything, mock.Anything, testAccount, mock.Anything, mock.Anything).Return(nil).Times(3)
	var created []*models.ContentItem
	contents.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = append(created, args.Get(2).(*models.ContentItem)) }).
		Return(nil).Times(3)

	wf := &models.Workflow{ID: "wf-1", Steps: []models.WorkflowStep{
		wfStep("s1", "Analysis", analysisTmpl.ID),
		wfStep("s2", "Social Media", socialTmpl.ID, models.Condition{Field: "steps.Analysis", Operator: models.OperatorContains, Value: "hopeful"}),
		wfStep("s3", "Prayer", prayerTmpl.ID),
	}}
	reporter := &recordingReporter{}

	run, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-1", reporter)
	require.NoError(t, err)
	require.Len(t, created, 3)
	assert.Len(t, run.Contents, 3)
	assert.Empty(t, run.Skipped)
	assert.Empty(t, run.Failed)
	assert.Equal(t, models.CategorySocialMedia, created[1].PromptCategory)
	assert.Equal(t, 2, reporter.count(models.LogLevelWarn))
	assert.Equal(t, 3, reporter.count(models.LogLevelInfo))
	assert.Equal(t, []int{33, 66, 100}, reporter.progress)
}

func TestWorkflowRunSkipsAndContinues(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	engine := service.NewWorkflowEngine(gen, zap.NewNop())

	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r service.GenerateRequest) bool { return r.TemplateID == "t-a" })).
		Return(nil, models.ErrQuotaExceeded).Once()
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(r service.GenerateRequest) bool { return r.TemplateID == "t-c" })).
		Return(&service.GenerateResult{Item: &models.ContentItem{ID: "c-3"}, Text: "ok"}, nil).Once()

	failing := wfStep("s1", "Email", "t-a")
	failing.ContinueOnError = true
	disabled := wfStep("s0", "Disabled", "t-x")
	disabled.Enabled = false
	wf := &models.Workflow{ID: "wf-2", Steps: []models.WorkflowStep{
		disabled,
		failing,
		wfStep("s2", "Follow up", "t-b", models.Condition{Field: "steps.email", Operator: models.OperatorExists}),
		wfStep("s3", "Summary", "t-c", models.Condition{Field: "steps.email", Operator: models.OperatorNotExists}),
	}}
	reporter := &recordingReporter{}

	run, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-2", reporter)
	require.NoError(t, err)
	assert.Equal(t, []string{"Email"}, run.Failed)
	assert.Equal(t, []string{"Follow up"}, run.Skipped)
	require.Len(t, run.Contents, 1)
	assert.Equal(t, "c-3", run.Contents[0].ID)
	assert.Len(t, run.Steps, 3)
	assert.Equal(t, 1, reporter.count(models.LogLevelError))
}

func TestWorkflowRunAbortsWithoutContinueOnError(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	engine := service.NewWorkflowEngine(gen, zap.NewNop())
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, models.ErrProviderUnavailable).Once()

	wf := &models.Workflow{ID: "wf-3", Steps: []models.WorkflowStep{wfStep("s1", "One", "t-1"), wfStep("s2", "Two", "t-2")}}
	run, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-3", &recordingReporter{})
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
	assert.Equal(t, []string{"One"}, run.Failed)
	assert.Len(t, run.Steps, 1)
}

func TestWorkflowRunStopsAtStepBoundaryOnCancel(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	engine := service.NewWorkflowEngine(gen, zap.NewNop())
	gen.On("Generate", mock.Anything, mock.Anything).Return(&service.GenerateResult{Item: &models.ContentItem{ID: "c-1"}, Text: "x"}, nil).Once()

	wf := &models.Workflow{ID: "wf-4", Steps: []models.WorkflowStep{wfStep("s1", "One", "t-1"), wfStep("s2", "Two", "t-2")}}
	run, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-4", &recordingReporter{cancelAt: 1})
	assert.True(t, errors.Is(err, models.ErrJobCancelled))
	require.Len(t, run.Contents, 1)
}

func TestWorkflowRunDoesNotStartWhenAlreadyCancelled(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	engine := service.NewWorkflowEngine(gen, zap.NewNop())

	wf := &models.Workflow{ID: "wf-5", Steps: []models.WorkflowStep{wfStep("s1", "One", "t-1")}}
	run, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-5", &recordingReporter{cancelled: true})
	assert.ErrorIs(t, err, models.ErrJobCancelled)
	assert.Empty(t, run.Contents)
	gen.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestWorkflowRunPassesCancelHookToGenerator(t *testing.T) {
	gen := mocks.NewMockContentGenerator(t)
	engine := service.NewWorkflowEngine(gen, zap.NewNop())
	rep := &recordingReporter{}
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req service.GenerateRequest) bool {
		return req.Cancelled != nil && !req.Cancelled()
	})).Run(func(mock.Arguments) {
		rep.mu.Lock()
		rep.cancelled = true
		rep.mu.Unlock()
	}).Return(nil, models.ErrJobCancelled).Once()

	wf := &models.Workflow{ID: "wf-6", Steps: []models.WorkflowStep{
		{ID: "s1", DisplayName: "One", TemplateID: "t-1", Enabled: true, ContinueOnError: true},
		wfStep("s2", "Two", "t-2"),
	}}
	_, err := engine.Run(systemCtx(), wf, testStory(), models.GenerationConfig{}, "job-6", rep)
	assert.ErrorIs(t, err, models.ErrJobCancelled)
	gen.AssertNumberOfCalls(t, "Generate", 1)
}

func TestEvaluateConditions(t *testing.T) {
	vars := map[string]string{
		"title":                 "Revival in Accra",
		"steps.social_media":    "Hope rises",
		"steps.analysis.output": "  hopeful ",
		"empty":                 "   ",
	}
	tests := []struct {
		name string
		cond models.Condition
		want bool
	}{
		{"exists", models.Condition{Field: "title", Operator: models.OperatorExists}, true},
		{"blank does not exist", models.Condition{Field: "empty", Operator: models.OperatorExists}, false},
		{"missing not exists", models.Condition{Field: "nope", Operator: models.OperatorNotExists}, true},
		{"equals trims", models.Condition{Field: "steps.analysis.output", Operator: models.OperatorEquals, Value: "hopeful"}, true},
		{"not equals", models.Condition{Field: "title", Operator: models.OperatorNotEquals, Value: "x"}, true},
		{"contains via display name", models.Condition{Field: "steps.Social Media", Operator: models.OperatorContains, Value: "Hope"}, true},
		{"not contains", models.Condition{Field: "title", Operator: models.OperatorNotContains, Value: "Accra"}, false},
		{"unknown operator", models.Condition{Field: "title", Operator: "matches"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, _ := service.EvaluateConditions([]models.Condition{tt.cond}, vars)
			assert.Equal(t, tt.want, ok)
		})
	}

	ok, failed := service.EvaluateConditions([]models.Condition{
		{Field: "title", Operator: models.OperatorExists},
		{Field: "nope", Operator: models.OperatorExists},
	}, vars)
	assert.False(t, ok)
	assert.Equal(t, "nope", failed.Field)
}

func TestStepSlug(t *testing.T) {
	assert.Equal(t, "social_media", service.StepSlug("Social Media"))
	assert.Equal(t, "blog_post_v2", service.StepSlug("  Blog post (v2) "))
}

func TestCreateWorkflowValidatesSteps(t *testing.T) {
	repo := mocks.NewMockWorkflowRepository(t)
	templates := mocks.NewMockTemplateRepository(t)
	svc := service.NewWorkflowService(nil, &mocks.TxPassthrough{}, repo, templates, zap.NewNop())

	templates.On("GetTemplate", mock.Anything, mock.Anything, testAccount, "t1").
		Return(&models.Template{ID: "t1", Category: models.CategoryBlogPost}, nil)

	_, err := svc.CreateWorkflow(editorCtx(), service.NewWorkflowInput{Name: "wf", Steps: []models.WorkflowStep{
		wfStep("", "Same", "t1"), wfStep("", "same", "t1"),
	}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.CreateWorkflow(editorCtx(), service.NewWorkflowInput{Name: "wf", Steps: []models.WorkflowStep{wfStep("", " ", "t1")}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	templates.On("GetTemplate", mock.Anything, mock.Anything, testAccount, "img").
		Return(&models.Template{ID: "img", Category: models.CategoryImageGeneration}, nil)
	_, err = svc.CreateWorkflow(editorCtx(), service.NewWorkflowInput{Name: "wf", Steps: []models.WorkflowStep{wfStep("", "Picture", "img")}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.CreateWorkflow(editorCtx(), service.NewWorkflowInput{Name: "wf", Steps: []models.WorkflowStep{
		wfStep("", "Blog", "t1", models.Condition{Field: "title", Operator: "regex"}),
	}})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("ReplaceSteps", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()
	repo.On("Get", mock.Anything, mock.Anything, testAccount, mock.Anything).Return(&models.Workflow{ID: "wf-new", Name: "wf"}, nil).Once()
	wf, err := svc.CreateWorkflow(editorCtx(), service.NewWorkflowInput{Name: " wf ", Steps: []models.WorkflowStep{wfStep("", "Blog", "t1")}})
	require.NoError(t, err)
	assert.Equal(t, "wf-new", wf.ID)
}
