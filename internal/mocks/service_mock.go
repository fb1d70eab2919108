package mocks

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"

	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

// MockTemplateService is a mock type for the TemplateService type
type MockTemplateService struct {
	mock.Mock
}

// CreateTemplate provides a mock function with given fields: ctx, in
func (_m *MockTemplateService) CreateTemplate(ctx context.Context, in models.NewTemplateInput) (*models.TemplateWithVersion, error) {
	ret := _m.Called(ctx, in)
	var r0 *models.TemplateWithVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateWithVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListTemplates provides a mock function with given fields: ctx
func (_m *MockTemplateService) ListTemplates(ctx context.Context) ([]models.TemplateSummary, error) {
	ret := _m.Called(ctx)
	var r0 []models.TemplateSummary
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.TemplateSummary)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetTemplate provides a mock function with given fields: ctx, templateID
func (_m *MockTemplateService) GetTemplate(ctx context.Context, templateID string) (*models.TemplateWithVersion, error) {
	ret := _m.Called(ctx, templateID)
	var r0 *models.TemplateWithVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateWithVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// CreateVersion provides a mock function with given fields: ctx, templateID, in
func (_m *MockTemplateService) CreateVersion(ctx context.Context, templateID string, in models.NewVersionInput) (*models.TemplateVersion, error) {
	ret := _m.Called(ctx, templateID, in)
	var r0 *models.TemplateVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// SetCurrentVersion provides a mock function with given fields: ctx, templateID, versionID
func (_m *MockTemplateService) SetCurrentVersion(ctx context.Context, templateID string, versionID string) (*models.TemplateWithVersion, error) {
	ret := _m.Called(ctx, templateID, versionID)
	var r0 *models.TemplateWithVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateWithVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListVersions provides a mock function with given fields: ctx, templateID
func (_m *MockTemplateService) ListVersions(ctx context.Context, templateID string) ([]models.TemplateVersion, error) {
	ret := _m.Called(ctx, templateID)
	var r0 []models.TemplateVersion
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.TemplateVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetHistory provides a mock function with given fields: ctx, templateID, limit
func (_m *MockTemplateService) GetHistory(ctx context.Context, templateID string, limit int) ([]models.GenerationLog, error) {
	ret := _m.Called(ctx, templateID, limit)
	var r0 []models.GenerationLog
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.GenerationLog)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetStats provides a mock function with given fields: ctx, templateID
func (_m *MockTemplateService) GetStats(ctx context.Context, templateID string) ([]models.VersionStats, error) {
	ret := _m.Called(ctx, templateID)
	var r0 []models.VersionStats
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.VersionStats)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockTemplateService creates a new instance of MockTemplateService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTemplateService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTemplateService {
	m := &MockTemplateService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.TemplateService = (*MockTemplateService)(nil)

// MockContentGenerator is a mock type for the ContentGenerator type
type MockContentGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockContentGenerator) Generate(ctx context.Context, req service.GenerateRequest) (*service.GenerateResult, error) {
	ret := _m.Called(ctx, req)
	var r0 *service.GenerateResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.GenerateResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Preview provides a mock function with given fields: ctx, templateID, versionID, in
func (_m *MockContentGenerator) Preview(ctx context.Context, templateID string, versionID string, in service.PreviewInput) (*service.PreviewResult, error) {
	ret := _m.Called(ctx, templateID, versionID, in)
	var r0 *service.PreviewResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.PreviewResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetDefaults provides a mock function with given fields: ctx
func (_m *MockContentGenerator) GetDefaults(ctx context.Context) (*models.GenerationDefaults, error) {
	ret := _m.Called(ctx)
	var r0 *models.GenerationDefaults
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.GenerationDefaults)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateDefaults provides a mock function with given fields: ctx, in
func (_m *MockContentGenerator) UpdateDefaults(ctx context.Context, in models.GenerationDefaults) (*models.GenerationDefaults, error) {
	ret := _m.Called(ctx, in)
	var r0 *models.GenerationDefaults
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.GenerationDefaults)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockContentGenerator creates a new instance of MockContentGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockContentGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockContentGenerator {
	m := &MockContentGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.ContentGenerator = (*MockContentGenerator)(nil)

// MockJobService is a mock type for the JobService type
type MockJobService struct {
	mock.Mock
}

// Enqueue provides a mock function with given fields: ctx, jobType, payload
func (_m *MockJobService) Enqueue(ctx context.Context, jobType models.JobType, payload json.RawMessage) (*service.EnqueueResult, error) {
	ret := _m.Called(ctx, jobType, payload)
	var r0 *service.EnqueueResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.EnqueueResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// List provides a mock function with given fields: ctx, filter
func (_m *MockJobService) List(ctx context.Context, filter models.JobFilter) ([]models.Job, error) {
	ret := _m.Called(ctx, filter)
	var r0 []models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Get provides a mock function with given fields: ctx, jobID
func (_m *MockJobService) Get(ctx context.Context, jobID string) (*models.Job, error) {
	ret := _m.Called(ctx, jobID)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Cancel provides a mock function with given fields: ctx, jobID
func (_m *MockJobService) Cancel(ctx context.Context, jobID string) (*models.Job, error) {
	ret := _m.Called(ctx, jobID)
	var r0 *models.Job
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Job)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Retry provides a mock function with given fields: ctx, jobID
func (_m *MockJobService) Retry(ctx context.Context, jobID string) (*service.EnqueueResult, error) {
	ret := _m.Called(ctx, jobID)
	var r0 *service.EnqueueResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.EnqueueResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Logs provides a mock function with given fields: ctx, jobID, filter
func (_m *MockJobService) Logs(ctx context.Context, jobID string, filter models.LogFilter) (*models.LogTail, error) {
	ret := _m.Called(ctx, jobID, filter)
	var r0 *models.LogTail
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.LogTail)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockJobService creates a new instance of MockJobService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockJobService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobService {
	m := &MockJobService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.JobService = (*MockJobService)(nil)

// MockContentService is a mock type for the ContentService type
type MockContentService struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, contentID
func (_m *MockContentService) Get(ctx context.Context, contentID string) (*models.ContentItem, error) {
	ret := _m.Called(ctx, contentID)
	var r0 *models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListByStory provides a mock function with given fields: ctx, storyID
func (_m *MockContentService) ListByStory(ctx context.Context, storyID int64) ([]models.ContentItem, error) {
	ret := _m.Called(ctx, storyID)
	var r0 []models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateStatus provides a mock function with given fields: ctx, contentID, to
func (_m *MockContentService) UpdateStatus(ctx context.Context, contentID string, to models.ContentStatus) (*models.ContentItem, error) {
	ret := _m.Called(ctx, contentID, to)
	var r0 *models.ContentItem
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ContentItem)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockContentService creates a new instance of MockContentService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockContentService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockContentService {
	m := &MockContentService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.ContentService = (*MockContentService)(nil)

// MockWorkflowService is a mock type for the WorkflowService type
type MockWorkflowService struct {
	mock.Mock
}

// CreateWorkflow provides a mock function with given fields: ctx, in
func (_m *MockWorkflowService) CreateWorkflow(ctx context.Context, in service.NewWorkflowInput) (*models.Workflow, error) {
	ret := _m.Called(ctx, in)
	var r0 *models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListWorkflows provides a mock function with given fields: ctx
func (_m *MockWorkflowService) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	ret := _m.Called(ctx)
	var r0 []models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetWorkflow provides a mock function with given fields: ctx, workflowID
func (_m *MockWorkflowService) GetWorkflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	ret := _m.Called(ctx, workflowID)
	var r0 *models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ReplaceSteps provides a mock function with given fields: ctx, workflowID, steps
func (_m *MockWorkflowService) ReplaceSteps(ctx context.Context, workflowID string, steps []models.WorkflowStep) (*models.Workflow, error) {
	ret := _m.Called(ctx, workflowID, steps)
	var r0 *models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockWorkflowService creates a new instance of MockWorkflowService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkflowService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflowService {
	m := &MockWorkflowService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.WorkflowService = (*MockWorkflowService)(nil)

// MockImageService is a mock type for the ImageService type
type MockImageService struct {
	mock.Mock
}

// GetSettings provides a mock function with given fields: ctx
func (_m *MockImageService) GetSettings(ctx context.Context) (*models.ImageSettings, error) {
	ret := _m.Called(ctx)
	var r0 *models.ImageSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageSettings)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateSettings provides a mock function with given fields: ctx, in
func (_m *MockImageService) UpdateSettings(ctx context.Context, in service.ImageSettingsInput) (*models.ImageSettings, error) {
	ret := _m.Called(ctx, in)
	var r0 *models.ImageSettings
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageSettings)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListBrandColors provides a mock function with given fields: ctx
func (_m *MockImageService) ListBrandColors(ctx context.Context) ([]models.BrandColorTemplate, error) {
	ret := _m.Called(ctx)
	var r0 []models.BrandColorTemplate
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.BrandColorTemplate)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// AddBrandColor provides a mock function with given fields: ctx, tmpl
func (_m *MockImageService) AddBrandColor(ctx context.Context, tmpl models.BrandColorTemplate) ([]models.BrandColorTemplate, error) {
	ret := _m.Called(ctx, tmpl)
	var r0 []models.BrandColorTemplate
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.BrandColorTemplate)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// DeleteBrandColor provides a mock function with given fields: ctx, index
func (_m *MockImageService) DeleteBrandColor(ctx context.Context, index int) ([]models.BrandColorTemplate, error) {
	ret := _m.Called(ctx, index)
	var r0 []models.BrandColorTemplate
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.BrandColorTemplate)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Generate provides a mock function with given fields: ctx, contentID, req, jobID
func (_m *MockImageService) Generate(ctx context.Context, contentID string, req models.ImageRequest, jobID *string) (*service.ImageGeneration, error) {
	ret := _m.Called(ctx, contentID, req, jobID)
	var r0 *service.ImageGeneration
	if v := ret.Get(0); v != nil {
		r0 = v.(*service.ImageGeneration)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// UpdateStatus provides a mock function with given fields: ctx, imageID, to
func (_m *MockImageService) UpdateStatus(ctx context.Context, imageID string, to models.ImageStatus) (*models.ImageRecord, error) {
	ret := _m.Called(ctx, imageID, to)
	var r0 *models.ImageRecord
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.ImageRecord)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListForContent provides a mock function with given fields: ctx, contentID
func (_m *MockImageService) ListForContent(ctx context.Context, contentID string) ([]models.ImageRecord, error) {
	ret := _m.Called(ctx, contentID)
	var r0 []models.ImageRecord
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.ImageRecord)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockImageService creates a new instance of MockImageService. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageService(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageService {
	m := &MockImageService{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.ImageService = (*MockImageService)(nil)
