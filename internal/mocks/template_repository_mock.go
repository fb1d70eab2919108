package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"content-pipeline/shared/interfaces"
	"content-pipeline/shared/models"
)

// MockTemplateRepository is a mock type for the TemplateRepository type
type MockTemplateRepository struct {
	mock.Mock
}

// CreateTemplate provides a mock function with given fields: ctx, querier, t
func (_m *MockTemplateRepository) CreateTemplate(ctx context.Context, querier interfaces.DBTX, t *models.Template) error {
	ret := _m.Called(ctx, querier, t)
	r0 := ret.Error(0)
	return r0
}

// GetTemplate provides a mock function with given fields: ctx, querier, accountID, templateID
func (_m *MockTemplateRepository) GetTemplate(ctx context.Context, querier interfaces.DBTX, accountID string, templateID string) (*models.Template, error) {
	ret := _m.Called(ctx, querier, accountID, templateID)
	var r0 *models.Template
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Template)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// LockTemplate provides a mock function with given fields: ctx, tx, accountID, templateID
func (_m *MockTemplateRepository) LockTemplate(ctx context.Context, tx interfaces.DBTX, accountID string, templateID string) (*models.Template, error) {
	ret := _m.Called(ctx, tx, accountID, templateID)
	var r0 *models.Template
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Template)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetTemplateByCategory provides a mock function with given fields: ctx, querier, accountID, category
func (_m *MockTemplateRepository) GetTemplateByCategory(ctx context.Context, querier interfaces.DBTX, accountID string, category models.PromptCategory) (*models.Template, error) {
	ret := _m.Called(ctx, querier, accountID, category)
	var r0 *models.Template
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Template)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListTemplates provides a mock function with given fields: ctx, querier, accountID
func (_m *MockTemplateRepository) ListTemplates(ctx context.Context, querier interfaces.DBTX, accountID string) ([]models.TemplateSummary, error) {
	ret := _m.Called(ctx, querier, accountID)
	var r0 []models.TemplateSummary
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.TemplateSummary)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// TouchTemplate provides a mock function with given fields: ctx, tx, templateID, currentVersionID
func (_m *MockTemplateRepository) TouchTemplate(ctx context.Context, tx interfaces.DBTX, templateID string, currentVersionID string) error {
	ret := _m.Called(ctx, tx, templateID, currentVersionID)
	r0 := ret.Error(0)
	return r0
}

// InsertVersion provides a mock function with given fields: ctx, tx, v
func (_m *MockTemplateRepository) InsertVersion(ctx context.Context, tx interfaces.DBTX, v *models.TemplateVersion) error {
	ret := _m.Called(ctx, tx, v)
	r0 := ret.Error(0)
	return r0
}

// ClearCurrent provides a mock function with given fields: ctx, tx, templateID
func (_m *MockTemplateRepository) ClearCurrent(ctx context.Context, tx interfaces.DBTX, templateID string) error {
	ret := _m.Called(ctx, tx, templateID)
	r0 := ret.Error(0)
	return r0
}

// MarkCurrent provides a mock function with given fields: ctx, tx, templateID, versionID
func (_m *MockTemplateRepository) MarkCurrent(ctx context.Context, tx interfaces.DBTX, templateID string, versionID string) error {
	ret := _m.Called(ctx, tx, templateID, versionID)
	r0 := ret.Error(0)
	return r0
}

// GetVersion provides a mock function with given fields: ctx, querier, templateID, versionID
func (_m *MockTemplateRepository) GetVersion(ctx context.Context, querier interfaces.DBTX, templateID string, versionID string) (*models.TemplateVersion, error) {
	ret := _m.Called(ctx, querier, templateID, versionID)
	var r0 *models.TemplateVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// GetCurrentVersion provides a mock function with given fields: ctx, querier, templateID
func (_m *MockTemplateRepository) GetCurrentVersion(ctx context.Context, querier interfaces.DBTX, templateID string) (*models.TemplateVersion, error) {
	ret := _m.Called(ctx, querier, templateID)
	var r0 *models.TemplateVersion
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.TemplateVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ListVersions provides a mock function with given fields: ctx, querier, templateID
func (_m *MockTemplateRepository) ListVersions(ctx context.Context, querier interfaces.DBTX, templateID string) ([]models.TemplateVersion, error) {
	ret := _m.Called(ctx, querier, templateID)
	var r0 []models.TemplateVersion
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.TemplateVersion)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// IncrementUsage provides a mock function with given fields: ctx, querier, versionID
func (_m *MockTemplateRepository) IncrementUsage(ctx context.Context, querier interfaces.DBTX, versionID string) error {
	ret := _m.Called(ctx, querier, versionID)
	r0 := ret.Error(0)
	return r0
}

// UpsertLegacyPrompt provides a mock function with given fields: ctx, tx, p
func (_m *MockTemplateRepository) UpsertLegacyPrompt(ctx context.Context, tx interfaces.DBTX, p *models.LegacyPrompt) error {
	ret := _m.Called(ctx, tx, p)
	r0 := ret.Error(0)
	return r0
}

// GetLegacyPrompt provides a mock function with given fields: ctx, querier, accountID, category
func (_m *MockTemplateRepository) GetLegacyPrompt(ctx context.Context, querier interfaces.DBTX, accountID string, category models.PromptCategory) (*models.LegacyPrompt, error) {
	ret := _m.Called(ctx, querier, accountID, category)
	var r0 *models.LegacyPrompt
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.LegacyPrompt)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockTemplateRepository creates a new instance of MockTemplateRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTemplateRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTemplateRepository {
	m := &MockTemplateRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.TemplateRepository = (*MockTemplateRepository)(nil)

// MockGenerationLogRepository is a mock type for the GenerationLogRepository type
type MockGenerationLogRepository struct {
	mock.Mock
}

// Insert provides a mock function with given fields: ctx, querier, l
func (_m *MockGenerationLogRepository) Insert(ctx context.Context, querier interfaces.DBTX, l *models.GenerationLog) error {
	ret := _m.Called(ctx, querier, l)
	r0 := ret.Error(0)
	return r0
}

// AttachContent provides a mock function with given fields: ctx, querier, accountID, logID, contentID
func (_m *MockGenerationLogRepository) AttachContent(ctx context.Context, querier interfaces.DBTX, accountID string, logID string, contentID string) error {
	ret := _m.Called(ctx, querier, accountID, logID, contentID)
	r0 := ret.Error(0)
	return r0
}

// ListByTemplate provides a mock function with given fields: ctx, querier, accountID, templateID, limit
func (_m *MockGenerationLogRepository) ListByTemplate(ctx context.Context, querier interfaces.DBTX, accountID string, templateID string, limit int) ([]models.GenerationLog, error) {
	ret := _m.Called(ctx, querier, accountID, templateID, limit)
	var r0 []models.GenerationLog
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.GenerationLog)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// StatsByTemplate provides a mock function with given fields: ctx, querier, accountID, templateID
func (_m *MockGenerationLogRepository) StatsByTemplate(ctx context.Context, querier interfaces.DBTX, accountID string, templateID string) ([]models.VersionStats, error) {
	ret := _m.Called(ctx, querier, accountID, templateID)
	var r0 []models.VersionStats
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.VersionStats)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockGenerationLogRepository creates a new instance of MockGenerationLogRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerationLogRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerationLogRepository {
	m := &MockGenerationLogRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.GenerationLogRepository = (*MockGenerationLogRepository)(nil)

// MockWorkflowRepository is a mock type for the WorkflowRepository type
type MockWorkflowRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, querier, wf
func (_m *MockWorkflowRepository) Create(ctx context.Context, querier interfaces.DBTX, wf *models.Workflow) error {
	ret := _m.Called(ctx, querier, wf)
	r0 := ret.Error(0)
	return r0
}

// Get provides a mock function with given fields: ctx, querier, accountID, workflowID
func (_m *MockWorkflowRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string, workflowID string) (*models.Workflow, error) {
	ret := _m.Called(ctx, querier, accountID, workflowID)
	var r0 *models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// List provides a mock function with given fields: ctx, querier, accountID
func (_m *MockWorkflowRepository) List(ctx context.Context, querier interfaces.DBTX, accountID string) ([]models.Workflow, error) {
	ret := _m.Called(ctx, querier, accountID)
	var r0 []models.Workflow
	if v := ret.Get(0); v != nil {
		r0 = v.([]models.Workflow)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// ReplaceSteps provides a mock function with given fields: ctx, tx, workflowID, steps
func (_m *MockWorkflowRepository) ReplaceSteps(ctx context.Context, tx interfaces.DBTX, workflowID string, steps []models.WorkflowStep) error {
	ret := _m.Called(ctx, tx, workflowID, steps)
	r0 := ret.Error(0)
	return r0
}

// NewMockWorkflowRepository creates a new instance of MockWorkflowRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockWorkflowRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockWorkflowRepository {
	m := &MockWorkflowRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.WorkflowRepository = (*MockWorkflowRepository)(nil)

// MockGenerationDefaultsRepository is a mock type for the GenerationDefaultsRepository type
type MockGenerationDefaultsRepository struct {
	mock.Mock
}

// Get provides a mock function with given fields: ctx, querier, accountID
func (_m *MockGenerationDefaultsRepository) Get(ctx context.Context, querier interfaces.DBTX, accountID string) (*models.GenerationDefaults, error) {
	ret := _m.Called(ctx, querier, accountID)
	var r0 *models.GenerationDefaults
	if v := ret.Get(0); v != nil {
		r0 = v.(*models.GenerationDefaults)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// Upsert provides a mock function with given fields: ctx, querier, d
func (_m *MockGenerationDefaultsRepository) Upsert(ctx context.Context, querier interfaces.DBTX, d *models.GenerationDefaults) error {
	ret := _m.Called(ctx, querier, d)
	r0 := ret.Error(0)
	return r0
}

// NewMockGenerationDefaultsRepository creates a new instance of MockGenerationDefaultsRepository. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerationDefaultsRepository(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerationDefaultsRepository {
	m := &MockGenerationDefaultsRepository{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.GenerationDefaultsRepository = (*MockGenerationDefaultsRepository)(nil)
