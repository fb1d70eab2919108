package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"content-pipeline/internal/provider"
	"content-pipeline/internal/service"
	"content-pipeline/shared/models"
)

// MockTextProvider is a mock type for the TextProvider type
type MockTextProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockTextProvider) Name() string {
	ret := _m.Called()
	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}
	return r0
}

// GenerateText provides a mock function with given fields: ctx, req
func (_m *MockTextProvider) GenerateText(ctx context.Context, req provider.TextRequest) (*provider.TextResult, error) {
	ret := _m.Called(ctx, req)
	var r0 *provider.TextResult
	if v := ret.Get(0); v != nil {
		r0 = v.(*provider.TextResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockTextProvider creates a new instance of MockTextProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTextProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextProvider {
	m := &MockTextProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ provider.TextProvider = (*MockTextProvider)(nil)

// MockImageProvider is a mock type for the ImageProvider type
type MockImageProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockImageProvider) Name() string {
	ret := _m.Called()
	var r0 string
	if v := ret.Get(0); v != nil {
		r0 = v.(string)
	}
	return r0
}

// GenerateImage provides a mock function with given fields: ctx, req
func (_m *MockImageProvider) GenerateImage(ctx context.Context, req provider.ImageRequest) ([]provider.ImageResult, error) {
	ret := _m.Called(ctx, req)
	var r0 []provider.ImageResult
	if v := ret.Get(0); v != nil {
		r0 = v.([]provider.ImageResult)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockImageProvider creates a new instance of MockImageProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageProvider {
	m := &MockImageProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ provider.ImageProvider = (*MockImageProvider)(nil)

// MockTextSelector is a mock type for the TextSelector type
type MockTextSelector struct {
	mock.Mock
}

// SelectText provides a mock function with given fields: category, model
func (_m *MockTextSelector) SelectText(category models.PromptCategory, model string) (provider.TextProvider, string) {
	ret := _m.Called(category, model)
	var r0 provider.TextProvider
	if v := ret.Get(0); v != nil {
		r0 = v.(provider.TextProvider)
	}
	var r1 string
	if v := ret.Get(1); v != nil {
		r1 = v.(string)
	}
	return r0, r1
}

// NewMockTextSelector creates a new instance of MockTextSelector. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTextSelector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextSelector {
	m := &MockTextSelector{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.TextSelector = (*MockTextSelector)(nil)

// MockImageSelector is a mock type for the ImageSelector type
type MockImageSelector struct {
	mock.Mock
}

// Image provides a mock function with given fields:
func (_m *MockImageSelector) Image() (provider.ImageProvider, error) {
	ret := _m.Called()
	var r0 provider.ImageProvider
	if v := ret.Get(0); v != nil {
		r0 = v.(provider.ImageProvider)
	}
	r1 := ret.Error(1)
	return r0, r1
}

// NewMockImageSelector creates a new instance of MockImageSelector. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageSelector(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageSelector {
	m := &MockImageSelector{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.ImageSelector = (*MockImageSelector)(nil)
