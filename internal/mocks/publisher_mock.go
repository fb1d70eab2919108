package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"content-pipeline/shared/interfaces"
)

// MockJobEventPublisher is a mock type for the JobEventPublisher type
type MockJobEventPublisher struct {
	mock.Mock
}

// PublishJobEvent provides a mock function with given fields: ctx, event
func (_m *MockJobEventPublisher) PublishJobEvent(ctx context.Context, event interfaces.JobEvent) error {
	ret := _m.Called(ctx, event)
	r0 := ret.Error(0)
	return r0
}

// NewMockJobEventPublisher creates a new instance of MockJobEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockJobEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockJobEventPublisher {
	m := &MockJobEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.JobEventPublisher = (*MockJobEventPublisher)(nil)

// MockTemplateEventPublisher is a mock type for the TemplateEventPublisher type
type MockTemplateEventPublisher struct {
	mock.Mock
}

// PublishTemplateEvent provides a mock function with given fields: ctx, event
func (_m *MockTemplateEventPublisher) PublishTemplateEvent(ctx context.Context, event interfaces.TemplateEvent) error {
	ret := _m.Called(ctx, event)
	r0 := ret.Error(0)
	return r0
}

// NewMockTemplateEventPublisher creates a new instance of MockTemplateEventPublisher. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTemplateEventPublisher(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTemplateEventPublisher {
	m := &MockTemplateEventPublisher{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ interfaces.TemplateEventPublisher = (*MockTemplateEventPublisher)(nil)
