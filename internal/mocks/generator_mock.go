package mocks

import (
	"context"

	"story-server/internal/ai"
	"story-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockGenerator is a mock type for the Generator type
type MockGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, sel, messages
func (_m *MockGenerator) Generate(ctx context.Context, sel *ai.Selector, messages []ai.Message) (ai.Generation, error) {
	ret := _m.Called(ctx, sel, messages)

	var r0 ai.Generation
	if rf, ok := ret.Get(0).(func(context.Context, *ai.Selector, []ai.Message) ai.Generation); ok {
		r0 = rf(ctx, sel, messages)
	} else {
		r0 = ret.Get(0).(ai.Generation)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, *ai.Selector, []ai.Message) error); ok {
		r1 = rf(ctx, sel, messages)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockGenerator creates a new instance of MockGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockGenerator {
	m := &MockGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.Generator = (*MockGenerator)(nil)

// MockAIClient is a mock type for the AIClient type
type MockAIClient struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, messages
func (_m *MockAIClient) Generate(ctx context.Context, messages []ai.Message) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, messages)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, []ai.Message) string); ok {
		r0 = rf(ctx, messages)
	} else {
		r0 = ret.String(0)
	}

	var r1 ai.UsageInfo
	if rf, ok := ret.Get(1).(func(context.Context, []ai.Message) ai.UsageInfo); ok {
		r1 = rf(ctx, messages)
	} else if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	var r2 error
	if rf, ok := ret.Get(2).(func(context.Context, []ai.Message) error); ok {
		r2 = rf(ctx, messages)
	} else {
		r2 = ret.Error(2)
	}

	return r0, r1, r2
}

var _ ai.AIClient = (*MockAIClient)(nil)
