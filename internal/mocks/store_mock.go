package mocks

import (
	"context"

	"story-server/internal/messaging"
	"story-server/internal/models"
	"story-server/internal/preferences"

	"github.com/stretchr/testify/mock"
)

// MockPreferenceStore is a mock type for the Store type
type MockPreferenceStore struct {
	mock.Mock
}

// List provides a mock function with given fields: ctx, email
func (_m *MockPreferenceStore) List(ctx context.Context, email string) ([]models.UserPreference, error) {
	ret := _m.Called(ctx, email)

	var r0 []models.UserPreference
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.UserPreference)
	}
	return r0, ret.Error(1)
}

// Set provides a mock function with given fields: ctx, email, name, value
func (_m *MockPreferenceStore) Set(ctx context.Context, email, name, value string) ([]models.UserPreference, error) {
	ret := _m.Called(ctx, email, name, value)

	var r0 []models.UserPreference
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.UserPreference)
	}
	return r0, ret.Error(1)
}

// SetMany provides a mock function with given fields: ctx, email, values
func (_m *MockPreferenceStore) SetMany(ctx context.Context, email string, values map[string]string) ([]models.UserPreference, error) {
	ret := _m.Called(ctx, email, values)

	var r0 []models.UserPreference
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]models.UserPreference)
	}
	return r0, ret.Error(1)
}

var _ preferences.Store = (*MockPreferenceStore)(nil)

// MockStoryEventPublisher is a mock type for the StoryEventPublisher type
type MockStoryEventPublisher struct {
	mock.Mock
}

// Publish provides a mock function with given fields: ctx, event
func (_m *MockStoryEventPublisher) Publish(ctx context.Context, event messaging.StoryEvent) error {
	ret := _m.Called(ctx, event)

	if rf, ok := ret.Get(0).(func(context.Context, messaging.StoryEvent) error); ok {
		return rf(ctx, event)
	}
	return ret.Error(0)
}

var _ messaging.StoryEventPublisher = (*MockStoryEventPublisher)(nil)
