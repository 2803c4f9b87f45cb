package mocks

import (
	"context"

	"story-server/internal/models"
	"story-server/internal/repository"

	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock type for the UserRepository type
type MockUserRepository struct {
	mock.Mock
}

// GetUser provides a mock function with given fields: ctx, email
func (_m *MockUserRepository) GetUser(ctx context.Context, email string) (*models.User, error) {
	ret := _m.Called(ctx, email)

	var r0 *models.User
	if rf, ok := ret.Get(0).(func(context.Context, string) *models.User); ok {
		r0 = rf(ctx, email)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.User)
	}

	return r0, ret.Error(1)
}

// SaveUser provides a mock function with given fields: ctx, user
func (_m *MockUserRepository) SaveUser(ctx context.Context, user *models.User) error {
	ret := _m.Called(ctx, user)

	if rf, ok := ret.Get(0).(func(context.Context, *models.User) error); ok {
		return rf(ctx, user)
	}
	return ret.Error(0)
}

// GetAllUsers provides a mock function with given fields: ctx
func (_m *MockUserRepository) GetAllUsers(ctx context.Context) ([]*models.User, error) {
	ret := _m.Called(ctx)

	var r0 []*models.User
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.User)
	}
	return r0, ret.Error(1)
}

var _ repository.UserRepository = (*MockUserRepository)(nil)

// MockSharedStoryRepository is a mock type for the SharedStoryRepository type
type MockSharedStoryRepository struct {
	mock.Mock
}

// GetSharedStory provides a mock function with given fields: ctx, id
func (_m *MockSharedStoryRepository) GetSharedStory(ctx context.Context, id string) (*models.SharedStory, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.SharedStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.SharedStory)
	}
	return r0, ret.Error(1)
}

// SaveSharedStory provides a mock function with given fields: ctx, shared
func (_m *MockSharedStoryRepository) SaveSharedStory(ctx context.Context, shared *models.SharedStory) error {
	ret := _m.Called(ctx, shared)
	return ret.Error(0)
}

var _ repository.SharedStoryRepository = (*MockSharedStoryRepository)(nil)
