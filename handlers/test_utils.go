package handlers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"clinical-note-cleaner/models"
	"clinical-note-cleaner/services"
	"clinical-note-cleaner/substitution"
)

// MockCleaningService for testing handlers
type MockCleaningService struct {
	mock.Mock
}

func (m *MockCleaningService) Clean(ctx context.Context, upload models.Upload) (*services.CleaningResult, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CleaningResult), args.Error(1)
}

func (m *MockCleaningService) CleanText(ctx context.Context, text string) (*models.CleanTextResponse, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CleanTextResponse), args.Error(1)
}

// MockJobStore for testing handlers
type MockJobStore struct {
	mock.Mock
}

func (m *MockJobStore) Save(ctx context.Context, job *models.JobRecord) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *MockJobStore) Get(ctx context.Context, id string) (*models.JobRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.JobRecord), args.Error(1)
}

func (m *MockJobStore) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockJobStore) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockJobStore) Close() error { return nil }

// MockDictionaryProvider for testing handlers
type MockDictionaryProvider struct {
	mock.Mock
}

func (m *MockDictionaryProvider) Current() *substitution.Dictionary {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*substitution.Dictionary)
}

func (m *MockDictionaryProvider) Reload(ctx context.Context) (*substitution.Dictionary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*substitution.Dictionary), args.Error(1)
}

func (m *MockDictionaryProvider) Source() string {
	return m.Called().String(0)
}
