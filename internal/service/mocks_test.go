package service

import (
	"context"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/stretchr/testify/mock"
)

// MockLLMProvider mocks llm.Provider
type MockLLMProvider struct {
	mock.Mock
}

func (m *MockLLMProvider) Name() string {
	return "mock"
}

func (m *MockLLMProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockLLMProvider) IsConfigured() bool {
	return true
}

func (m *MockLLMProvider) ListModels(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockLLMProvider) Generate(ctx context.Context, prompt string, model string) (*llm.Response, error) {
	args := m.Called(ctx, prompt, model)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

// MockSessionRepository mocks domain.SessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) Create(ctx context.Context, name string) (*domain.Session, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Session), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) AppendMessage(ctx context.Context, session *domain.Session, role domain.MessageRole, content string, tokens int) (*domain.Message, error) {
	args := m.Called(ctx, session, role, content, tokens)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Message), args.Error(1)
}

func (m *MockSessionRepository) UpdateSummary(ctx context.Context, session *domain.Session, summary string) error {
	args := m.Called(ctx, session, summary)
	return args.Error(0)
}

func (m *MockSessionRepository) ListAll(ctx context.Context) ([]domain.SessionSummary, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SessionSummary), args.Error(1)
}

func (m *MockSessionRepository) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.SearchHit), args.Error(1)
}
