package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSessionService_Start(t *testing.T) {
	repo := newTestStore(t)
	svc := NewSessionService(repo, DefaultContextSettings, testTimeout)
	ctx := context.Background()

	t.Run("new", func(t *testing.T) {
		s, resumed, err := svc.Start(ctx, "", "fresh")
		require.NoError(t, err)
		assert.False(t, resumed)
		assert.Equal(t, "fresh", s.Name)
	})

	t.Run("resume", func(t *testing.T) {
		existing := newTestSession(t, repo, 2)

		s, resumed, err := svc.Start(ctx, existing.ID, "ignored")
		require.NoError(t, err)
		assert.True(t, resumed)
		assert.Equal(t, existing.ID, s.ID)
		assert.Len(t, s.Messages, 2)
	})

	t.Run("missing falls back to new", func(t *testing.T) {
		s, resumed, err := svc.Start(ctx, "gone0000", "fallback")
		require.NoError(t, err)
		assert.False(t, resumed)
		assert.NotEqual(t, "gone0000", s.ID)
		assert.Equal(t, "fallback", s.Name)
	})
}

func TestSessionService_StartStorageFailure(t *testing.T) {
	repo := new(MockSessionRepository)
	svc := NewSessionService(repo, DefaultContextSettings, testTimeout)
	ctx := context.Background()

	repo.On("Load", ctx, "abcd1234").Return(nil, domain.ErrStorage)

	_, _, err := svc.Start(ctx, "abcd1234", "")
	assert.ErrorIs(t, err, domain.ErrStorage)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestSessionService_BuildPrompt(t *testing.T) {
	repo := newTestStore(t)
	svc := NewSessionService(repo, DefaultContextSettings, testTimeout)

	s := newTestSession(t, repo, 8)
	s.ContextSummary = "earlier stuff"

	prompt := svc.BuildPrompt(s, "next?")
	assert.Contains(t, prompt, "Context summary: earlier stuff")
	assert.Contains(t, prompt, "AI: message 5")
	assert.Contains(t, prompt, "User: message 6")
	assert.Contains(t, prompt, "AI: message 7")
	assert.NotContains(t, prompt, "message 4")
	assert.True(t, len(prompt) > 0 && prompt[len(prompt)-len("Current question: next?"):] == "Current question: next?")
}

func TestSessionService_Exchange(t *testing.T) {
	repo := newTestStore(t)
	svc := NewSessionService(repo, DefaultContextSettings, testTimeout)
	ctx := context.Background()

	t.Run("success appends both turns", func(t *testing.T) {
		provider := new(MockLLMProvider)
		s := newTestSession(t, repo, 0)

		provider.On("Generate", mock.Anything, "hello", "mock-model").
			Return(&llm.Response{Text: "hi", PromptTokens: 3, CompletionTokens: 1}, nil).Once()

		resp, err := svc.Exchange(ctx, provider, "", s, "hello", true)
		require.NoError(t, err)
		assert.Equal(t, "hi", resp.Text)
		require.Len(t, s.Messages, 2)
		assert.Equal(t, domain.RoleUser, s.Messages[0].Role)
		assert.Equal(t, 3, s.Messages[0].Tokens)
		assert.Equal(t, domain.RoleAssistant, s.Messages[1].Role)
		assert.Equal(t, 4, s.TotalTokens)

		loaded, err := repo.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Messages, 2)
		provider.AssertExpectations(t)
	})

	t.Run("remote failure appends nothing", func(t *testing.T) {
		provider := new(MockLLMProvider)
		s := newTestSession(t, repo, 0)

		provider.On("Generate", mock.Anything, "hello", "mock-model").Return(nil, errors.New("boom"))

		_, err := svc.Exchange(ctx, provider, "", s, "hello", true)
		assert.ErrorIs(t, err, domain.ErrRemoteCall)
		assert.Empty(t, s.Messages)
	})

	t.Run("rate limit is not a remote failure", func(t *testing.T) {
		provider := new(MockLLMProvider)
		s := newTestSession(t, repo, 0)

		provider.On("Generate", mock.Anything, "hello", "mock-model").Return(nil, domain.ErrRateLimited)

		_, err := svc.Exchange(ctx, provider, "", s, "hello", false)
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.NotErrorIs(t, err, domain.ErrRemoteCall)
	})
}

func TestSessionService_History(t *testing.T) {
	repo := newTestStore(t)
	svc := NewSessionService(repo, DefaultContextSettings, testTimeout)

	s := newTestSession(t, repo, 14)
	history := svc.History(s)
	require.Len(t, history, 10)
	assert.Equal(t, "message 4", history[0].Content)
	assert.Equal(t, "message 13", history[9].Content)
}

func TestSessionService_ExchangeCommitsTurnWhole(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore(t)

	t.Run("both messages land in a single save", func(t *testing.T) {
		store := &failingStore{SessionRepository: repo, failAt: 2}
		svc := NewSessionService(store, DefaultContextSettings, testTimeout)
		s := newTestSession(t, repo, 0)

		provider := new(MockLLMProvider)
		provider.On("Generate", mock.Anything, "question", "mock-model").Return(&llm.Response{Text: "reply"}, nil)

		_, err := svc.Exchange(ctx, provider, "", s, "question", false)
		require.NoError(t, err)
		assert.Equal(t, 1, store.saves)

		loaded, err := repo.Load(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, loaded.Messages, 2)
		assert.Equal(t, "question", loaded.Messages[0].Content)
		assert.Equal(t, "reply", loaded.Messages[1].Content)
	})

	t.Run("failed save leaves no half turn", func(t *testing.T) {
		store := &failingStore{SessionRepository: repo, failAt: 1}
		svc := NewSessionService(store, DefaultContextSettings, testTimeout)
		s := newTestSession(t, repo, 2)

		provider := new(MockLLMProvider)
		provider.On("Generate", mock.Anything, "question", "mock-model").
			Return(&llm.Response{Text: "reply", PromptTokens: 4, CompletionTokens: 2}, nil)

		resp, err := svc.Exchange(ctx, provider, "", s, "question", false)
		assert.ErrorIs(t, err, domain.ErrStorage)
		require.NotNil(t, resp)
		assert.Equal(t, "reply", resp.Text)

		assert.Len(t, s.Messages, 2)
		assert.Zero(t, s.TotalTokens)

		loaded, err := repo.Load(ctx, s.ID)
		require.NoError(t, err)
		assert.Len(t, loaded.Messages, 2)
		assert.Equal(t, "message 1", loaded.Messages[1].Content)
	})
}
