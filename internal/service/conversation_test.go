package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type conversationFixture struct {
	repo     domain.SessionRepository
	provider *MockLLMProvider
	session  *domain.Session
	out      *bytes.Buffer
	conv     *Conversation
}

func newConversationFixture(t *testing.T, messages int) *conversationFixture {
	t.Helper()
	repo := newTestStore(t)
	provider := new(MockLLMProvider)
	sessions := NewSessionService(repo, DefaultContextSettings, testTimeout)
	summarizer := NewSummarizer(repo, provider, "", DefaultSummarizerSettings, testTimeout)
	session := newTestSession(t, repo, messages)
	out := &bytes.Buffer{}

	conv := NewConversation(sessions, summarizer, provider, session, ConversationOptions{UseContext: true}, out)
	return &conversationFixture{repo: repo, provider: provider, session: session, out: out, conv: conv}
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line  string
		cmd   Command
		query string
	}{
		{"quit", CommandQuit, ""},
		{"EXIT", CommandQuit, ""},
		{" q ", CommandQuit, ""},
		{"clear", CommandClear, ""},
		{"save", CommandSave, ""},
		{"Summary", CommandSummary, ""},
		{"history", CommandHistory, ""},
		{"/search Quick Fox", CommandSearch, "Quick Fox"},
		{"/SEARCH fox", CommandSearch, "fox"},
		{"/search", CommandSearch, ""},
		{"history please", CommandNone, ""},
		{"tell me about quitting", CommandNone, ""},
		{"", CommandNone, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, query := ParseCommand(tt.line)
			assert.Equal(t, tt.cmd, cmd)
			assert.Equal(t, tt.query, query)
		})
	}
}

func TestConversation_HistoryIsLocal(t *testing.T) {
	f := newConversationFixture(t, 4)

	state := f.conv.Step(context.Background(), "history")

	assert.Equal(t, StateAwaitingInput, state)
	assert.Len(t, f.session.Messages, 4)
	assert.Contains(t, f.out.String(), "Last 4 messages")
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversation_LocalCommandsNeverCallRemote(t *testing.T) {
	f := newConversationFixture(t, 2)
	ctx := context.Background()

	for _, line := range []string{"save", "clear", "/search message", "summary", "", "   "} {
		assert.Equal(t, StateAwaitingInput, f.conv.Step(ctx, line), line)
	}

	assert.Len(t, f.session.Messages, 2)
	assert.Contains(t, f.out.String(), "Session saved")
	assert.Contains(t, f.out.String(), "Search results: 'message' (2)")
	assert.Contains(t, f.out.String(), "Too few messages")
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversation_Quit(t *testing.T) {
	f := newConversationFixture(t, 0)

	assert.Equal(t, StateTerminated, f.conv.Step(context.Background(), "exit"))
	// Further input is ignored once terminated
	assert.Equal(t, StateTerminated, f.conv.Step(context.Background(), "hello"))
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversation_SendWithContext(t *testing.T) {
	f := newConversationFixture(t, 0)
	ctx := context.Background()

	f.provider.On("Generate", mock.Anything, "hello", "mock-model").
		Return(&llm.Response{Text: "hi there"}, nil).Once()
	f.provider.On("Generate", mock.Anything, "Recent conversation\nUser: hello\nAI: hi there\n\nCurrent question: and then?", "mock-model").
		Return(&llm.Response{Text: "then this"}, nil).Once()

	assert.Equal(t, StateAwaitingInput, f.conv.Step(ctx, "hello"))
	assert.Equal(t, StateAwaitingInput, f.conv.Step(ctx, "and then?"))

	require.Len(t, f.session.Messages, 4)
	assert.Equal(t, "and then?", f.session.Messages[2].Content)
	assert.Equal(t, "then this", f.session.Messages[3].Content)
	assert.Equal(t, 2, f.conv.Turns())
	assert.Contains(t, f.out.String(), "then this")
	f.provider.AssertExpectations(t)
}

func TestConversation_RemoteFailureContinues(t *testing.T) {
	f := newConversationFixture(t, 2)

	f.provider.On("Generate", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("deadline exceeded"))

	state := f.conv.Step(context.Background(), "hello")

	assert.Equal(t, StateAwaitingInput, state)
	assert.Len(t, f.session.Messages, 2)
	assert.Zero(t, f.conv.Turns())
	assert.Contains(t, f.out.String(), "Failed to send message")
}

func TestConversation_AutoSummaryEveryTenTurns(t *testing.T) {
	f := newConversationFixture(t, 0)
	ctx := context.Background()

	f.provider.On("Generate", mock.Anything, mock.MatchedBy(isSummaryPrompt), mock.Anything).
		Return(&llm.Response{Text: "auto summary"}, nil).Once()
	f.provider.On("Generate", mock.Anything, mock.MatchedBy(func(p string) bool { return !isSummaryPrompt(p) }), mock.Anything).
		Return(&llm.Response{Text: "reply"}, nil)

	for i := 0; i < 9; i++ {
		f.conv.Step(ctx, "turn")
	}
	assert.Empty(t, f.session.ContextSummary)

	f.conv.Step(ctx, "turn")
	assert.Equal(t, "auto summary", f.session.ContextSummary)
	assert.Len(t, f.session.Messages, 20)

	// The summary now rides along with the next prompt
	f.conv.Step(ctx, "turn")
	calls := f.provider.Calls
	lastPrompt := calls[len(calls)-1].Arguments.String(1)
	assert.True(t, strings.HasPrefix(lastPrompt, "Context summary: auto summary\n\nRecent conversation\n"), lastPrompt)

	loaded, err := f.repo.Load(ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, "auto summary", loaded.ContextSummary)
	f.provider.AssertNumberOfCalls(t, "Generate", 12)
}

func TestConversation_AutoSummaryFailureIsSilent(t *testing.T) {
	f := newConversationFixture(t, 0)
	ctx := context.Background()

	f.provider.On("Generate", mock.Anything, mock.MatchedBy(isSummaryPrompt), mock.Anything).
		Return(nil, errors.New("quota"))
	f.provider.On("Generate", mock.Anything, mock.Anything, mock.Anything).
		Return(&llm.Response{Text: "reply"}, nil)

	for i := 0; i < 10; i++ {
		assert.Equal(t, StateAwaitingInput, f.conv.Step(ctx, "turn"))
	}

	assert.Empty(t, f.session.ContextSummary)
	assert.NotContains(t, f.out.String(), "Failed to generate summary")
}

func TestConversation_InteractiveSummary(t *testing.T) {
	f := newConversationFixture(t, 6)

	f.provider.On("Generate", mock.Anything, mock.MatchedBy(isSummaryPrompt), mock.Anything).
		Return(&llm.Response{Text: "six messages"}, nil)

	f.conv.Step(context.Background(), "summary")

	assert.Equal(t, "six messages", f.session.ContextSummary)
	assert.Contains(t, f.out.String(), "Context summary: six messages")
	assert.Len(t, f.session.Messages, 6)
}

func TestConversation_RunUntilQuit(t *testing.T) {
	f := newConversationFixture(t, 1)

	err := f.conv.Run(context.Background(), strings.NewReader("history\nquit\nhello\n"))

	require.NoError(t, err)
	assert.Equal(t, StateTerminated, f.conv.State())
	assert.Contains(t, f.out.String(), "Goodbye")
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}

func TestConversation_RunUntilEOF(t *testing.T) {
	f := newConversationFixture(t, 0)
	f.provider.On("Generate", mock.Anything, "hello", mock.Anything).Return(&llm.Response{Text: "hi"}, nil)

	err := f.conv.Run(context.Background(), strings.NewReader("hello\n"))

	require.NoError(t, err)
	assert.Equal(t, StateTerminated, f.conv.State())
	assert.Len(t, f.session.Messages, 2)
}

func TestConversation_RunCancelled(t *testing.T) {
	f := newConversationFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A reader that never yields stands in for a terminal waiting on input
	blocking, release := newBlockingReader()
	t.Cleanup(release)
	err := f.conv.Run(ctx, blocking)

	require.NoError(t, err)
	assert.Equal(t, StateTerminated, f.conv.State())
	assert.Contains(t, f.out.String(), "interrupted")
}

type blockingReader struct {
	release chan struct{}
}

func newBlockingReader() (*blockingReader, func()) {
	r := &blockingReader{release: make(chan struct{})}
	return r, func() { close(r.release) }
}

func (r *blockingReader) Read(p []byte) (int, error) {
	<-r.release
	return 0, errors.New("closed")
}

func TestConversation_InteractiveSummaryTooShort(t *testing.T) {
	f := newConversationFixture(t, 3)

	assert.Equal(t, StateAwaitingInput, f.conv.Step(context.Background(), "summary"))

	assert.Contains(t, f.out.String(), "Too few messages")
	assert.NotContains(t, f.out.String(), "Generating context summary")
	assert.Empty(t, f.session.ContextSummary)
	f.provider.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything, mock.Anything)
}
