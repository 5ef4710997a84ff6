package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/llm"
	"github.com/Rrens/gemini-cli/internal/ui"
	"github.com/rs/zerolog/log"
)

// State is a position in the conversation turn loop
type State int

const (
	StateAwaitingInput State = iota
	StateSendingPrompt
	StateAwaitingResponse
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateAwaitingInput:
		return "awaiting_input"
	case StateSendingPrompt:
		return "sending_prompt"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Command is a reserved input handled locally
type Command int

const (
	CommandNone Command = iota
	CommandQuit
	CommandClear
	CommandSave
	CommandSummary
	CommandHistory
	CommandSearch
)

const searchPrefix = "/search "

// ParseCommand classifies a raw input line. For CommandSearch the query is
// returned as typed after the prefix.
func ParseCommand(line string) (Command, string) {
	trimmed := strings.TrimSpace(line)
	lower := strings.ToLower(trimmed)

	switch lower {
	case "quit", "exit", "q":
		return CommandQuit, ""
	case "clear":
		return CommandClear, ""
	case "save":
		return CommandSave, ""
	case "summary":
		return CommandSummary, ""
	case "history":
		return CommandHistory, ""
	case strings.TrimSpace(searchPrefix):
		return CommandSearch, ""
	}
	if strings.HasPrefix(lower, searchPrefix) {
		return CommandSearch, strings.TrimSpace(trimmed[len(searchPrefix):])
	}
	return CommandNone, ""
}

// ConversationOptions configures a Conversation
type ConversationOptions struct {
	Model string
	// UseContext prefixes each prompt with the context window
	UseContext bool
	// SummaryInterval triggers automatic summarization every N turns
	SummaryInterval int
	// SearchLimit bounds /search output
	SearchLimit int
}

// Conversation drives one interactive session
type Conversation struct {
	sessions   *SessionService
	summarizer *Summarizer
	provider   llm.Provider
	session    *domain.Session
	opts       ConversationOptions
	out        io.Writer

	state State
	turns int
}

// NewConversation creates a driver for session. Output goes to out.
func NewConversation(sessions *SessionService, summarizer *Summarizer, provider llm.Provider, session *domain.Session, opts ConversationOptions, out io.Writer) *Conversation {
	if opts.SummaryInterval <= 0 {
		opts.SummaryInterval = 10
	}
	if opts.SearchLimit <= 0 {
		opts.SearchLimit = 10
	}
	if opts.Model == "" {
		opts.Model = provider.DefaultModel()
	}
	return &Conversation{
		sessions:   sessions,
		summarizer: summarizer,
		provider:   provider,
		session:    session,
		opts:       opts,
		out:        out,
		state:      StateAwaitingInput,
	}
}

// State returns the current state
func (c *Conversation) State() State {
	return c.state
}

// Turns returns the number of completed exchanges in this run
func (c *Conversation) Turns() int {
	return c.turns
}

// Session returns the active session
func (c *Conversation) Session() *domain.Session {
	return c.session
}

// Run reads lines from in until quit, EOF or ctx cancellation. Every
// completed turn is already persisted, so termination needs no flush.
func (c *Conversation) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for c.state != StateTerminated {
		fmt.Fprint(c.out, "\n"+ui.UserPrompt())

		select {
		case <-ctx.Done():
			c.state = StateTerminated
			fmt.Fprintln(c.out, "\n"+ui.Warn("Chat interrupted, session saved."))
			return nil
		case err := <-readErr:
			c.state = StateTerminated
			fmt.Fprintln(c.out)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			return nil
		case line := <-lines:
			c.Step(ctx, line)
		}
	}
	return nil
}

// Step handles one input line and returns the resulting state. Recoverable
// errors are reported to the user and never terminate the loop.
func (c *Conversation) Step(ctx context.Context, line string) State {
	if c.state == StateTerminated {
		return c.state
	}

	cmd, arg := ParseCommand(line)
	switch cmd {
	case CommandQuit:
		fmt.Fprintln(c.out, ui.Warn("Goodbye! Session saved."))
		c.state = StateTerminated
		return c.state
	case CommandClear:
		fmt.Fprint(c.out, "\033[H\033[2J")
	case CommandSave:
		c.save(ctx)
	case CommandSummary:
		c.summarize(ctx, SummaryInteractive)
	case CommandHistory:
		ui.WriteHistory(c.out, c.sessions.History(c.session), 100)
	case CommandSearch:
		c.search(ctx, arg)
	case CommandNone:
		if strings.TrimSpace(line) != "" {
			c.send(ctx, line)
		}
	}

	c.state = StateAwaitingInput
	return c.state
}

func (c *Conversation) send(ctx context.Context, input string) {
	c.state = StateSendingPrompt
	fmt.Fprint(c.out, ui.ModelPrompt(c.provider.Name()))

	c.state = StateAwaitingResponse
	resp, err := c.sessions.Exchange(ctx, c.provider, c.opts.Model, c.session, input, c.opts.UseContext)
	if err != nil {
		if resp != nil {
			// The reply arrived but could not be persisted
			fmt.Fprintln(c.out, resp.Text)
		}
		log.Error().Err(err).Str("session_id", c.session.ID).Msg("failed to send message")
		fmt.Fprintln(c.out, ui.Error("Failed to send message: "+err.Error()))
		return
	}
	fmt.Fprintln(c.out, resp.Text)

	c.turns++
	if c.turns%c.opts.SummaryInterval == 0 {
		fmt.Fprintln(c.out, ui.Info("Updating context summary..."))
		c.summarize(ctx, SummaryAutomatic)
	}
}

func (c *Conversation) summarize(ctx context.Context, mode SummaryMode) {
	if c.summarizer == nil {
		return
	}
	if mode == SummaryInteractive {
		if !c.summarizer.Ready(c.session) {
			fmt.Fprintln(c.out, ui.Warn("Too few messages to generate a summary"))
			return
		}
		fmt.Fprintln(c.out, ui.Warn("Generating context summary..."))
	}

	summary, err := c.summarizer.Summarize(ctx, c.session, mode)
	if mode == SummaryAutomatic {
		return
	}
	switch {
	case errors.Is(err, domain.ErrTooFewMessages):
		fmt.Fprintln(c.out, ui.Warn("Too few messages to generate a summary"))
	case err != nil:
		fmt.Fprintln(c.out, ui.Error("Failed to generate summary: "+err.Error()))
	default:
		fmt.Fprintln(c.out, ui.Info("Context summary: "+summary))
	}
}

func (c *Conversation) save(ctx context.Context) {
	if err := c.sessions.Save(ctx, c.session); err != nil {
		fmt.Fprintln(c.out, ui.Error("Failed to save session: "+err.Error()))
		return
	}
	fmt.Fprintln(c.out, ui.Success("Session saved"))
}

func (c *Conversation) search(ctx context.Context, query string) {
	hits, err := c.sessions.Search(ctx, query)
	if err != nil {
		fmt.Fprintln(c.out, ui.Error("Search failed: "+err.Error()))
		return
	}
	ui.WriteSearchHits(c.out, query, hits, c.opts.SearchLimit)
}
