package domain

import "context"

// Saver persists the full state of a session
type Saver interface {
	Save(ctx context.Context, session *Session) error
}

// AppendAndSave appends a message, bumps the token counter and persists.
// If the save fails the in-memory session is rolled back.
func AppendAndSave(ctx context.Context, store Saver, session *Session, role MessageRole, content string, tokens int) (*Message, error) {
	msg, err := NewMessage(role, content, tokens)
	if err != nil {
		return nil, err
	}
	if err := AppendAllAndSave(ctx, store, session, msg); err != nil {
		return nil, err
	}
	return &session.Messages[len(session.Messages)-1], nil
}

// AppendAllAndSave appends msgs and persists them with a single save, so a
// turn is committed whole or not at all. On failure the in-memory session is
// rolled back.
func AppendAllAndSave(ctx context.Context, store Saver, session *Session, msgs ...Message) error {
	prevLen, prevTokens := len(session.Messages), session.TotalTokens
	for _, m := range msgs {
		session.Messages = append(session.Messages, m)
		session.TotalTokens += m.Tokens
	}

	if err := store.Save(ctx, session); err != nil {
		session.Messages = session.Messages[:prevLen]
		session.TotalTokens = prevTokens
		return err
	}
	return nil
}

// UpdateSummaryAndSave replaces the running summary and persists.
// If the save fails the previous summary is restored.
func UpdateSummaryAndSave(ctx context.Context, store Saver, session *Session, summary string) error {
	prev := session.ContextSummary
	session.ContextSummary = summary

	if err := store.Save(ctx, session); err != nil {
		session.ContextSummary = prev
		return err
	}
	return nil
}
