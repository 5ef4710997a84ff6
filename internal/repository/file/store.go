// Package file stores each session as a self-contained JSON document on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/rs/zerolog/log"
)

const recordExt = ".json"

// SessionRepository implements domain.SessionRepository with one file per session
type SessionRepository struct {
	dir   string
	newID func() string
	now   func() time.Time
}

// NewSessionRepository creates a repository rooted at dir, creating it if needed
func NewSessionRepository(dir string) (*SessionRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create sessions directory: %v", domain.ErrStorage, err)
	}
	return &SessionRepository{
		dir:   dir,
		newID: domain.NewSessionID,
		now:   time.Now,
	}, nil
}

func (r *SessionRepository) path(id string) string {
	return filepath.Join(r.dir, id+recordExt)
}

func (r *SessionRepository) Create(ctx context.Context, name string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	id, err := r.allocateID()
	if err != nil {
		return nil, err
	}

	now := r.now()
	if name == "" {
		name = domain.DefaultSessionName(now)
	}

	session := &domain.Session{
		ID:        id,
		Name:      name,
		CreatedAt: now,
		Messages:  []domain.Message{},
	}
	if err := r.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Debug().Str("session_id", id).Str("name", name).Msg("session created")
	return session, nil
}

// allocateID draws ids until one is not taken by an existing record
func (r *SessionRepository) allocateID() (string, error) {
	for range maxIDAttempts {
		id := r.newID()
		_, err := os.Stat(r.path(id))
		if errors.Is(err, os.ErrNotExist) {
			return id, nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: stat session: %v", domain.ErrStorage, err)
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique session id", domain.ErrStorage)
}

const maxIDAttempts = 16

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !domain.ValidSessionID(id) {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}

	data, err := os.ReadFile(r.path(id))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		// Unreadable records are reported as missing
		log.Warn().Err(err).Str("session_id", id).Msg("failed to read session record")
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrNotFound, id, err)
	}

	session, err := domain.DecodeSession(data)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("corrupt session record")
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return session, nil
}

// Save overwrites the record, writing to a temporary file first so a crash
// mid-write leaves the previous record intact.
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := domain.EncodeSession(session)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	if err := writeFileAtomic(r.path(session.ID), data); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	return nil
}

func (r *SessionRepository) AppendMessage(ctx context.Context, session *domain.Session, role domain.MessageRole, content string, tokens int) (*domain.Message, error) {
	return domain.AppendAndSave(ctx, r, session, role, content, tokens)
}

func (r *SessionRepository) UpdateSummary(ctx context.Context, session *domain.Session, summary string) error {
	return domain.UpdateSummaryAndSave(ctx, r, session, summary)
}

func (r *SessionRepository) ListAll(ctx context.Context) ([]domain.SessionSummary, error) {
	var summaries []domain.SessionSummary
	err := r.scan(ctx, func(s *domain.Session) {
		summaries = append(summaries, s.Summary())
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

func (r *SessionRepository) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, nil
	}

	var hits []domain.SearchHit
	err := r.scan(ctx, func(s *domain.Session) {
		hits = append(hits, domain.MatchMessages(s, query)...)
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

// scan decodes every record in directory order, skipping unparsable ones
func (r *SessionRepository) scan(ctx context.Context, fn func(*domain.Session)) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: list sessions: %v", domain.ErrStorage, err)
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(r.dir, entry.Name()))
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("skipping unreadable session record")
			continue
		}
		session, err := domain.DecodeSession(data)
		if err != nil {
			log.Debug().Err(err).Str("file", entry.Name()).Msg("skipping corrupt session record")
			continue
		}
		fn(session)
	}
	return nil
}
