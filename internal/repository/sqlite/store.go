// Package sqlite keeps session records in a single SQLite database file.
// Each row holds the same self-contained JSON document the file backend
// writes, so records stay forward-readable across backends.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	created_at INTEGER NOT NULL,
	record     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sessions_created_at ON sessions (created_at DESC);
`

// SessionRepository implements domain.SessionRepository on SQLite
type SessionRepository struct {
	db    *sql.DB
	newID func() string
	now   func() time.Time
}

// Open opens (creating if needed) the database at path and ensures the schema
func Open(ctx context.Context, path string) (*SessionRepository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", domain.ErrStorage, err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: ping database: %v", domain.ErrStorage, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: create schema: %v", domain.ErrStorage, err)
	}

	return &SessionRepository{
		db:    db,
		newID: domain.NewSessionID,
		now:   time.Now,
	}, nil
}

// Close closes the database
func (r *SessionRepository) Close() error {
	return r.db.Close()
}

func (r *SessionRepository) Create(ctx context.Context, name string) (*domain.Session, error) {
	now := r.now()
	if name == "" {
		name = domain.DefaultSessionName(now)
	}

	session := &domain.Session{
		Name:      name,
		CreatedAt: now,
		Messages:  []domain.Message{},
	}

	for range maxIDAttempts {
		session.ID = r.newID()

		data, err := domain.EncodeSession(session)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
		}

		res, err := r.db.ExecContext(ctx,
			`INSERT INTO sessions (id, created_at, record) VALUES (?, ?, ?) ON CONFLICT (id) DO NOTHING`,
			session.ID, session.CreatedAt.UnixNano(), data,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to create session: %v", domain.ErrStorage, err)
		}
		if n, _ := res.RowsAffected(); n == 1 {
			log.Debug().Str("session_id", session.ID).Str("name", name).Msg("session created")
			return session, nil
		}
	}
	return nil, fmt.Errorf("%w: could not allocate a unique session id", domain.ErrStorage)
}

const maxIDAttempts = 16

func (r *SessionRepository) Load(ctx context.Context, id string) (*domain.Session, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT record FROM sessions WHERE id = ?`, id).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: failed to get session: %v", domain.ErrStorage, err)
	}

	session, err := domain.DecodeSession(data)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("corrupt session record")
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	return session, nil
}

// Save upserts the full record in a single statement
func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	data, err := domain.EncodeSession(session)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO sessions (id, created_at, record) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET record = excluded.record
	`, session.ID, session.CreatedAt.UnixNano(), data)
	if err != nil {
		return fmt.Errorf("%w: failed to save session: %v", domain.ErrStorage, err)
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
	err := r.scan(ctx, `SELECT id, record FROM sessions ORDER BY created_at DESC`, func(s *domain.Session) {
		summaries = append(summaries, s.Summary())
	})
	if err != nil {
		return nil, err
	}
	return summaries, nil
}

func (r *SessionRepository) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, nil
	}

	var hits []domain.SearchHit
	err := r.scan(ctx, `SELECT id, record FROM sessions`, func(s *domain.Session) {
		hits = append(hits, domain.MatchMessages(s, query)...)
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

func (r *SessionRepository) scan(ctx context.Context, query string, fn func(*domain.Session)) error {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%w: failed to list sessions: %v", domain.ErrStorage, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   string
			data []byte
		)
		if err := rows.Scan(&id, &data); err != nil {
			return fmt.Errorf("%w: failed to scan session: %v", domain.ErrStorage, err)
		}
		session, err := domain.DecodeSession(data)
		if err != nil {
			log.Debug().Err(err).Str("session_id", id).Msg("skipping corrupt session record")
			continue
		}
		fn(session)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("%w: failed to iterate sessions: %v", domain.ErrStorage, err)
	}
	return nil
}
