package service

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/Rrens/gemini-cli/internal/domain"
	"github.com/Rrens/gemini-cli/internal/repository/file"
	"github.com/stretchr/testify/require"
)

const testTimeout = 5 * time.Second

func newTestStore(t *testing.T) *file.SessionRepository {
	t.Helper()
	repo, err := file.NewSessionRepository(filepath.Join(t.TempDir(), "sessions"))
	require.NoError(t, err)
	return repo
}

func newTestSession(t *testing.T, repo domain.SessionRepository, messages int) *domain.Session {
	t.Helper()
	ctx := context.Background()

	s, err := repo.Create(ctx, "test")
	require.NoError(t, err)
	for i := 0; i < messages; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, err := repo.AppendMessage(ctx, s, role, fmt.Sprintf("message %d", i), 0)
		require.NoError(t, err)
	}
	return s
}

// failingStore passes through to a real store but fails every Save from
// the failAt-th call on
type failingStore struct {
	domain.SessionRepository
	failAt int
	saves  int
}

func (f *failingStore) Save(ctx context.Context, s *domain.Session) error {
	f.saves++
	if f.saves >= f.failAt {
		return fmt.Errorf("%w: disk full", domain.ErrStorage)
	}
	return f.SessionRepository.Save(ctx, s)
}
