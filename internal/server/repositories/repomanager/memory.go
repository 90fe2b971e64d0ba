package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/vidtube/internal/server/repositories/accounts"
)

// MemoryRepositoryManager serves a single in-process account repository.
// WithinTx serialises callers; a failing fn does not undo earlier writes.
type MemoryRepositoryManager struct {
	mu   sync.Mutex
	repo *accounts.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{repo: accounts.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) Accounts() accounts.Repository { return m.repo }

func (m *MemoryRepositoryManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(ctx, m.repo)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryRepositoryManager) Close() error                        { return nil }
