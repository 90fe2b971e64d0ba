package accounts

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps accounts in process memory. It is used when no
// database is configured and in tests.
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]*models.Account
	now      func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts: make(map[string]*models.Account),
		now:      time.Now,
	}
}

func (r *MemoryRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	username := strings.ToLower(identifier)
	for _, a := range r.accounts {
		if a.Username == username || a.Email == identifier {
			return a.Clone(), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return a.Clone(), nil
}

func (r *MemoryRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.existsLocked(strings.ToLower(username), email), nil
}

func (r *MemoryRepository) existsLocked(username, email string) bool {
	for _, a := range r.accounts {
		if a.Username == username || a.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := a.Clone()
	created.Username = strings.ToLower(a.Username)
	if r.existsLocked(created.Username, created.Email) {
		return nil, common.ErrorAlreadyExists
	}

	created.ID = uuid.NewString()
	created.RefreshToken = nil
	created.CreatedAt = r.now().UTC()
	created.UpdatedAt = created.CreatedAt

	r.accounts[created.ID] = created
	return created.Clone(), nil
}

func (r *MemoryRepository) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	if token == nil {
		a.RefreshToken = nil
	} else {
		t := *token
		a.RefreshToken = &t
	}
	a.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) RotateRefreshToken(ctx context.Context, id, expected, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok || a.RefreshToken == nil || *a.RefreshToken != expected {
		return common.ErrVersionConflict
	}
	a.RefreshToken = &next
	a.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.accounts[id]
	if !ok {
		return common.ErrorNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = r.now().UTC()
	return nil
}
