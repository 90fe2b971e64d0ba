package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const alicePassword = "s3cretpass"

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type countingHasher struct {
	*auth.BcryptHasher
	mu      sync.Mutex
	dummies int
}

func (h *countingHasher) CompareDummy(password string) {
	h.mu.Lock()
	h.dummies++
	h.mu.Unlock()
	h.BcryptHasher.CompareDummy(password)
}

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) ObserveAuth(op, outcome string) {
	r.mu.Lock()
	r.events = append(r.events, op+":"+outcome)
	r.mu.Unlock()
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

// faultyRepo delegates to a real repository unless an error is configured.
type faultyRepo struct {
	accounts.Repository

	findByIdentifierErr error
	findByIDErr         error
	existsErr           error
	createErr           error
	updateTokenErr      error
	rotateErr           error
	updateHashErr       error
}

func (r *faultyRepo) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	if r.findByIdentifierErr != nil {
		return nil, r.findByIdentifierErr
	}
	return r.Repository.FindByIdentifier(ctx, identifier)
}

func (r *faultyRepo) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if r.findByIDErr != nil {
		return nil, r.findByIDErr
	}
	return r.Repository.FindByID(ctx, id)
}

func (r *faultyRepo) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if r.existsErr != nil {
		return false, r.existsErr
	}
	return r.Repository.ExistsByUsernameOrEmail(ctx, username, email)
}

func (r *faultyRepo) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	if r.createErr != nil {
		return nil, r.createErr
	}
	return r.Repository.Create(ctx, a)
}

func (r *faultyRepo) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	if r.updateTokenErr != nil {
		return r.updateTokenErr
	}
	return r.Repository.UpdateRefreshToken(ctx, id, token)
}

func (r *faultyRepo) RotateRefreshToken(ctx context.Context, id, expected, next string) error {
	if r.rotateErr != nil {
		return r.rotateErr
	}
	return r.Repository.RotateRefreshToken(ctx, id, expected, next)
}

func (r *faultyRepo) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if r.updateHashErr != nil {
		return r.updateHashErr
	}
	return r.Repository.UpdatePasswordHash(ctx, id, hash)
}

type faultyManager struct {
	*repomanager.MemoryRepositoryManager
	repo *faultyRepo
}

func (m *faultyManager) Accounts() accounts.Repository { return m.repo }

func (m *faultyManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error {
	return fn(ctx, m.repo)
}

type env struct {
	clock   *testClock
	codec   *auth.Codec
	hasher  *countingHasher
	manager *faultyManager
	repo    *faultyRepo
	metrics *recorder
	alice   *models.Account
}

func newEnv(t *testing.T) *env {
	t.Helper()

	clk := &testClock{t: time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)}
	codec, err := auth.NewCodec("access-secret", "refresh-secret", 15*time.Minute, 240*time.Hour, auth.WithClock(clk.now))
	require.NoError(t, err)

	mem := repomanager.NewMemoryRepositoryManager()
	repo := &faultyRepo{Repository: mem.Accounts()}
	hasher := &countingHasher{BcryptHasher: auth.NewBcryptHasher(bcrypt.MinCost)}

	hash, err := hasher.Hash(alicePassword)
	require.NoError(t, err)
	alice, err := mem.Accounts().Create(context.Background(), &models.Account{
		Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: hash, AvatarURL: "http://cdn/a.png",
	})
	require.NoError(t, err)

	return &env{
		clock:   clk,
		codec:   codec,
		hasher:  hasher,
		manager: &faultyManager{MemoryRepositoryManager: mem, repo: repo},
		repo:    repo,
		metrics: &recorder{},
		alice:   alice,
	}
}

func (e *env) sessions(opts SessionOptions) *SessionService {
	if opts.Metrics == nil {
		opts.Metrics = e.metrics
	}
	return NewSessionService(e.manager, e.codec, e.hasher, nil, opts)
}

func (e *env) guard() *Guard {
	return NewGuard(e.manager, e.codec, nil)
}

func (e *env) storedToken(t *testing.T) *string {
	t.Helper()
	a, err := e.repo.Repository.FindByID(context.Background(), e.alice.ID)
	require.NoError(t, err)
	return a.RefreshToken
}
