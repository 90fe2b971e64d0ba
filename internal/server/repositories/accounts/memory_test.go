package accounts

import (
	"context"
	"sync"
	"testing"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, r *MemoryRepository) *models.Account {
	t.Helper()
	a, err := r.Create(context.Background(), &models.Account{
		Username: "Alice", Email: "a@x.io", FullName: "Alice", PasswordHash: "hash", AvatarURL: "http://a",
	})
	require.NoError(t, err)
	return a
}

func TestMemory_CreateAndFind(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)

	assert.NotEmpty(t, a.ID)
	assert.Equal(t, "alice", a.Username)
	assert.False(t, a.CreatedAt.IsZero())

	for _, id := range []string{"alice", "ALICE", "a@x.io"} {
		got, err := r.FindByIdentifier(context.Background(), id)
		require.NoError(t, err, id)
		assert.Equal(t, a.ID, got.ID)
	}

	_, err := r.FindByIdentifier(context.Background(), "A@X.IO")
	assert.ErrorIs(t, err, common.ErrorNotFound, "email matches exactly")

	got, err := r.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)

	_, err = r.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestMemory_CreateConflict(t *testing.T) {
	r := NewMemoryRepository()
	seed(t, r)

	_, err := r.Create(context.Background(), &models.Account{Username: "alice", Email: "other@x.io"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	_, err = r.Create(context.Background(), &models.Account{Username: "other", Email: "a@x.io"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)

	ok, err := r.ExistsByUsernameOrEmail(context.Background(), "ALICE", "none")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.ExistsByUsernameOrEmail(context.Background(), "carol", "c@x.io")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemory_ReturnedCopiesAreIsolated(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)

	tok := "t1"
	require.NoError(t, r.UpdateRefreshToken(context.Background(), a.ID, &tok))
	tok = "mutated"

	got, err := r.FindByID(context.Background(), a.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshToken)
	assert.Equal(t, "t1", *got.RefreshToken)

	*got.RefreshToken = "changed"
	again, _ := r.FindByID(context.Background(), a.ID)
	assert.Equal(t, "t1", *again.RefreshToken)
}

func TestMemory_RefreshTokenLifecycle(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	ctx := context.Background()

	assert.ErrorIs(t, r.RotateRefreshToken(ctx, a.ID, "t0", "t1"), common.ErrVersionConflict, "nothing stored")

	t1 := "t1"
	require.NoError(t, r.UpdateRefreshToken(ctx, a.ID, &t1))
	require.NoError(t, r.RotateRefreshToken(ctx, a.ID, "t1", "t2"))
	assert.ErrorIs(t, r.RotateRefreshToken(ctx, a.ID, "t1", "t3"), common.ErrVersionConflict)

	require.NoError(t, r.UpdateRefreshToken(ctx, a.ID, nil))
	got, _ := r.FindByID(ctx, a.ID)
	assert.Nil(t, got.RefreshToken)

	assert.ErrorIs(t, r.UpdateRefreshToken(ctx, "missing", nil), common.ErrorNotFound)
}

func TestMemory_ConcurrentRotateHasOneWinner(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)
	ctx := context.Background()

	t1 := "t1"
	require.NoError(t, r.UpdateRefreshToken(ctx, a.ID, &t1))

	const n = 16
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if err := r.RotateRefreshToken(ctx, a.ID, "t1", "next"); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestMemory_UpdatePasswordHash(t *testing.T) {
	r := NewMemoryRepository()
	a := seed(t, r)

	require.NoError(t, r.UpdatePasswordHash(context.Background(), a.ID, "h2"))
	got, _ := r.FindByID(context.Background(), a.ID)
	assert.Equal(t, "h2", got.PasswordHash)

	assert.ErrorIs(t, r.UpdatePasswordHash(context.Background(), "missing", "h"), common.ErrorNotFound)
}
