package auth

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/stretchr/testify/assert"
)

func TestAccountContext(t *testing.T) {
	_, ok := AccountFromContext(context.Background())
	assert.False(t, ok)

	v := &models.PublicAccountView{ID: "u-1"}
	got, ok := AccountFromContext(WithAccount(context.Background(), v))
	assert.True(t, ok)
	assert.Same(t, v, got)

	_, ok = AccountFromContext(WithAccount(context.Background(), nil))
	assert.False(t, ok)
}

func TestClientIPContext(t *testing.T) {
	assert.Empty(t, ClientIPFromContext(context.Background()))
	assert.Equal(t, "10.0.0.1", ClientIPFromContext(WithClientIP(context.Background(), "10.0.0.1")))
}
