package services

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/logging"
	"github.com/dmitrijs2005/vidtube/internal/server/auth"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/dmitrijs2005/vidtube/internal/server/repositories/repomanager"
)

// Guard resolves an access token to the account it was issued for.
type Guard struct {
	repomanager repomanager.RepositoryManager
	codec       tokenCodec
	logger      logging.Logger
}

func NewGuard(m repomanager.RepositoryManager, codec tokenCodec, logger logging.Logger) *Guard {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Guard{repomanager: m, codec: codec, logger: logger}
}

// Authenticate returns the public view of the token's account. It has no
// side effects.
func (g *Guard) Authenticate(ctx context.Context, token string) (*models.PublicAccountView, error) {
	if token == "" {
		return nil, common.ErrMissingToken
	}

	accountID, err := g.codec.Verify(auth.KindAccess, token)
	if err != nil {
		g.logger.Debug(ctx, "access token rejected", "reason", err.Error())
		return nil, common.ErrUnauthenticated
	}

	account, err := g.repomanager.Accounts().FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUnauthenticated
		}
		g.logger.Error(ctx, "guard account lookup failed", "account_id", accountID, "error", err)
		return nil, storeFailure(err)
	}

	return models.NewPublicAccountView(account), nil
}
