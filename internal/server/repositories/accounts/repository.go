// Package accounts is the credential store: durable account records with
// their password hash and the currently active refresh token.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/models"
)

// Repository persists accounts.
//
// Lookups that match nothing return common.ErrorNotFound. Unique violations
// on username or email return common.ErrorAlreadyExists. A RotateRefreshToken
// whose expected value is no longer stored returns common.ErrVersionConflict.
// Any other backend failure wraps common.ErrStoreUnavailable.
type Repository interface {
	// FindByIdentifier matches identifier against the lowercased username or
	// the exact email.
	FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error)
	FindByID(ctx context.Context, id string) (*models.Account, error)
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)
	// Create inserts a and returns it with ID and timestamps filled in.
	Create(ctx context.Context, a *models.Account) (*models.Account, error)
	// UpdateRefreshToken overwrites the stored token; nil clears it.
	UpdateRefreshToken(ctx context.Context, id string, token *string) error
	// RotateRefreshToken replaces expected with next atomically.
	RotateRefreshToken(ctx context.Context, id, expected, next string) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
}
