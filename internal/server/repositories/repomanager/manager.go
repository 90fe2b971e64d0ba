// Package repomanager vends the account repository for the configured
// backend together with its transaction, migration and health hooks.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/vidtube/internal/server/repositories/accounts"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Accounts() accounts.Repository
	// WithinTx runs fn against a repository whose writes commit together.
	WithinTx(ctx context.Context, fn func(ctx context.Context, repo accounts.Repository) error) error
	Ping(ctx context.Context) error
	Close() error
}
