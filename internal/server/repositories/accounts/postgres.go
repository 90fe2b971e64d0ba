package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/vidtube/internal/common"
	"github.com/dmitrijs2005/vidtube/internal/dbx"
	"github.com/dmitrijs2005/vidtube/internal/server/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

const accountColumns = `id::text, username, email, full_name, password_hash,
       avatar_url, cover_image_url, refresh_token, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	var token sql.NullString
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &a.PasswordHash,
		&a.AvatarURL, &a.CoverImageURL, &token, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if token.Valid {
		a.RefreshToken = &token.String
	}
	return a, nil
}

func storeError(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return common.ErrorNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return common.ErrorAlreadyExists
	}
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}

// validID reports whether id can match the uuid primary key. Malformed ids
// never reach the database.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (r *PostgresRepository) FindByIdentifier(ctx context.Context, identifier string) (*models.Account, error) {
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE username = $1 OR email = $2
		 LIMIT 1`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, strings.ToLower(identifier), identifier))
	if err != nil {
		return nil, storeError("find account by identifier", err)
	}
	return a, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Account, error) {
	if !validID(id) {
		return nil, common.ErrorNotFound
	}
	query := `SELECT ` + accountColumns + `
		 FROM accounts
		 WHERE id = $1::uuid`

	a, err := scanAccount(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, storeError("find account by id", err)
	}
	return a, nil
}

func (r *PostgresRepository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1 OR email = $2)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, strings.ToLower(username), email).Scan(&exists); err != nil {
		return false, storeError("check account exists", err)
	}
	return exists, nil
}

func (r *PostgresRepository) Create(ctx context.Context, a *models.Account) (*models.Account, error) {
	query := `INSERT INTO accounts (username, email, full_name, password_hash, avatar_url, cover_image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id::text, created_at, updated_at`

	created := a.Clone()
	created.Username = strings.ToLower(a.Username)
	created.RefreshToken = nil

	err := r.db.QueryRowContext(ctx, query,
		created.Username, created.Email, created.FullName, created.PasswordHash,
		created.AvatarURL, created.CoverImageURL,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, storeError("create account", err)
	}
	return created, nil
}

func (r *PostgresRepository) UpdateRefreshToken(ctx context.Context, id string, token *string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE accounts SET refresh_token = $2, updated_at = now()
		 WHERE id = $1::uuid`

	var value sql.NullString
	if token != nil {
		value = sql.NullString{String: *token, Valid: true}
	}

	res, err := r.db.ExecContext(ctx, query, id, value)
	if err != nil {
		return storeError("update refresh token", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

func (r *PostgresRepository) RotateRefreshToken(ctx context.Context, id, expected, next string) error {
	if !validID(id) {
		return common.ErrVersionConflict
	}
	query := `UPDATE accounts SET refresh_token = $3, updated_at = now()
		 WHERE id = $1::uuid AND refresh_token = $2`

	res, err := r.db.ExecContext(ctx, query, id, expected, next)
	if err != nil {
		return storeError("rotate refresh token", err)
	}
	return expectOneRow(res, common.ErrVersionConflict)
}

func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if !validID(id) {
		return common.ErrorNotFound
	}
	query := `UPDATE accounts SET password_hash = $2, updated_at = now()
		 WHERE id = $1::uuid`

	res, err := r.db.ExecContext(ctx, query, id, hash)
	if err != nil {
		return storeError("update password hash", err)
	}
	return expectOneRow(res, common.ErrorNotFound)
}

func expectOneRow(res sql.Result, none error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: rows affected: %w", common.ErrStoreUnavailable, err)
	}
	if n == 0 {
		return none
	}
	return nil
}
