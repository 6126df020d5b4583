// AngelaMos | 2026
// repository.go

package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Dramos02/employee-directory/internal/core"
)

type Repository interface {
	Create(ctx context.Context, token *RefreshToken) error
	FindByHash(ctx context.Context, tokenHash string) (*RefreshToken, error)
	FindByID(ctx context.Context, id string) (*RefreshToken, error)
	MarkAsUsed(ctx context.Context, id, replacedByID string) error
	RevokeByID(ctx context.Context, id string) error
	RevokeByFamilyID(ctx context.Context, familyID string) error
	RevokeAllForEmployee(ctx context.Context, employeeID string) error
	GetActiveSessionsForEmployee(
		ctx context.Context,
		employeeID string,
	) ([]RefreshToken, error)
	DeleteExpired(ctx context.Context) (int64, error)

	CreateActionToken(ctx context.Context, token *ActionToken) error
	FindActionTokenByHash(
		ctx context.Context,
		tokenHash, purpose string,
	) (*ActionToken, error)
	ConsumeActionToken(ctx context.Context, id string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const refreshTokenColumns = `id, employee_id, token_hash, family_id, expires_at,
			created_at, is_used, used_at, revoked_at, replaced_by_id,
			user_agent, ip_address`

func (r *repository) Create(ctx context.Context, token *RefreshToken) error {
	query := `
		INSERT INTO refresh_tokens (
			id, employee_id, token_hash, family_id, expires_at,
			user_agent, ip_address
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.EmployeeID,
		token.TokenHash,
		token.FamilyID,
		token.ExpiresAt,
		token.UserAgent,
		token.IPAddress,
	)
	if err != nil {
		return fmt.Errorf("create refresh token: %w", err)
	}

	return nil
}

func (r *repository) FindByHash(
	ctx context.Context,
	tokenHash string,
) (*RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM refresh_tokens
		WHERE token_hash = $1`, refreshTokenColumns)

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, tokenHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) FindByID(
	ctx context.Context,
	id string,
) (*RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM refresh_tokens
		WHERE id = $1`, refreshTokenColumns)

	var token RefreshToken
	err := r.db.GetContext(ctx, &token, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find refresh token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find refresh token: %w", err)
	}

	return &token, nil
}

func (r *repository) MarkAsUsed(
	ctx context.Context,
	id, replacedByID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET is_used = true, used_at = NOW(), replaced_by_id = $2
		WHERE id = $1 AND is_used = false`

	result, err := r.db.ExecContext(ctx, query, id, replacedByID)
	if err != nil {
		return fmt.Errorf("mark refresh token as used: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark refresh token as used: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("mark refresh token as used: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeByID(ctx context.Context, id string) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE id = $1 AND revoked_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("revoke refresh token: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) RevokeByFamilyID(
	ctx context.Context,
	familyID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE family_id = $1 AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, familyID)
	if err != nil {
		return fmt.Errorf("revoke token family: %w", err)
	}

	return nil
}

func (r *repository) RevokeAllForEmployee(
	ctx context.Context,
	employeeID string,
) error {
	query := `
		UPDATE refresh_tokens
		SET revoked_at = NOW()
		WHERE employee_id = $1 AND revoked_at IS NULL`

	_, err := r.db.ExecContext(ctx, query, employeeID)
	if err != nil {
		return fmt.Errorf("revoke all employee tokens: %w", err)
	}

	return nil
}

func (r *repository) GetActiveSessionsForEmployee(
	ctx context.Context,
	employeeID string,
) ([]RefreshToken, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM refresh_tokens
		WHERE employee_id = $1
			AND revoked_at IS NULL
			AND is_used = false
			AND expires_at > NOW()
		ORDER BY created_at DESC`, refreshTokenColumns)

	var tokens []RefreshToken
	err := r.db.SelectContext(ctx, &tokens, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("get active sessions: %w", err)
	}

	return tokens, nil
}

func (r *repository) DeleteExpired(ctx context.Context) (int64, error) {
	query := `
		DELETE FROM refresh_tokens
		WHERE expires_at < $1`

	cutoff := time.Now().Add(-24 * time.Hour)

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", err)
	}

	return rows, nil
}

func (r *repository) CreateActionToken(
	ctx context.Context,
	token *ActionToken,
) error {
	query := `
		INSERT INTO action_tokens (
			id, employee_id, token_hash, purpose, expires_at
		) VALUES (
			$1, $2, $3, $4, $5
		)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &token.CreatedAt, query,
		token.ID,
		token.EmployeeID,
		token.TokenHash,
		token.Purpose,
		token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create action token: %w", err)
	}

	return nil
}

func (r *repository) FindActionTokenByHash(
	ctx context.Context,
	tokenHash, purpose string,
) (*ActionToken, error) {
	query := `
		SELECT id, employee_id, token_hash, purpose, expires_at,
		       created_at, used_at
		FROM action_tokens
		WHERE token_hash = $1 AND purpose = $2`

	var token ActionToken
	err := r.db.GetContext(ctx, &token, query, tokenHash, purpose)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find action token: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find action token: %w", err)
	}

	return &token, nil
}

// ConsumeActionToken marks a token used; the guard on used_at makes
// consumption race-safe under concurrent requests.
func (r *repository) ConsumeActionToken(ctx context.Context, id string) error {
	query := `
		UPDATE action_tokens
		SET used_at = NOW()
		WHERE id = $1 AND used_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("consume action token: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume action token: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("consume action token: %w", core.ErrNotFound)
	}

	return nil
}
