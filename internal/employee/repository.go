// AngelaMos | 2026
// repository.go

package employee

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Dramos02/employee-directory/internal/core"
)

type Repository interface {
	Create(ctx context.Context, emp *Employee) error
	GetByID(ctx context.Context, id string) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (*Employee, error)
	Update(ctx context.Context, emp *Employee) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	MarkEmailVerified(ctx context.Context, id string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	SoftDelete(ctx context.Context, id string) error
	List(ctx context.Context, params ListEmployeesParams) ([]Employee, int, error)
	ListByRole(ctx context.Context, role string) ([]Employee, error)
	CountByRole(ctx context.Context) (map[string]int, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

const employeeColumns = `id, email, password_hash, full_name, phone, role,
	       email_verified, token_version, created_at, updated_at, deleted_at`

func (r *repository) Create(ctx context.Context, emp *Employee) error {
	query := `
		INSERT INTO employees (id, email, password_hash, full_name, phone, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at, token_version, email_verified`

	err := r.db.GetContext(ctx, emp, query,
		emp.ID,
		emp.Email,
		emp.PasswordHash,
		emp.FullName,
		emp.Phone,
		emp.Role,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return fmt.Errorf("create employee: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create employee: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, id string) (*Employee, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE id = $1 AND deleted_at IS NULL`, employeeColumns)

	var emp Employee
	err := r.db.GetContext(ctx, &emp, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get employee: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get employee: %w", err)
	}

	return &emp, nil
}

func (r *repository) GetByEmail(
	ctx context.Context,
	email string,
) (*Employee, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE email = $1 AND deleted_at IS NULL`, employeeColumns)

	var emp Employee
	err := r.db.GetContext(ctx, &emp, query, email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get employee by email: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get employee by email: %w", err)
	}

	return &emp, nil
}

func (r *repository) Update(ctx context.Context, emp *Employee) error {
	query := `
		UPDATE employees
		SET full_name = $2, phone = $3, role = $4, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &emp.UpdatedAt, query,
		emp.ID,
		emp.FullName,
		emp.Phone,
		emp.Role,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update employee: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update employee: %w", err)
	}

	return nil
}

func (r *repository) UpdatePassword(
	ctx context.Context,
	id, passwordHash string,
) error {
	query := `
		UPDATE employees
		SET password_hash = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "update password", query, id, passwordHash)
}

func (r *repository) MarkEmailVerified(ctx context.Context, id string) error {
	query := `
		UPDATE employees
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "mark email verified", query, id)
}

func (r *repository) IncrementTokenVersion(
	ctx context.Context,
	id string,
) error {
	query := `
		UPDATE employees
		SET token_version = token_version + 1, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "increment token version", query, id)
}

func (r *repository) SoftDelete(ctx context.Context, id string) error {
	query := `
		UPDATE employees
		SET deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL`

	return r.execExpectingRow(ctx, "delete employee", query, id)
}

func (r *repository) List(
	ctx context.Context,
	params ListEmployeesParams,
) ([]Employee, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	conditions = append(conditions, "deleted_at IS NULL")

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(
			"(email ILIKE $%d OR full_name ILIKE $%d)", argIdx, argIdx))
		args = append(args, "%"+escapeLike(params.Search)+"%")
		argIdx++
	}

	if params.Role != "" {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIdx))
		args = append(args, params.Role)
		argIdx++
	}

	whereClause := strings.Join(conditions, " AND ")

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM employees WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count employees: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		employeeColumns, whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var employees []Employee
	if err := r.db.SelectContext(ctx, &employees, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list employees: %w", err)
	}

	return employees, total, nil
}

// ListByRole returns all live employees with the given role in
// creation order. The roster projection bootstraps from this.
func (r *repository) ListByRole(
	ctx context.Context,
	role string,
) ([]Employee, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM employees
		WHERE role = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`, employeeColumns)

	var employees []Employee
	if err := r.db.SelectContext(ctx, &employees, query, role); err != nil {
		return nil, fmt.Errorf("list employees by role: %w", err)
	}

	return employees, nil
}

func (r *repository) CountByRole(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT role, COUNT(*) AS count
		FROM employees
		WHERE deleted_at IS NULL
		GROUP BY role`

	var rows []struct {
		Role  string `db:"role"`
		Count int    `db:"count"`
	}

	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count by role: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		role := row.Role
		if role == RoleUnset {
			role = "unassigned"
		}
		counts[role] = row.Count
	}

	return counts, nil
}

func (r *repository) execExpectingRow(
	ctx context.Context,
	op, query string,
	args ...any,
) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if rows == 0 {
		return fmt.Errorf("%s: %w", op, core.ErrNotFound)
	}

	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}
