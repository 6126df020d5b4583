// AngelaMos | 2026
// service.go

package employee

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Dramos02/employee-directory/internal/auth"
	"github.com/Dramos02/employee-directory/internal/core"
)

type Service struct {
	repo   Repository
	events Publisher
}

func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.EmployeeInfo, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toEmployeeInfo(emp), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.EmployeeInfo, error) {
	emp, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toEmployeeInfo(emp), nil
}

// Create registers a new employee profile. Every self-registered
// employee starts with exactly the "user" role.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, fullName, phone string,
) (*auth.EmployeeInfo, error) {
	emp := &Employee{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		FullName:     fullName,
		Phone:        phone,
		Role:         RoleUser,
	}

	if err := s.repo.Create(ctx, emp); err != nil {
		return nil, err
	}

	s.publish(ChangeAdded, emp)

	return toEmployeeInfo(emp), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	employeeID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, employeeID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	employeeID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, employeeID, passwordHash)
}

func (s *Service) MarkEmailVerified(
	ctx context.Context,
	employeeID string,
) error {
	return s.repo.MarkEmailVerified(ctx, employeeID)
}

func (s *Service) GetEmployee(
	ctx context.Context,
	id string,
) (*Employee, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) UpdateProfile(
	ctx context.Context,
	id string,
	req UpdateProfileRequest,
) (*Employee, error) {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		emp.FullName = *req.FullName
	}
	if req.Phone != nil {
		emp.Phone = *req.Phone
	}

	if err := s.repo.Update(ctx, emp); err != nil {
		return nil, err
	}

	s.publish(ChangeModified, emp)

	return emp, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id, role string,
) (*Employee, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf(
			"update role: invalid role %q: %w",
			role,
			core.ErrInvalidInput,
		)
	}

	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	emp.Role = role

	if err := s.repo.Update(ctx, emp); err != nil {
		return nil, err
	}

	s.publish(ChangeModified, emp)

	return emp, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	emp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.SoftDelete(ctx, id); err != nil {
		return err
	}

	s.publish(ChangeRemoved, emp)

	return nil
}

func (s *Service) ListEmployees(
	ctx context.Context,
	params ListEmployeesParams,
) ([]Employee, int, error) {
	return s.repo.List(ctx, params)
}

func (s *Service) ListByRole(
	ctx context.Context,
	role string,
) ([]Employee, error) {
	return s.repo.ListByRole(ctx, role)
}

func (s *Service) CountByRole(ctx context.Context) (map[string]int, error) {
	return s.repo.CountByRole(ctx)
}

func (s *Service) GetMe(ctx context.Context, employeeID string) (*Employee, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, employeeID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	employeeID string,
	req UpdateProfileRequest,
) (*Employee, error) {
	if employeeID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	return s.UpdateProfile(ctx, employeeID, req)
}

func (s *Service) CanDeleteEmployee(
	ctx context.Context,
	requesterID, targetID string,
) error {
	if requesterID == targetID {
		return nil
	}

	requester, err := s.repo.GetByID(ctx, requesterID)
	if err != nil {
		return err
	}

	if !requester.IsAdmin() {
		return fmt.Errorf("delete employee: %w", core.ErrForbidden)
	}

	target, err := s.repo.GetByID(ctx, targetID)
	if err != nil {
		return err
	}

	if target.IsAdmin() {
		return fmt.Errorf("cannot delete admin accounts: %w", core.ErrForbidden)
	}

	return nil
}

func (s *Service) publish(kind ChangeKind, emp *Employee) {
	if s.events == nil {
		return
	}
	s.events.Publish(ChangeEvent{Kind: kind, Employee: *emp})
}

func toEmployeeInfo(e *Employee) *auth.EmployeeInfo {
	return &auth.EmployeeInfo{
		ID:            e.ID,
		Email:         e.Email,
		FullName:      e.FullName,
		Phone:         e.Phone,
		PasswordHash:  e.PasswordHash,
		Role:          e.Role,
		EmailVerified: e.EmailVerified,
		TokenVersion:  e.TokenVersion,
	}
}

var _ auth.EmployeeProvider = (*Service)(nil)
