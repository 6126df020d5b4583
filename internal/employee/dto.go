// AngelaMos | 2026
// dto.go

package employee

import (
	"time"
)

type UpdateProfileRequest struct {
	FullName *string `json:"full_name,omitempty" validate:"omitempty,min=1,max=100"`
	Phone    *string `json:"phone,omitempty"     validate:"omitempty,phmobile"`
}

type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=user admin"`
}

type EmployeeResponse struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	Phone         string    `json:"phone"`
	Role          string    `json:"role"`
	EmailVerified bool      `json:"email_verified"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type ListEmployeesParams struct {
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Search   string `json:"search"`
	Role     string `json:"role"`
}

func (p *ListEmployeesParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListEmployeesParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func ToEmployeeResponse(e *Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:            e.ID,
		Email:         e.Email,
		FullName:      e.FullName,
		Phone:         e.Phone,
		Role:          e.Role,
		EmailVerified: e.EmailVerified,
		CreatedAt:     e.CreatedAt,
		UpdatedAt:     e.UpdatedAt,
	}
}

func ToEmployeeResponseList(employees []Employee) []EmployeeResponse {
	responses := make([]EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		responses = append(responses, ToEmployeeResponse(&e))
	}
	return responses
}
