// AngelaMos | 2026
// handler.go

package employee

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/Dramos02/employee-directory/internal/core"
	"github.com/Dramos02/employee-directory/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: core.NewValidator(),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	profileWS http.HandlerFunc,
) {
	r.Route("/employees", func(r chi.Router) {
		// The live profile stream authenticates in-band after the
		// upgrade; everything else requires a bearer token up front.
		r.Get("/me/ws", profileWS)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/me", h.GetMe)
			r.Put("/me", h.UpdateMe)
		})
	})
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetEmployeeID(r.Context())

	emp, err := h.service.GetMe(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEmployeeResponse(emp))
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	employeeID := middleware.GetEmployeeID(r.Context())

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	emp, err := h.service.UpdateMe(r.Context(), employeeID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEmployeeResponse(emp))
}

// RegisterAdminRoutes registers directory management endpoints on an
// already admin-guarded router.
func (h *Handler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.ListEmployees)
		r.Get("/{employeeID}", h.GetEmployee)
		r.Put("/{employeeID}", h.UpdateEmployee)
		r.Put("/{employeeID}/role", h.UpdateRole)
		r.Delete("/{employeeID}", h.DeleteEmployee)
	})
}

// ListEmployees returns a paginated directory listing with optional
// search and role filtering.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	params := ListEmployeesParams{
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 20),
		Search:   r.URL.Query().Get("search"),
		Role:     r.URL.Query().Get("role"),
	}

	employees, total, err := h.service.ListEmployees(r.Context(), params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.Paginated(
		w,
		ToEmployeeResponseList(employees),
		params.Page,
		params.PageSize,
		total,
	)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	emp, err := h.service.GetEmployee(r.Context(), employeeID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEmployeeResponse(emp))
}

func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	emp, err := h.service.UpdateProfile(r.Context(), employeeID, req)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEmployeeResponse(emp))
}

// UpdateRole provisions or changes an employee's role (admin only).
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	emp, err := h.service.UpdateRole(r.Context(), employeeID, req.Role)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		if errors.Is(err, core.ErrInvalidInput) {
			core.BadRequest(w, "invalid role")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToEmployeeResponse(emp))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	requesterID := middleware.GetEmployeeID(r.Context())
	targetID := chi.URLParam(r, "employeeID")

	if err := h.service.CanDeleteEmployee(r.Context(), requesterID, targetID); err != nil {
		if errors.Is(err, core.ErrForbidden) {
			core.Forbidden(w, "insufficient permissions")
			return
		}
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.service.DeleteEmployee(r.Context(), targetID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "employee")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func parseIntQuery(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}
