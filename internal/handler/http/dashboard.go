package http

import (
	"net/http"

	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/dashboard"
	"github.com/cmlabs-hris/dayflow/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type DashboardHandler interface {
	// GetDashboard returns the admin overview for admins and the personal dashboard otherwise
	GetDashboard(w http.ResponseWriter, r *http.Request)
	// GetEmployeeDetail returns one employee with their attendance and leave history
	GetEmployeeDetail(w http.ResponseWriter, r *http.Request)
}

type dashboardHandlerImpl struct {
	dashboardService dashboard.DashboardService
}

func NewDashboardHandler(dashboardService dashboard.DashboardService) DashboardHandler {
	return &dashboardHandlerImpl{dashboardService: dashboardService}
}

// GetDashboard handles GET /dashboard
func (h *dashboardHandlerImpl) GetDashboard(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.CallerFromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	if caller.IsAdmin() {
		result, err := h.dashboardService.GetAdminDashboard(r.Context())
		if err != nil {
			response.HandleError(w, err)
			return
		}
		response.Success(w, result)
		return
	}

	result, err := h.dashboardService.GetEmployeeDashboard(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GetEmployeeDetail handles GET /employees/{id}
func (h *dashboardHandlerImpl) GetEmployeeDetail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Employee ID is required", nil)
		return
	}

	result, err := h.dashboardService.GetEmployeeDetail(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
