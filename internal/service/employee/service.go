package employee

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/service/file"
	"github.com/shopspring/decimal"
)

type EmployeeServiceImpl struct {
	employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	hasher         auth.PasswordHasher
	fileService    file.FileService
	clock          *clock.Clock
}

func NewEmployeeService(
	employeeRepository employee.EmployeeRepository,
	attendanceRepository attendance.AttendanceRepository,
	hasher auth.PasswordHasher,
	fileService file.FileService,
	clk *clock.Clock,
) employee.EmployeeService {
	return &EmployeeServiceImpl{
		EmployeeRepository: employeeRepository,
		attendanceRepo:     attendanceRepository,
		hasher:             hasher,
		fileService:        fileService,
		clock:              clk,
	}
}

func (s *EmployeeServiceImpl) respond(ctx context.Context, e employee.Employee) (employee.EmployeeResponse, error) {
	status, err := attendance.StatusOn(ctx, s.attendanceRepo, e.ID, s.clock.Today())
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to derive attendance status: %w", err)
	}
	return employee.NewEmployeeResponse(e, status), nil
}

// GetProfile implements employee.EmployeeService.
func (s *EmployeeServiceImpl) GetProfile(ctx context.Context) (employee.EmployeeResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	e, err := s.EmployeeRepository.GetByID(ctx, caller.EmployeeID)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.respond(ctx, e)
}

// UpdateProfile implements employee.EmployeeService.
func (s *EmployeeServiceImpl) UpdateProfile(ctx context.Context, req employee.UpdateProfileRequest) (employee.EmployeeResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	fields := employee.UpdateFields{
		Name:    trimmed(req.Name),
		Phone:   trimmed(req.Phone),
		Address: trimmed(req.Address),
	}

	var uploaded string
	if req.ProfilePicture != nil {
		uploaded, err = s.fileService.UploadProfilePicture(ctx, caller.EmployeeID, req.ProfilePicture, req.ProfilePictureFilename)
		if err != nil {
			return employee.EmployeeResponse{}, err
		}
		fields.ProfilePicture = &uploaded
	}

	updated, previous, err := s.EmployeeRepository.Update(ctx, caller.EmployeeID, fields)
	if err != nil {
		if uploaded != "" {
			s.discardPicture(ctx, uploaded)
		}
		return employee.EmployeeResponse{}, err
	}

	// previous was read under the registry lock, so concurrent uploads each
	// remove exactly the picture they replaced.
	if uploaded != "" && previous.ProfilePicture != nil && *previous.ProfilePicture != uploaded {
		s.discardPicture(ctx, *previous.ProfilePicture)
	}

	return s.respond(ctx, updated)
}

func (s *EmployeeServiceImpl) discardPicture(ctx context.Context, publicPath string) {
	if err := s.fileService.DeleteProfilePicture(ctx, publicPath); err != nil {
		slog.Warn("Employee: failed to delete profile picture", "path", publicPath, "error", err)
	}
}

// Create implements employee.EmployeeService.
func (s *EmployeeServiceImpl) Create(ctx context.Context, req employee.CreateEmployeeRequest) (employee.EmployeeResponse, error) {
	admin, err := auth.RequireAdmin(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	salary := decimal.Zero
	if req.Salary != nil {
		salary = *req.Salary
	}

	created, err := s.EmployeeRepository.Create(ctx, employee.Employee{
		ID:           strings.TrimSpace(req.ID),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         employee.RoleEmployee,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Department:   strings.TrimSpace(req.Department),
		Position:     strings.TrimSpace(req.Position),
		Salary:       salary,
		JoinDate:     s.clock.Today(),
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee: account created", "employee_id", created.ID, "created_by", admin.EmployeeID)
	return employee.NewEmployeeResponse(created, employee.StatusAbsent), nil
}

// Get implements employee.EmployeeService. Employees may read only their own record.
func (s *EmployeeServiceImpl) Get(ctx context.Context, id string) (employee.EmployeeResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if !caller.IsAdmin() && caller.EmployeeID != id {
		return employee.EmployeeResponse{}, auth.ErrAdminPrivilegeRequired
	}

	e, err := s.EmployeeRepository.GetByID(ctx, id)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	return s.respond(ctx, e)
}

// Update implements employee.EmployeeService. An employee editing their own
// record is limited to the profile fields.
func (s *EmployeeServiceImpl) Update(ctx context.Context, id string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
	caller, err := auth.CallerFromContext(ctx)
	if err != nil {
		return employee.EmployeeResponse{}, err
	}
	if !caller.IsAdmin() && (caller.EmployeeID != id || !req.OnlyProfileFields()) {
		return employee.EmployeeResponse{}, auth.ErrAdminPrivilegeRequired
	}
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	updated, _, err := s.EmployeeRepository.Update(ctx, id, employee.UpdateFields{
		Name:       trimmed(req.Name),
		Email:      req.Email,
		Phone:      trimmed(req.Phone),
		Address:    trimmed(req.Address),
		Department: trimmed(req.Department),
		Position:   trimmed(req.Position),
		Salary:     req.Salary,
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Employee: account updated", "employee_id", id, "updated_by", caller.EmployeeID)
	return s.respond(ctx, updated)
}

// List implements employee.EmployeeService.
func (s *EmployeeServiceImpl) List(ctx context.Context) ([]employee.EmployeeResponse, error) {
	if _, err := auth.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	employees, err := s.EmployeeRepository.List(ctx)
	if err != nil {
		return nil, err
	}
	records, err := s.attendanceRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	present := attendance.PresentOn(records, s.clock.Today())
	out := make([]employee.EmployeeResponse, 0, len(employees))
	for _, e := range employees {
		out = append(out, employee.NewEmployeeResponse(e, employee.StatusFor(present[e.ID])))
	}
	return out, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
