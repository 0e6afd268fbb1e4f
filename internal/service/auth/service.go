package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cmlabs-hris/dayflow/internal/domain/attendance"
	"github.com/cmlabs-hris/dayflow/internal/domain/auth"
	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/pkg/clock"
	"github.com/cmlabs-hris/dayflow/internal/pkg/jwt"
	"github.com/shopspring/decimal"
)

type AuthServiceImpl struct {
	employee.EmployeeRepository
	jwt.Service
	attendanceRepo attendance.AttendanceRepository
	hasher         auth.PasswordHasher
	clock          *clock.Clock
}

func NewAuthService(employeeRepository employee.EmployeeRepository, attendanceRepository attendance.AttendanceRepository, hasher auth.PasswordHasher, jwtService jwt.Service, clk *clock.Clock) auth.AuthService {
	return &AuthServiceImpl{
		EmployeeRepository: employeeRepository,
		Service:            jwtService,
		attendanceRepo:     attendanceRepository,
		hasher:             hasher,
		clock:              clk,
	}
}

// Signup implements auth.AuthService.
func (a *AuthServiceImpl) Signup(ctx context.Context, req auth.SignupRequest) (employee.EmployeeResponse, error) {
	if err := req.Validate(); err != nil {
		return employee.EmployeeResponse{}, err
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return employee.EmployeeResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	created, err := a.EmployeeRepository.Create(ctx, employee.Employee{
		ID:           strings.TrimSpace(req.EmployeeID),
		Email:        req.Email,
		PasswordHash: hash,
		Role:         employee.RoleEmployee,
		Name:         strings.TrimSpace(req.Name),
		Salary:       decimal.Zero,
		JoinDate:     a.clock.Today(),
	})
	if err != nil {
		return employee.EmployeeResponse{}, err
	}

	slog.Info("Auth: employee signed up", "employee_id", created.ID)
	return employee.NewEmployeeResponse(created, employee.StatusAbsent), nil
}

// Login implements auth.AuthService.
func (a *AuthServiceImpl) Login(ctx context.Context, req auth.LoginRequest) (auth.TokenResponse, error) {
	if err := req.Validate(); err != nil {
		return auth.TokenResponse{}, err
	}

	account, err := a.EmployeeRepository.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, employee.ErrEmployeeNotFound) {
			return auth.TokenResponse{}, auth.ErrInvalidCredentials
		}
		return auth.TokenResponse{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	if !a.hasher.Verify(account.PasswordHash, req.Password) {
		return auth.TokenResponse{}, auth.ErrInvalidCredentials
	}

	status, err := attendance.StatusOn(ctx, a.attendanceRepo, account.ID, a.clock.Today())
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to derive attendance status: %w", err)
	}

	token, expiresAt, err := a.Service.GenerateAccessToken(account.ID, account.Email, account.Name, string(account.Role))
	if err != nil {
		return auth.TokenResponse{}, fmt.Errorf("failed to create access token: %w", err)
	}

	return auth.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
		Employee:    employee.NewEmployeeResponse(account, status),
	}, nil
}

// Logout implements auth.AuthService.
func (a *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	if token == "" {
		return auth.ErrInvalidToken
	}
	a.Service.RevokeToken(token)
	return nil
}

// SeedAdmin implements auth.AuthService.
func (a *AuthServiceImpl) SeedAdmin(ctx context.Context, req auth.SeedAdminRequest) (bool, error) {
	accounts, err := a.EmployeeRepository.List(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list employees: %w", err)
	}
	for _, account := range accounts {
		if account.IsAdmin() {
			return false, nil
		}
	}

	hash, err := a.hasher.Hash(req.Password)
	if err != nil {
		return false, fmt.Errorf("failed to hash password: %w", err)
	}

	_, err = a.EmployeeRepository.Create(ctx, employee.Employee{
		ID:           req.EmployeeID,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         employee.RoleAdmin,
		Name:         req.Name,
		Department:   "Administration",
		Position:     "Administrator",
		Salary:       decimal.Zero,
		JoinDate:     a.clock.Today(),
	})
	if err != nil {
		return false, fmt.Errorf("failed to seed admin account: %w", err)
	}

	slog.Info("Auth: seeded admin account", "employee_id", req.EmployeeID, "email", req.Email)
	return true, nil
}
