package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/pkg/recordstore"
)

type employeeRepository struct {
	employees *recordstore.Collection[employee.Employee]
}

// Create implements employee.EmployeeRepository.
func (r *employeeRepository) Create(ctx context.Context, newEmployee employee.Employee) (employee.Employee, error) {
	newEmployee.Email = employee.NormalizeEmail(newEmployee.Email)
	newEmployee.Status = employee.StatusAbsent

	err := r.employees.WithLock(ctx, func(records []employee.Employee) ([]employee.Employee, error) {
		for _, e := range records {
			if e.ID == newEmployee.ID || strings.EqualFold(e.Email, newEmployee.Email) {
				return nil, employee.ErrDuplicateIdentity
			}
		}
		return append(records, newEmployee), nil
	})
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to create employee: %w", err)
	}

	return newEmployee, nil
}

// GetByID implements employee.EmployeeRepository.
func (r *employeeRepository) GetByID(ctx context.Context, id string) (employee.Employee, error) {
	records, err := r.employees.Load(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee by id: %w", err)
	}

	for _, e := range records {
		if e.ID == id {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

// GetByEmail implements employee.EmployeeRepository.
func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (employee.Employee, error) {
	records, err := r.employees.Load(ctx)
	if err != nil {
		return employee.Employee{}, fmt.Errorf("failed to get employee by email: %w", err)
	}

	email = employee.NormalizeEmail(email)
	for _, e := range records {
		if strings.EqualFold(e.Email, email) {
			return e, nil
		}
	}
	return employee.Employee{}, employee.ErrEmployeeNotFound
}

// List implements employee.EmployeeRepository.
func (r *employeeRepository) List(ctx context.Context) ([]employee.Employee, error) {
	records, err := r.employees.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return records, nil
}

// Update implements employee.EmployeeRepository.
func (r *employeeRepository) Update(ctx context.Context, id string, fields employee.UpdateFields) (employee.Employee, employee.Employee, error) {
	var updated, previous employee.Employee

	err := r.employees.WithLock(ctx, func(records []employee.Employee) ([]employee.Employee, error) {
		idx := indexOfEmployee(records, id)
		if idx < 0 {
			return nil, employee.ErrEmployeeNotFound
		}

		if fields.Email != nil {
			email := employee.NormalizeEmail(*fields.Email)
			for i, e := range records {
				if i != idx && strings.EqualFold(e.Email, email) {
					return nil, employee.ErrDuplicateIdentity
				}
			}
		}

		previous = records[idx]
		fields.Apply(&records[idx])
		updated = records[idx]
		return records, nil
	})
	if err != nil {
		return employee.Employee{}, employee.Employee{}, fmt.Errorf("failed to update employee: %w", err)
	}

	return updated, previous, nil
}

// SetStatus implements employee.EmployeeRepository.
func (r *employeeRepository) SetStatus(ctx context.Context, id string, status employee.Status) error {
	err := r.employees.WithLock(ctx, func(records []employee.Employee) ([]employee.Employee, error) {
		idx := indexOfEmployee(records, id)
		if idx < 0 {
			return nil, employee.ErrEmployeeNotFound
		}
		if records[idx].Status == status {
			return nil, recordstore.ErrNoChange
		}
		records[idx].Status = status
		return records, nil
	})
	if err != nil {
		return fmt.Errorf("failed to set employee status: %w", err)
	}
	return nil
}

// ReconcileStatuses implements employee.EmployeeRepository.
func (r *employeeRepository) ReconcileStatuses(ctx context.Context, present func(ctx context.Context) (map[string]bool, error)) (int, error) {
	changed := 0

	err := r.employees.WithLock(ctx, func(records []employee.Employee) ([]employee.Employee, error) {
		presentSet, err := present(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}

		changed = 0
		for i := range records {
			want := employee.StatusFor(presentSet[records[i].ID])
			if records[i].Status != want {
				records[i].Status = want
				changed++
			}
		}
		if changed == 0 {
			return nil, recordstore.ErrNoChange
		}
		return records, nil
	})
	if err != nil {
		return 0, fmt.Errorf("failed to reconcile employee statuses: %w", err)
	}

	return changed, nil
}

func indexOfEmployee(records []employee.Employee, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}

func NewEmployeeRepository(rs *recordstore.Store) employee.EmployeeRepository {
	return &employeeRepository{
		employees: recordstore.NewCollection[employee.Employee](rs, EmployeesCollection),
	}
}
