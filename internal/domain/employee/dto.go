package employee

import (
	"io"

	"github.com/cmlabs-hris/dayflow/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const minPasswordLength = 8

type CreateEmployeeRequest struct {
	ID         string           `json:"id"`
	Email      string           `json:"email"`
	Password   string           `json:"password"`
	Name       string           `json:"name"`
	Phone      string           `json:"phone"`
	Address    string           `json:"address"`
	Department string           `json:"department"`
	Position   string           `json:"position"`
	Salary     *decimal.Decimal `json:"salary"`
}

func (r *CreateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	} else if !validator.IsValidEmployeeID(r.ID) {
		errs.Add("id", "id may only contain letters, numbers, underscores and hyphens (2-32 characters)")
	}
	validateEmail(&errs, r.Email)
	if len(r.Password) < minPasswordLength {
		errs.Add("password", "password must be at least 8 characters long")
	}
	validateName(&errs, r.Name)
	if !validator.IsEmpty(r.Phone) && !validator.IsValidPhoneNumber(r.Phone) {
		errs.Add("phone", "invalid phone number format")
	}
	if r.Salary != nil && r.Salary.IsNegative() {
		errs.Add("salary", "salary must not be negative")
	}

	return errs.Err()
}

// UpdateProfileRequest is what an employee may change about themselves.
type UpdateProfileRequest struct {
	Name    *string `json:"name"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`

	ProfilePicture         io.Reader `json:"-"`
	ProfilePictureFilename string    `json:"-"`
}

func (r *UpdateProfileRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		validateName(&errs, *r.Name)
	}
	if r.Phone != nil && !validator.IsEmpty(*r.Phone) && !validator.IsValidPhoneNumber(*r.Phone) {
		errs.Add("phone", "invalid phone number format")
	}
	if r.ProfilePicture != nil && validator.IsEmpty(r.ProfilePictureFilename) {
		errs.Add("profile_picture", "profile_picture filename is required")
	}

	return errs.Err()
}

// UpdateEmployeeRequest is the admin edit. Status is not editable.
type UpdateEmployeeRequest struct {
	Name       *string          `json:"name"`
	Email      *string          `json:"email"`
	Phone      *string          `json:"phone"`
	Address    *string          `json:"address"`
	Department *string          `json:"department"`
	Position   *string          `json:"position"`
	Salary     *decimal.Decimal `json:"salary"`
}

func (r *UpdateEmployeeRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.Name != nil {
		validateName(&errs, *r.Name)
	}
	if r.Email != nil {
		validateEmail(&errs, *r.Email)
	}
	if r.Phone != nil && !validator.IsEmpty(*r.Phone) && !validator.IsValidPhoneNumber(*r.Phone) {
		errs.Add("phone", "invalid phone number format")
	}
	if r.Salary != nil && r.Salary.IsNegative() {
		errs.Add("salary", "salary must not be negative")
	}

	return errs.Err()
}

// OnlyProfileFields reports whether the request touches nothing beyond what
// an employee may edit on their own record.
func (r *UpdateEmployeeRequest) OnlyProfileFields() bool {
	return r.Email == nil && r.Department == nil && r.Position == nil && r.Salary == nil
}

// UpdateFields is a partial update; nil means keep the stored value.
type UpdateFields struct {
	Name           *string
	Email          *string
	Phone          *string
	Address        *string
	Department     *string
	Position       *string
	Salary         *decimal.Decimal
	ProfilePicture *string
}

func (f UpdateFields) Apply(e *Employee) {
	if f.Name != nil {
		e.Name = *f.Name
	}
	if f.Email != nil {
		e.Email = NormalizeEmail(*f.Email)
	}
	if f.Phone != nil {
		e.Phone = *f.Phone
	}
	if f.Address != nil {
		e.Address = *f.Address
	}
	if f.Department != nil {
		e.Department = *f.Department
	}
	if f.Position != nil {
		e.Position = *f.Position
	}
	if f.Salary != nil {
		e.Salary = *f.Salary
	}
	if f.ProfilePicture != nil {
		picture := *f.ProfilePicture
		e.ProfilePicture = &picture
	}
}

type EmployeeResponse struct {
	ID             string          `json:"id"`
	Email          string          `json:"email"`
	Role           string          `json:"role"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Address        string          `json:"address"`
	Department     string          `json:"department"`
	Position       string          `json:"position"`
	Salary         decimal.Decimal `json:"salary"`
	JoinDate       string          `json:"join_date"`
	ProfilePicture *string         `json:"profile_picture"`
	Status         string          `json:"status"`
}

// NewEmployeeResponse renders e with the given derived status; the password hash never leaves the service.
func NewEmployeeResponse(e Employee, status Status) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID,
		Email:          e.Email,
		Role:           string(e.Role),
		Name:           e.Name,
		Phone:          e.Phone,
		Address:        e.Address,
		Department:     e.Department,
		Position:       e.Position,
		Salary:         e.Salary,
		JoinDate:       e.JoinDate,
		ProfilePicture: e.ProfilePicture,
		Status:         string(status),
	}
}

func validateEmail(errs *validator.ValidationErrors, email string) {
	if validator.IsEmpty(email) {
		errs.Add("email", "email is required")
	} else if !validator.IsValidEmail(email) {
		errs.Add("email", "invalid email format")
	}
}

func validateName(errs *validator.ValidationErrors, name string) {
	if validator.IsEmpty(name) {
		errs.Add("name", "name is required")
	} else if len(name) > 255 {
		errs.Add("name", "name must not exceed 255 characters")
	}
}
