package http

import (
	"encoding/json"
	"log/slog"
	"mime"
	"net/http"

	"github.com/cmlabs-hris/dayflow/internal/domain/employee"
	"github.com/cmlabs-hris/dayflow/internal/handler/http/response"
	"github.com/cmlabs-hris/dayflow/internal/service/file"
)

// maxProfileFormSize bounds the multipart body; the picture itself is checked by the file service.
const maxProfileFormSize = file.MaxProfilePictureSize + 1<<20

type ProfileHandler interface {
	GetProfile(w http.ResponseWriter, r *http.Request)
	UpdateProfile(w http.ResponseWriter, r *http.Request)
}

type profileHandlerImpl struct {
	employeeService employee.EmployeeService
}

func NewProfileHandler(employeeService employee.EmployeeService) ProfileHandler {
	return &profileHandlerImpl{
		employeeService: employeeService,
	}
}

// GetProfile implements ProfileHandler.
func (h *profileHandlerImpl) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.employeeService.GetProfile(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, profile)
}

// UpdateProfile implements ProfileHandler. It accepts either a JSON body or a
// multipart form with optional name, phone, address and profile_picture parts.
func (h *profileHandlerImpl) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req employee.UpdateProfileRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		r.Body = http.MaxBytesReader(w, r.Body, maxProfileFormSize)
		if err := r.ParseMultipartForm(maxProfileFormSize); err != nil {
			slog.Error("Failed to parse multipart form", "error", err)
			response.BadRequest(w, "Failed to parse form data", nil)
			return
		}

		req.Name = formValue(r, "name")
		req.Phone = formValue(r, "phone")
		req.Address = formValue(r, "address")

		picture, header, err := r.FormFile("profile_picture")
		switch {
		case err == nil:
			defer picture.Close()
			req.ProfilePicture = picture
			req.ProfilePictureFilename = header.Filename
		case err != http.ErrMissingFile:
			slog.Error("Failed to get file from form", "error", err)
			response.BadRequest(w, "Invalid file upload", nil)
			return
		}
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("UpdateProfile decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	updated, err := h.employeeService.UpdateProfile(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Profile updated successfully", updated)
}

// formValue distinguishes a field that was sent empty from one that was not sent.
func formValue(r *http.Request, key string) *string {
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return nil
	}
	return &values[0]
}
