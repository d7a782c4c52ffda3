package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eduflow/certflow/internal/domain"
)

type registerStudentRequest struct {
	EnrollmentNumber string `json:"enrollment_number" validate:"required"`
	Name             string `json:"name" validate:"required"`
	Email            string `json:"email" validate:"omitempty,email"`
}

func (h *handlers) registerStudent(w http.ResponseWriter, r *http.Request) {
	var req registerStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}
	req.EnrollmentNumber = strings.TrimSpace(req.EnrollmentNumber)
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.EnrollmentNumber == "" {
		writeError(w, http.StatusBadRequest, "enrollment_number is required")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid email format")
		return
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	student, err := h.d.Students.Create(r.Context(), req.EnrollmentNumber, req.Name, email)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{"success": true, "student": studentJSON(student)})
}

func (h *handlers) getStudent(w http.ResponseWriter, r *http.Request) {
	enrollmentNumber := chi.URLParam(r, "enrollmentNumber")
	student, err := h.d.Students.GetByEnrollmentNumber(r.Context(), enrollmentNumber)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "student": studentJSON(student)})
}

type updateStudentRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

func (h *handlers) updateStudent(w http.ResponseWriter, r *http.Request) {
	enrollmentNumber := chi.URLParam(r, "enrollmentNumber")

	var req updateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "No JSON data provided")
		return
	}

	clearEmail := req.Email != nil && strings.TrimSpace(*req.Email) == ""
	student, err := h.d.Students.Update(r.Context(), enrollmentNumber, req.Name, req.Email, clearEmail)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "student": studentJSON(student)})
}

func studentJSON(s *domain.Student) envelope {
	return envelope{
		"id":                   s.ID,
		"enrollment_number":    s.EnrollmentNumber,
		"name":                 s.Name,
		"email":                s.Email,
		"total_approved_hours": s.TotalApprovedHours,
		"created_at":           s.CreatedAt,
		"updated_at":           s.UpdatedAt,
	}
}
