package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/intake"
	"github.com/eduflow/certflow/internal/review"
)

// envelope is the JSON shape used across the HTTP surface, matching the
// original_source routes' `{success, ...}` / `{error, ...}` bodies.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithField("error", err).Error("writing JSON response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "error": message})
}

// writeServiceError maps a domain/service error to the status codes of
// spec.md §7's error taxonomy.
func writeServiceError(w http.ResponseWriter, err error) {
	var dup *intake.DuplicateError
	var badCategory *review.CategoryNotFoundError

	switch {
	case errors.As(err, &dup):
		writeJSON(w, http.StatusConflict, envelope{
			"success":              false,
			"error":                "Duplicate file detected",
			"existing_submission_id": dup.ExistingSubmissionID,
			"existing_submitted_at":  dup.ExistingSubmittedAt,
		})
	case errors.As(err, &badCategory):
		writeError(w, http.StatusBadRequest, badCategory.Error())
	case errors.Is(err, domain.ErrStudentNotFound), errors.Is(err, domain.ErrSubmissionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrStudentExists), errors.Is(err, domain.ErrNotPendingReview),
		errors.Is(err, domain.ErrOverrideReasonRequired), errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrUploadFailed):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrQueueFailed):
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		log.WithField("error", err).Error("unhandled service error")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
