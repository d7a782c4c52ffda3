package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/eduflow/certflow/internal/review"
)

func (h *handlers) pendingSubmissions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if page <= 0 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	result, err := h.d.Review.ListPending(r.Context(), review.ListPendingParams{
		Status:           q.Get("status"),
		EnrollmentNumber: q.Get("enrollment"),
		Page:             page,
		PerPage:          perPage,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	rows := make([]envelope, 0, len(result.Rows))
	for _, row := range result.Rows {
		rows = append(rows, reviewRowJSON(row))
	}

	pages := (result.Total + perPage - 1) / perPage
	writeJSON(w, http.StatusOK, envelope{
		"success": true,
		"data":    rows,
		"pagination": envelope{
			"page": page, "per_page": perPage, "total": result.Total, "pages": pages,
		},
	})
}

func (h *handlers) submissionDetail(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	row, err := h.d.Review.Detail(r.Context(), submissionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "data": reviewRowJSON(row)})
}

type approveRequest struct {
	FinalHours      *int64  `json:"final_hours"`
	FinalCategoryID *int64  `json:"final_category_id"`
	OverrideReason  *string `json:"override_reason"`
}

func (h *handlers) approveSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	var req approveRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Request body must be JSON or empty")
			return
		}
	}

	if (req.FinalHours != nil || req.FinalCategoryID != nil) && (req.OverrideReason == nil || *req.OverrideReason == "") {
		writeError(w, http.StatusBadRequest, "override_reason is required when overriding hours or category")
		return
	}

	err = h.d.Review.Approve(r.Context(), submissionID, review.ApproveParams{
		CoordinatorID:   "system",
		FinalHours:      req.FinalHours,
		FinalCategoryID: req.FinalCategoryID,
		OverrideReason:  req.OverrideReason,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":       true,
		"message":       "Submission approved successfully",
		"submission_id": submissionID,
	})
}

type rejectRequest struct {
	Reason string `json:"reason" validate:"required"`
}

func (h *handlers) rejectSubmission(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	var req rejectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Reason == "" {
		writeError(w, http.StatusBadRequest, "Rejection reason is required")
		return
	}

	if err := h.d.Review.Reject(r.Context(), submissionID, req.Reason); err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		"success":       true,
		"message":       "Submission rejected successfully",
		"submission_id": submissionID,
		"reason":        req.Reason,
	})
}

func reviewRowJSON(row *review.Row) envelope {
	var metaJSON envelope
	if row.Metadata != nil {
		metaJSON = envelope{
			"event_name":       row.Metadata.EventName,
			"participant_name": row.Metadata.ParticipantName,
			"location":         row.Metadata.Location,
			"event_date":       row.Metadata.EventDate,
			"original_hours":   row.Metadata.OriginalHours,
			"numeric_hours":    row.Metadata.NumericHours,
		}
	}

	var activityJSON envelope
	if row.Activity != nil {
		activityJSON = envelope{
			"id":                 row.Activity.ID,
			"category_id":        row.Activity.CategoryID,
			"calculated_hours":   row.Activity.CalculatedHours,
			"final_hours":        row.Activity.FinalHours,
			"final_category_id":  row.Activity.FinalCategoryID,
			"llm_reasoning":      row.Activity.LlmReasoning,
			"review_status":      row.Activity.ReviewStatus,
			"processed_at":       row.Activity.ProcessedAt,
		}
	}

	var studentJSONVal envelope
	if row.Student != nil {
		studentJSONVal = envelope{
			"enrollment_number": row.Student.EnrollmentNumber,
			"name":              row.Student.Name,
		}
	}

	return envelope{
		"submission_id":     row.Submission.ID,
		"status":            row.Submission.Status,
		"original_filename": row.Submission.OriginalFilename,
		"submitted_at":      row.Submission.SubmittedAt,
		"student":           studentJSONVal,
		"metadata":          metaJSON,
		"extracted_activity": activityJSON,
		"download_url":      row.DownloadURL,
	}
}
