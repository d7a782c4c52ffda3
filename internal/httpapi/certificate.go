package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/intake"
)

var allowedExtensions = map[string]bool{
	"pdf": true, "png": true, "jpg": true, "jpeg": true, "tiff": true, "bmp": true,
}

func extensionAllowed(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	return allowedExtensions[strings.ToLower(filename[idx+1:])]
}

// submitCertificate handles the multipart upload at POST
// /certificate/submit, matching certificate.py's submit_certificate.
func (h *handlers) submitCertificate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.d.Cfg.HTTP.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file exceeds the maximum allowed size")
			return
		}
		writeError(w, http.StatusBadRequest, "Malformed upload request")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Uploaded file exceeds the maximum allowed size")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	enrollmentNumber := strings.TrimSpace(r.FormValue("enrollment_number"))
	if enrollmentNumber == "" {
		writeError(w, http.StatusBadRequest, "Enrollment number cannot be empty")
		return
	}

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "No file selected")
		return
	}
	if !extensionAllowed(header.Filename) {
		writeError(w, http.StatusBadRequest, "File type not allowed")
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	result, err := h.d.Intake.Submit(r.Context(), intake.Request{
		FileContent:      content,
		OriginalFilename: header.Filename,
		EnrollmentNumber: enrollmentNumber,
		MimeType:         mimeType,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, envelope{
		"success":       true,
		"submission_id": result.SubmissionID,
		"status":        result.Status,
		"checksum":      result.Checksum,
		"submitted_at":  result.SubmittedAt,
	})
}

func (h *handlers) submissionStatus(w http.ResponseWriter, r *http.Request) {
	submissionID, err := strconv.ParseInt(chi.URLParam(r, "submissionID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid submission id")
		return
	}

	sub, err := h.d.Status.Status(r.Context(), submissionID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{"success": true, "submission": submissionJSON(sub.CertificateSubmission, sub.DownloadURL)})
}

func (h *handlers) studentSubmissions(w http.ResponseWriter, r *http.Request) {
	enrollmentNumber := chi.URLParam(r, "enrollmentNumber")
	status := r.URL.Query().Get("status")

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = parsed
	}

	submissions, err := h.d.Status.History(r.Context(), enrollmentNumber, status, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	data := make([]envelope, 0, len(submissions))
	for _, s := range submissions {
		data = append(data, submissionJSON(s.CertificateSubmission, s.DownloadURL))
	}
	writeJSON(w, http.StatusOK, envelope{"success": true, "submissions": data})
}

func submissionJSON(s *domain.CertificateSubmission, downloadURL string) envelope {
	return envelope{
		"id":                      s.ID,
		"status":                  s.Status,
		"original_filename":       s.OriginalFilename,
		"file_size":               s.FileSize,
		"mime_type":               s.MimeType,
		"error_message":           s.ErrorMessage,
		"submitted_at":            s.SubmittedAt,
		"processing_started_at":  s.ProcessingStartedAt,
		"processing_completed_at": s.ProcessingCompletedAt,
		"download_url":            downloadURL,
	}
}
