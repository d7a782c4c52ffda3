// Package statusapi implements the student-facing status service (C13):
// one submission's status plus a presigned download URL, and a student's
// submission history, grounded on
// original_source/services/certificate_submission_service.py's
// get_submission_status / get_student_submissions and their shared
// _add_presigned_url_to_submission helper.
package statusapi

import (
	"context"
	"time"

	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/repository"
)

const presignExpiry = time.Hour

// Service answers student-facing status and history queries.
type Service struct {
	Submissions *repository.SubmissionRepository
	Students    *repository.StudentRepository
	Store       objectstore.Store
}

func New(submissions *repository.SubmissionRepository, students *repository.StudentRepository, store objectstore.Store) *Service {
	return &Service{Submissions: submissions, Students: students, Store: store}
}

// Submission pairs a persisted submission with its (best-effort) presigned
// download URL; DownloadURL is empty when presigning fails, matching
// _add_presigned_url_to_submission's catch-and-continue behavior.
type Submission struct {
	*domain.CertificateSubmission
	DownloadURL string
}

// Status returns one submission by id, enriched with a download URL.
func (s *Service) Status(ctx context.Context, submissionID int64) (*Submission, error) {
	submission, err := s.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return s.withPresignedURL(ctx, submission), nil
}

// History returns a student's submissions, optionally filtered by status,
// newest first, limited to at most 100 rows.
func (s *Service) History(ctx context.Context, enrollmentNumber, status string, limit int) ([]*Submission, error) {
	student, err := s.Students.GetByEnrollmentNumber(ctx, enrollmentNumber)
	if err != nil {
		return nil, err
	}

	submissions, err := s.Submissions.ListByStudent(ctx, student.ID, status, limit)
	if err != nil {
		return nil, err
	}

	out := make([]*Submission, 0, len(submissions))
	for _, sub := range submissions {
		out = append(out, s.withPresignedURL(ctx, sub))
	}
	return out, nil
}

func (s *Service) withPresignedURL(ctx context.Context, submission *domain.CertificateSubmission) *Submission {
	url, err := s.Store.PresignGET(ctx, submission.ObjectKey, presignExpiry)
	if err != nil {
		url = ""
	}
	return &Submission{CertificateSubmission: submission, DownloadURL: url}
}
