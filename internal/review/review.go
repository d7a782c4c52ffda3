// Package review implements the coordinator review workflow (C12):
// list pending, detail, approve (with optional override), reject, grounded
// on original_source/routes/coordinator.py's list_pending_submissions,
// get_submission_detail, approve_submission, and reject_submission.
package review

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/repository"
)

const presignExpiry = time.Hour

// CategoryNotFoundError is returned by Approve when an override names a
// category_id absent from the catalog (spec.md §8 scenario 6); it maps to
// a 400 at the HTTP boundary, unlike a missing submission/student which is
// a 404.
type CategoryNotFoundError struct {
	CategoryID int64
}

func (e *CategoryNotFoundError) Error() string {
	return fmt.Sprintf("Category with ID %d does not exist", e.CategoryID)
}

func (e *CategoryNotFoundError) Is(target error) bool {
	return target == domain.ErrCategoryNotFound
}

// Service implements the coordinator-facing review operations.
type Service struct {
	Submissions *repository.SubmissionRepository
	Students    *repository.StudentRepository
	OcrTexts    *repository.OcrTextRepository
	Metadata    *repository.MetadataRepository
	Categories  *repository.CategoryRepository
	Activities  *repository.ActivityRepository
	Store       objectstore.Store
}

func New(submissions *repository.SubmissionRepository, students *repository.StudentRepository, ocrTexts *repository.OcrTextRepository, metadata *repository.MetadataRepository, categories *repository.CategoryRepository, activities *repository.ActivityRepository, store objectstore.Store) *Service {
	return &Service{
		Submissions: submissions, Students: students, OcrTexts: ocrTexts,
		Metadata: metadata, Categories: categories, Activities: activities, Store: store,
	}
}

// Row is one entry in a pending-review listing: the submission enriched
// with student, metadata, activity, and a presigned download URL (§4.7).
type Row struct {
	Submission  *domain.CertificateSubmission
	Student     *domain.Student
	Metadata    *domain.CertificateMetadata
	Activity    *domain.ExtractedActivity
	DownloadURL string
}

// ListPendingResult is the page returned by ListPending.
type ListPendingResult struct {
	Rows  []*Row
	Total int
}

// ListPendingParams narrows the listing by status, enrollment, and page.
type ListPendingParams struct {
	Status           string
	EnrollmentNumber string
	Page, PerPage    int
}

// ListPending returns one page of submissions in the given status (default
// pending_review), each enriched per spec.md §4.7.
func (s *Service) ListPending(ctx context.Context, p ListPendingParams) (*ListPendingResult, error) {
	status := p.Status
	if status == "" {
		status = string(domain.StatusPendingReview)
	}

	submissions, total, err := s.Submissions.ListPending(ctx, repository.ListPendingFilter{
		Status: status, EnrollmentNumber: p.EnrollmentNumber, Page: p.Page, PerPage: p.PerPage,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]*Row, 0, len(submissions))
	for _, sub := range submissions {
		row, err := s.enrich(ctx, sub)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return &ListPendingResult{Rows: rows, Total: total}, nil
}

// Detail returns the full object for one submission (§4.7 "Detail").
func (s *Service) Detail(ctx context.Context, submissionID int64) (*Row, error) {
	submission, err := s.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, submission)
}

func (s *Service) enrich(ctx context.Context, submission *domain.CertificateSubmission) (*Row, error) {
	student, err := s.Students.GetByID(ctx, submission.StudentID)
	if err != nil {
		return nil, err
	}

	metadata, err := s.Metadata.GetBySubmissionID(ctx, submission.ID)
	if err != nil {
		return nil, err
	}

	activity, err := s.Activities.GetBySubmissionID(ctx, submission.ID)
	if err != nil {
		return nil, err
	}

	// Presign failures are tolerated silently, leaving the URL empty — a
	// coordinator can still review the record without a working download link.
	downloadURL, _ := s.Store.PresignGET(ctx, submission.ObjectKey, presignExpiry)

	return &Row{
		Submission:  submission,
		Student:     student,
		Metadata:    metadata,
		Activity:    activity,
		DownloadURL: downloadURL,
	}, nil
}

// ApproveParams is the coordinator's decision for Approve.
type ApproveParams struct {
	CoordinatorID   string
	FinalHours      *int64
	FinalCategoryID *int64
	OverrideReason  *string
}

// Approve runs the five-step approval algorithm of spec.md §4.7 atomically:
// validate preconditions, apply overrides, mark the activity approved, mark
// the submission approved, accrue the student's total hours.
func (s *Service) Approve(ctx context.Context, submissionID int64, p ApproveParams) error {
	submission, err := s.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if submission.Status != domain.StatusPendingReview {
		return domain.ErrNotPendingReview
	}

	activity, err := s.Activities.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return err
	}
	if activity == nil {
		return domain.ErrSubmissionNotFound
	}

	overridingCategory := p.FinalCategoryID != nil && *p.FinalCategoryID != activity.CategoryID
	overridingHours := p.FinalHours != nil && *p.FinalHours != activity.CalculatedHours
	if (overridingCategory || overridingHours) && (p.OverrideReason == nil || *p.OverrideReason == "") {
		return domain.ErrOverrideReasonRequired
	}

	if p.FinalHours != nil && *p.FinalHours < 0 {
		return fmt.Errorf("%w: final_hours must be non-negative", domain.ErrValidation)
	}

	finalCategoryID := activity.CategoryID
	var overrideCategoryID *int64
	if p.FinalCategoryID != nil {
		exists, err := s.Categories.Exists(ctx, *p.FinalCategoryID)
		if err != nil {
			return err
		}
		if !exists {
			return &CategoryNotFoundError{CategoryID: *p.FinalCategoryID}
		}
		finalCategoryID = *p.FinalCategoryID
		overrideCategoryID = p.FinalCategoryID
	}

	finalHours := activity.CalculatedHours
	var overrideHours *int64
	if p.FinalHours != nil {
		finalHours = *p.FinalHours
		overrideHours = p.FinalHours
	}

	return s.Activities.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.Activities.Approve(ctx, tx, activity.ID, repository.ApproveParams{
			OverrideCategoryID: overrideCategoryID,
			OverrideHours:      overrideHours,
			OverrideReasoning:  p.OverrideReason,
			FinalCategoryID:    finalCategoryID,
			FinalHours:         finalHours,
			CoordinatorID:      p.CoordinatorID,
		}); err != nil {
			return err
		}
		if err := s.Submissions.UpdateStatusTx(ctx, tx, submissionID, domain.StatusApproved, repository.WithProcessingCompleted()); err != nil {
			return err
		}
		return repository.AddApprovedHours(ctx, tx, submission.StudentID, finalHours)
	})
}

// Reject marks the activity and submission rejected; student totals are
// left untouched (§4.7 "Reject").
func (s *Service) Reject(ctx context.Context, submissionID int64, reason string) error {
	submission, err := s.Submissions.GetByID(ctx, submissionID)
	if err != nil {
		return err
	}
	if submission.Status != domain.StatusPendingReview {
		return domain.ErrNotPendingReview
	}

	activity, err := s.Activities.GetBySubmissionID(ctx, submissionID)
	if err != nil {
		return err
	}
	if activity == nil {
		return domain.ErrSubmissionNotFound
	}

	return s.Activities.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.Activities.Reject(ctx, tx, activity.ID, reason); err != nil {
			return err
		}
		return s.Submissions.UpdateStatusTx(ctx, tx, submissionID, domain.StatusRejected, repository.WithProcessingCompleted())
	})
}
