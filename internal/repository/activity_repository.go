package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
)

// ActivityRepository persists domain.ExtractedActivity rows, grounded on
// original_source/repositories/extracted_activity_repository.py
// (create, get_by_submission_id, reject_activity) and the approve/reject
// handlers in original_source/routes/coordinator.py.
type ActivityRepository struct {
	DB *sql.DB
}

func NewActivityRepository(database *sql.DB) *ActivityRepository {
	return &ActivityRepository{DB: database}
}

const activityColumns = `id, submission_id, metadata_id, student_id, enrollment_number, filename,
	participant_name, event_name, location, event_date, category_id, calculated_hours, llm_reasoning,
	raw_text, review_status, coordinator_id, coordinator_comments, reviewed_at, override_category_id,
	override_hours, override_reasoning, final_category_id, final_hours, processed_at, created_at, updated_at`

func scanActivity(row *sql.Row) (*domain.ExtractedActivity, error) {
	var a domain.ExtractedActivity
	var reviewStatus string
	err := row.Scan(&a.ID, &a.SubmissionID, &a.MetadataID, &a.StudentID, &a.EnrollmentNumber, &a.Filename,
		&a.ParticipantName, &a.EventName, &a.Location, &a.EventDate, &a.CategoryID, &a.CalculatedHours,
		&a.LlmReasoning, &a.RawText, &reviewStatus, &a.CoordinatorID, &a.CoordinatorComments, &a.ReviewedAt,
		&a.OverrideCategoryID, &a.OverrideHours, &a.OverrideReasoning, &a.FinalCategoryID, &a.FinalHours,
		&a.ProcessedAt, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	a.ReviewStatus = domain.ReviewStatus(reviewStatus)
	return &a, nil
}

// CreateParams is the set of fields the metadata stage worker (C10) snapshots
// onto an ExtractedActivity at categorization time.
type CreateParams struct {
	SubmissionID     int64
	MetadataID       int64
	StudentID        int64
	EnrollmentNumber string
	Filename         string
	ParticipantName  *string
	EventName        *string
	Location         *string
	EventDate        *string
	CategoryID       int64
	CalculatedHours  int64
	LlmReasoning     string
	RawText          string
}

func (r *ActivityRepository) Create(ctx context.Context, p CreateParams) (*domain.ExtractedActivity, error) {
	now := time.Now().UTC()
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO extracted_activities
			(submission_id, metadata_id, student_id, enrollment_number, filename, participant_name,
			 event_name, location, event_date, category_id, calculated_hours, llm_reasoning, raw_text,
			 review_status, created_at, updated_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$15) RETURNING id`,
		p.SubmissionID, p.MetadataID, p.StudentID, p.EnrollmentNumber, p.Filename, p.ParticipantName,
		p.EventName, p.Location, p.EventDate, p.CategoryID, p.CalculatedHours, p.LlmReasoning, p.RawText,
		domain.ReviewPendingReview, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating extracted activity for submission %d: %w", p.SubmissionID, err)
	}
	return &domain.ExtractedActivity{
		ID: id, SubmissionID: p.SubmissionID, MetadataID: p.MetadataID, StudentID: p.StudentID,
		EnrollmentNumber: p.EnrollmentNumber, Filename: p.Filename, ParticipantName: p.ParticipantName,
		EventName: p.EventName, Location: p.Location, EventDate: p.EventDate, CategoryID: p.CategoryID,
		CalculatedHours: p.CalculatedHours, LlmReasoning: p.LlmReasoning, RawText: p.RawText,
		ReviewStatus: domain.ReviewPendingReview, CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (r *ActivityRepository) GetBySubmissionID(ctx context.Context, submissionID int64) (*domain.ExtractedActivity, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM extracted_activities WHERE submission_id = $1`, submissionID)
	a, err := scanActivity(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading activity for submission %d: %w", submissionID, err)
	}
	return a, nil
}

// ApproveParams captures the decided override/final values for Approve.
type ApproveParams struct {
	OverrideCategoryID *int64
	OverrideHours      *int64
	OverrideReasoning  *string
	FinalCategoryID    int64
	FinalHours         int64
	CoordinatorID      string
}

// Approve records the approval decision on the activity row within tx. It
// does not touch the submission or the student; the review service runs it
// in the same transaction as the submission status update and
// AddApprovedHours, matching original_source's approve_submission handler
// (activity fields + submission status + student total, one commit).
func (r *ActivityRepository) Approve(ctx context.Context, tx *sql.Tx, activityID int64, p ApproveParams) error {
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`UPDATE extracted_activities SET
			override_category_id = $1, override_hours = $2, override_reasoning = $3,
			final_category_id = $4, final_hours = $5, review_status = $6,
			reviewed_at = $7, coordinator_id = $8, processed_at = $7, updated_at = $7
		 WHERE id = $9`,
		p.OverrideCategoryID, p.OverrideHours, p.OverrideReasoning,
		p.FinalCategoryID, p.FinalHours, domain.ReviewApproved,
		now, p.CoordinatorID, activityID)
	if err != nil {
		return fmt.Errorf("approving activity %d: %w", activityID, err)
	}
	return nil
}

// Reject marks the activity rejected with the coordinator's reason,
// matching original_source's reject_activity.
func (r *ActivityRepository) Reject(ctx context.Context, tx *sql.Tx, activityID int64, reason string) error {
	now := time.Now().UTC()
	_, err := tx.ExecContext(ctx,
		`UPDATE extracted_activities SET review_status = $1, coordinator_comments = $2,
			reviewed_at = $3, processed_at = $3, updated_at = $3 WHERE id = $4`,
		domain.ReviewRejected, reason, now, activityID)
	if err != nil {
		return fmt.Errorf("rejecting activity %d: %w", activityID, err)
	}
	return nil
}

// WithTx runs fn inside a transaction owned by the repository's pool; the
// review service uses this to compose Approve/Reject with submission and
// student updates atomically.
func (r *ActivityRepository) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return withTx(ctx, r.DB, fn)
}
