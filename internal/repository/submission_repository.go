package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
)

// SubmissionRepository persists domain.CertificateSubmission rows, grounded
// on original_source/repositories/certificate_submission_repository.py
// (get_by_checksum, update_status, get_pending_submissions, reject_submission).
type SubmissionRepository struct {
	DB *sql.DB
}

func NewSubmissionRepository(database *sql.DB) *SubmissionRepository {
	return &SubmissionRepository{DB: database}
}

const submissionColumns = `id, student_id, original_filename, object_key, file_checksum, file_size,
	mime_type, status, error_message, submitted_at, processing_started_at, processing_completed_at`

func scanSubmission(row *sql.Row) (*domain.CertificateSubmission, error) {
	var s domain.CertificateSubmission
	var status string
	if err := row.Scan(&s.ID, &s.StudentID, &s.OriginalFilename, &s.ObjectKey, &s.FileChecksum,
		&s.FileSize, &s.MimeType, &status, &s.ErrorMessage, &s.SubmittedAt,
		&s.ProcessingStartedAt, &s.ProcessingCompletedAt); err != nil {
		return nil, err
	}
	s.Status = domain.Status(status)
	return &s, nil
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id int64) (*domain.CertificateSubmission, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+submissionColumns+` FROM certificate_submissions WHERE id = $1`, id)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSubmissionNotFound
	} else if err != nil {
		return nil, fmt.Errorf("loading submission %d: %w", id, err)
	}
	return s, nil
}

func (r *SubmissionRepository) GetByChecksum(ctx context.Context, studentID int64, checksum string) (*domain.CertificateSubmission, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT `+submissionColumns+` FROM certificate_submissions WHERE student_id = $1 AND file_checksum = $2`,
		studentID, checksum)
	s, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading submission by checksum: %w", err)
	}
	return s, nil
}

// Create inserts a submission with status=uploaded.
func (r *SubmissionRepository) Create(ctx context.Context, tx *sql.Tx, studentID int64, originalFilename, objectKey, checksum string, fileSize int64, mimeType string) (*domain.CertificateSubmission, error) {
	now := time.Now().UTC()
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO certificate_submissions
			(student_id, original_filename, object_key, file_checksum, file_size, mime_type, status, submitted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		studentID, originalFilename, objectKey, checksum, fileSize, mimeType, domain.StatusUploaded, now).
		Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating submission: %w", err)
	}
	return &domain.CertificateSubmission{
		ID: id, StudentID: studentID, OriginalFilename: originalFilename, ObjectKey: objectKey,
		FileChecksum: checksum, FileSize: fileSize, MimeType: mimeType,
		Status: domain.StatusUploaded, SubmittedAt: now,
	}, nil
}

// updateStatusOpts controls the optional side effects of UpdateStatus.
type updateStatusOpts struct {
	errorMessage          *string
	setProcessingStarted  bool
	setProcessingCompleted bool
}

// UpdateStatusTx validates and applies a status transition within tx,
// matching original_source's update_status(session, id, status, error_message?, update_processing_completed?).
func (r *SubmissionRepository) UpdateStatusTx(ctx context.Context, tx *sql.Tx, id int64, next domain.Status, opts ...func(*updateStatusOpts)) error {
	var o updateStatusOpts
	for _, apply := range opts {
		apply(&o)
	}

	row := tx.QueryRowContext(ctx, `SELECT status FROM certificate_submissions WHERE id = $1 FOR UPDATE`, id)
	var current string
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("loading submission %d for status update: %w", id, err)
	}

	if err := domain.Status(current).Validate(next); err != nil {
		return err
	}

	now := time.Now().UTC()
	var startedAt, completedAt interface{}
	if o.setProcessingStarted || next == domain.StatusOcrProcessing {
		startedAt = now
	}
	if o.setProcessingCompleted || next.RequiresCompletedAt() {
		completedAt = now
	}

	query := `UPDATE certificate_submissions SET status = $1, error_message = COALESCE($2, error_message)`
	args := []interface{}{next, o.errorMessage}
	argN := 3
	if startedAt != nil {
		query += fmt.Sprintf(`, processing_started_at = COALESCE(processing_started_at, $%d)`, argN)
		args = append(args, startedAt)
		argN++
	}
	if completedAt != nil {
		query += fmt.Sprintf(`, processing_completed_at = $%d`, argN)
		args = append(args, completedAt)
		argN++
	}
	query += fmt.Sprintf(` WHERE id = $%d`, argN)
	args = append(args, id)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("updating submission %d status to %s: %w", id, next, err)
	}
	return nil
}

// WithErrorMessage sets the error_message column for UpdateStatus/UpdateStatusTx.
func WithErrorMessage(msg string) func(*updateStatusOpts) {
	return func(o *updateStatusOpts) { o.errorMessage = &msg }
}

// WithProcessingCompleted forces processing_completed_at even for a status
// that doesn't require it by default.
func WithProcessingCompleted() func(*updateStatusOpts) {
	return func(o *updateStatusOpts) { o.setProcessingCompleted = true }
}

// UpdateStatus runs UpdateStatusTx in its own transaction, for callers that
// aren't already inside one (the common case in stage workers).
func (r *SubmissionRepository) UpdateStatus(ctx context.Context, id int64, next domain.Status, opts ...func(*updateStatusOpts)) error {
	return withTx(ctx, r.DB, func(tx *sql.Tx) error {
		return r.UpdateStatusTx(ctx, tx, id, next, opts...)
	})
}

// ListPendingFilter narrows the coordinator queue listing (C12).
type ListPendingFilter struct {
	Status            string
	EnrollmentNumber  string
	Page, PerPage     int
}

// ListPending returns a page of submissions joined to their student,
// matching original_source/routes/coordinator.py's pagination/ filter shape.
func (r *SubmissionRepository) ListPending(ctx context.Context, f ListPendingFilter) ([]*domain.CertificateSubmission, int, error) {
	f.PerPage = min(max(f.PerPage, 1), 100)
	if f.Page <= 0 {
		f.Page = 1
	}

	where := `WHERE cs.status = $1`
	args := []interface{}{f.Status}
	argN := 2
	if f.EnrollmentNumber != "" {
		where += fmt.Sprintf(` AND s.enrollment_number = $%d`, argN)
		args = append(args, f.EnrollmentNumber)
		argN++
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM certificate_submissions cs JOIN students s ON s.id = cs.student_id ` + where
	if err := r.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting pending submissions: %w", err)
	}

	query := fmt.Sprintf(`SELECT cs.%s FROM certificate_submissions cs JOIN students s ON s.id = cs.student_id %s
		ORDER BY cs.submitted_at ASC LIMIT $%d OFFSET $%d`,
		submissionColumnsQualified(), where, argN, argN+1)
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing pending submissions: %w", err)
	}
	defer rows.Close()

	var out []*domain.CertificateSubmission
	for rows.Next() {
		var s domain.CertificateSubmission
		var status string
		if err := rows.Scan(&s.ID, &s.StudentID, &s.OriginalFilename, &s.ObjectKey, &s.FileChecksum,
			&s.FileSize, &s.MimeType, &status, &s.ErrorMessage, &s.SubmittedAt,
			&s.ProcessingStartedAt, &s.ProcessingCompletedAt); err != nil {
			return nil, 0, fmt.Errorf("scanning pending submission row: %w", err)
		}
		s.Status = domain.Status(status)
		out = append(out, &s)
	}
	return out, total, rows.Err()
}

func submissionColumnsQualified() string {
	return `id, student_id, original_filename, object_key, file_checksum, file_size,
	mime_type, status, error_message, submitted_at, processing_started_at, processing_completed_at`
}

// ListByStudent returns a student's submissions, optionally filtered by
// status, clamped to at most 100 rows (original_source/routes/certificate.py).
func (r *SubmissionRepository) ListByStudent(ctx context.Context, studentID int64, status string, limit int) ([]*domain.CertificateSubmission, error) {
	limit = min(max(limit, 1), 100)
	query := `SELECT ` + submissionColumnsQualified() + ` FROM certificate_submissions WHERE student_id = $1`
	args := []interface{}{studentID}
	if status != "" {
		query += ` AND status = $2 ORDER BY submitted_at DESC LIMIT $3`
		args = append(args, status, limit)
	} else {
		query += ` ORDER BY submitted_at DESC LIMIT $2`
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing submissions for student %d: %w", studentID, err)
	}
	defer rows.Close()

	var out []*domain.CertificateSubmission
	for rows.Next() {
		var s domain.CertificateSubmission
		var st string
		if err := rows.Scan(&s.ID, &s.StudentID, &s.OriginalFilename, &s.ObjectKey, &s.FileChecksum,
			&s.FileSize, &s.MimeType, &st, &s.ErrorMessage, &s.SubmittedAt,
			&s.ProcessingStartedAt, &s.ProcessingCompletedAt); err != nil {
			return nil, fmt.Errorf("scanning submission row: %w", err)
		}
		s.Status = domain.Status(st)
		out = append(out, &s)
	}
	return out, rows.Err()
}
