package domain

import "errors"

// Error kinds from the taxonomy in spec §7. Callers compare with
// errors.Is; HTTP handlers map these to status codes.
var (
	// ErrStudentNotFound is returned by intake when the submitting
	// enrollment number has no registered student. Intake never creates
	// students implicitly.
	ErrStudentNotFound = errors.New("student not found")

	// ErrDuplicateFile is returned when (student_id, file_checksum)
	// already has a submission.
	ErrDuplicateFile = errors.New("duplicate file detected")

	// ErrUploadFailed is returned when the object store rejects an
	// upload; no submission row is created.
	ErrUploadFailed = errors.New("failed to upload file to storage")

	// ErrQueueFailed is returned when publishing the post-commit bus
	// message fails; the submission is moved to failed.
	ErrQueueFailed = errors.New("failed to publish to processing queue")

	// ErrSubmissionNotFound, ErrCategoryNotFound, ErrStudentExists are
	// plain NotFound/Conflict kinds used across services.
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrCategoryNotFound   = errors.New("category not found")
	ErrStudentExists      = errors.New("student already exists")

	// ErrNotPendingReview is the Conflict kind raised by the review
	// service when approve/reject is attempted outside pending_review.
	ErrNotPendingReview = errors.New("submission is not pending review")

	// ErrOverrideReasonRequired is raised when an approval overrides
	// hours or category without a reason.
	ErrOverrideReasonRequired = errors.New("override_reason is required when overriding hours or category")

	// ErrValidation is a generic ValidationError kind for HTTP-boundary
	// input problems not covered by a more specific sentinel.
	ErrValidation = errors.New("validation error")
)
