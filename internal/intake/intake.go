// Package intake implements the submission intake service (C7): checksum,
// student lookup, dedup, object-store upload, persist, publish-after-commit,
// grounded on
// original_source/services/certificate_submission_service.py's
// submit_certificate (exact step order, exact error identifiers, the
// publish-after-commit sequencing).
package intake

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/repository"
)

// Service implements Submit per spec.md §4.1.
type Service struct {
	DB          *sql.DB
	Students    *repository.StudentRepository
	Submissions *repository.SubmissionRepository
	Store       objectstore.Store
	Publisher   *bus.Publisher
}

// New constructs a Service from its collaborators.
func New(db *sql.DB, students *repository.StudentRepository, submissions *repository.SubmissionRepository, store objectstore.Store, publisher *bus.Publisher) *Service {
	return &Service{DB: db, Students: students, Submissions: submissions, Store: store, Publisher: publisher}
}

// DuplicateError carries the prior submission's identity when intake
// detects a re-upload of identical content (§4.1 step 3).
type DuplicateError struct {
	ExistingSubmissionID int64
	ExistingSubmittedAt  time.Time
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate file detected, existing submission %d", e.ExistingSubmissionID)
}

func (e *DuplicateError) Unwrap() error { return domain.ErrDuplicateFile }

// Request is the input to Submit.
type Request struct {
	FileContent      []byte
	OriginalFilename string
	EnrollmentNumber string
	MimeType         string
}

// Result is the output of a successful Submit.
type Result struct {
	SubmissionID int64
	Status       domain.Status
	Checksum     string
	SubmittedAt  time.Time
}

// Submit runs the six-step intake algorithm of spec.md §4.1: checksum,
// student lookup (never creates), dedup check, upload, insert+transition,
// then publish-after-commit.
func (s *Service) Submit(ctx context.Context, req Request) (*Result, error) {
	checksum := checksumOf(req.FileContent)

	student, err := s.Students.GetByEnrollmentNumber(ctx, req.EnrollmentNumber)
	if err != nil {
		return nil, err
	}

	existing, err := s.Submissions.GetByChecksum(ctx, student.ID, checksum)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, &DuplicateError{ExistingSubmissionID: existing.ID, ExistingSubmittedAt: existing.SubmittedAt}
	}

	extension := extensionOf(req.OriginalFilename)
	objectKey := objectstore.Key(req.EnrollmentNumber, checksum, extension)

	if err := s.Store.Upload(ctx, objectKey, req.FileContent, objectstore.ContentType(extension), map[string]string{
		"enrollment_number": req.EnrollmentNumber,
		"original_filename": req.OriginalFilename,
		"checksum":          checksum,
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUploadFailed, err)
	}

	var submission *domain.CertificateSubmission
	err = withTx(ctx, s.DB, func(tx *sql.Tx) error {
		var txErr error
		submission, txErr = s.Submissions.Create(ctx, tx, student.ID, req.OriginalFilename, objectKey, checksum, int64(len(req.FileContent)), req.MimeType)
		if txErr != nil {
			return txErr
		}
		return s.Submissions.UpdateStatusTx(ctx, tx, submission.ID, domain.StatusQueued)
	})
	if err != nil {
		return nil, err
	}

	// Database transaction committed above — now safe to publish (§4.1
	// "Why publish-after-commit").
	publishErr := s.Publisher.PublishIngest(ctx, bus.IngestMessage{
		SubmissionID:     submission.ID,
		EnrollmentNumber: req.EnrollmentNumber,
		ObjectKey:        objectKey,
		Checksum:         checksum,
		OriginalFilename: req.OriginalFilename,
	})
	if publishErr != nil {
		log.WithFields(log.Fields{"submission_id": submission.ID, "error": publishErr}).Error("failed to publish to processing queue")
		msg := "Failed to publish to processing queue"
		if failErr := s.Submissions.UpdateStatus(ctx, submission.ID, domain.StatusFailed, repository.WithErrorMessage(msg)); failErr != nil {
			log.WithFields(log.Fields{"submission_id": submission.ID, "error": failErr}).Error("failed to mark submission failed after queue failure")
		}
		return nil, domain.ErrQueueFailed
	}

	return &Result{
		SubmissionID: submission.ID,
		Status:       domain.StatusQueued,
		Checksum:     checksum,
		SubmittedAt:  submission.SubmittedAt,
	}, nil
}

func checksumOf(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// extensionOf returns the lowercased extension from a filename, defaulting
// to "pdf" when absent, matching
// certificate_ingest_consumer.py's `original_filename.split('.')[-1]`.
func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "pdf"
	}
	return strings.ToLower(filename[idx+1:])
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning intake transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing intake transaction: %w", err)
	}
	return nil
}
