// Package pipeline implements the three asynchronous stage workers (C8–C10)
// and their supervisor (C11), grounded on
// original_source/consumers/certificate_ingest_consumer.py,
// certificate_ocr_consumer.py, and certificate_metadata_consumer.py.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/objectstore"
	"github.com/eduflow/certflow/internal/ocr"
	"github.com/eduflow/certflow/internal/repository"
)

// IngestWorker consumes certificate.ingest: download, OCR, persist, publish
// (C8, spec.md §4.3).
type IngestWorker struct {
	Submissions *repository.SubmissionRepository
	OcrTexts    *repository.OcrTextRepository
	Store       objectstore.Store
	OCR         *ocr.Adapter
	Publisher   *bus.Publisher
}

// Handle processes one certificate.ingest message. Every error from step 3
// onward is caught, logged, and turned into a failed transition rather than
// propagated, matching the consumer's try/except-around-everything shape.
// A malformed message or a missing submission is dropped without a status
// change; an error loading the submission or moving it to ocr_processing
// is returned to the caller, also without marking it failed.
func (w *IngestWorker) Handle(ctx context.Context, payload []byte) error {
	var msg bus.IngestMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.WithField("error", err).Error("ingest: malformed message, dropping")
		return nil
	}

	submission, err := w.Submissions.GetByID(ctx, msg.SubmissionID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			log.WithField("submission_id", msg.SubmissionID).Warn("ingest: submission not found, dropping")
			return nil
		}
		return fmt.Errorf("loading submission %d: %w", msg.SubmissionID, err)
	}

	if err := w.Submissions.UpdateStatus(ctx, submission.ID, domain.StatusOcrProcessing); err != nil {
		return fmt.Errorf("transitioning submission %d to ocr_processing: %w", submission.ID, err)
	}

	data, err := w.Store.Download(ctx, msg.ObjectKey)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to download file from S3: %s", msg.ObjectKey))
		return nil
	}

	extension := extensionOf(msg.OriginalFilename)
	start := time.Now()
	text, confidence, err := w.OCR.ProcessFile(ctx, data, extension)
	elapsedMs := time.Since(start).Milliseconds()
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("OCR processing failed: %v", err))
		return nil
	}

	ocrText, err := w.OcrTexts.Create(ctx, submission.ID, text, confidence, elapsedMs)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to persist OCR text: %v", err))
		return nil
	}

	if err := w.Publisher.PublishOCR(ctx, bus.OCRMessage{
		SubmissionID:  submission.ID,
		OcrTextID:     ocrText.ID,
		RawText:       ocrText.RawText,
		OcrConfidence: ocrText.OcrConfidence,
	}); err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to publish to processing queue: %v", err))
		return nil
	}

	return nil
}

func (w *IngestWorker) fail(ctx context.Context, submissionID int64, message string) {
	if err := w.Submissions.UpdateStatus(ctx, submissionID, domain.StatusFailed, repository.WithErrorMessage(message)); err != nil {
		log.WithFields(log.Fields{"submission_id": submissionID, "error": err}).Error("ingest: failed to mark submission failed")
	}
}

// extensionOf mirrors intake's extension inference so the ingest worker can
// pick the right OCR code path without re-downloading the original filename
// from the DB.
func extensionOf(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "pdf"
	}
	return strings.ToLower(filename[idx+1:])
}
