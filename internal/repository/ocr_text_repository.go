package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
)

// OcrTextRepository persists domain.CertificateOcrText rows (1:1 with a
// submission), grounded on
// original_source/repositories/certificate_ocr_text_repository.py.
type OcrTextRepository struct {
	DB *sql.DB
}

func NewOcrTextRepository(database *sql.DB) *OcrTextRepository {
	return &OcrTextRepository{DB: database}
}

func (r *OcrTextRepository) Create(ctx context.Context, submissionID int64, rawText string, confidence float64, processingTimeMs int64) (*domain.CertificateOcrText, error) {
	now := time.Now().UTC()
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO certificate_ocr_texts (submission_id, raw_text, ocr_confidence, processing_time_ms, extracted_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		submissionID, rawText, confidence, processingTimeMs, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating ocr text for submission %d: %w", submissionID, err)
	}
	return &domain.CertificateOcrText{
		ID: id, SubmissionID: submissionID, RawText: rawText,
		OcrConfidence: confidence, ProcessingTimeMs: processingTimeMs, ExtractedAt: now,
	}, nil
}

func (r *OcrTextRepository) GetBySubmissionID(ctx context.Context, submissionID int64) (*domain.CertificateOcrText, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, submission_id, raw_text, ocr_confidence, processing_time_ms, extracted_at
		 FROM certificate_ocr_texts WHERE submission_id = $1`, submissionID)

	var o domain.CertificateOcrText
	var confidence sql.NullFloat64
	err := row.Scan(&o.ID, &o.SubmissionID, &o.RawText, &confidence, &o.ProcessingTimeMs, &o.ExtractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading ocr text for submission %d: %w", submissionID, err)
	}
	o.OcrConfidence = confidence.Float64
	return &o, nil
}
