package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/eduflow/certflow/internal/domain"
)

// MetadataRepository persists domain.CertificateMetadata rows, grounded on
// original_source/repositories/certificate_metadata_repository.py.
type MetadataRepository struct {
	DB *sql.DB
}

func NewMetadataRepository(database *sql.DB) *MetadataRepository {
	return &MetadataRepository{DB: database}
}

// MetadataCreateParams mirrors the Portuguese-to-English field mapping performed in
// original_source/consumers/certificate_ocr_consumer.py before persisting.
type MetadataCreateParams struct {
	SubmissionID     int64
	ParticipantName  *string
	EventName        *string
	Location         *string
	EventDate        *string
	OriginalHours    *string
	NumericHours     *int64
	ProcessingTimeMs int64
}

func (r *MetadataRepository) Create(ctx context.Context, p MetadataCreateParams) (*domain.CertificateMetadata, error) {
	now := time.Now().UTC()
	var id int64
	err := r.DB.QueryRowContext(ctx,
		`INSERT INTO certificate_metadata
			(submission_id, participant_name, event_name, location, event_date, original_hours,
			 numeric_hours, extraction_method, processing_time_ms, extracted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		p.SubmissionID, p.ParticipantName, p.EventName, p.Location, p.EventDate, p.OriginalHours,
		p.NumericHours, domain.ExtractionMethodLLM, p.ProcessingTimeMs, now).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("creating metadata for submission %d: %w", p.SubmissionID, err)
	}
	return &domain.CertificateMetadata{
		ID: id, SubmissionID: p.SubmissionID, ParticipantName: p.ParticipantName,
		EventName: p.EventName, Location: p.Location, EventDate: p.EventDate,
		OriginalHours: p.OriginalHours, NumericHours: p.NumericHours,
		ExtractionMethod: domain.ExtractionMethodLLM, ProcessingTimeMs: p.ProcessingTimeMs, ExtractedAt: now,
	}, nil
}

func (r *MetadataRepository) GetBySubmissionID(ctx context.Context, submissionID int64) (*domain.CertificateMetadata, error) {
	row := r.DB.QueryRowContext(ctx,
		`SELECT id, submission_id, participant_name, event_name, location, event_date, original_hours,
			numeric_hours, extraction_method, extraction_confidence, processing_time_ms, extracted_at
		 FROM certificate_metadata WHERE submission_id = $1 ORDER BY id DESC LIMIT 1`, submissionID)

	var m domain.CertificateMetadata
	var method string
	var confidence sql.NullFloat64
	err := row.Scan(&m.ID, &m.SubmissionID, &m.ParticipantName, &m.EventName, &m.Location, &m.EventDate,
		&m.OriginalHours, &m.NumericHours, &method, &confidence, &m.ProcessingTimeMs, &m.ExtractedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("loading metadata for submission %d: %w", submissionID, err)
	}
	m.ExtractionMethod = domain.ExtractionMethod(method)
	if confidence.Valid {
		m.ExtractionConfidence = &confidence.Float64
	}
	return &m, nil
}
