// Package domain defines the core entities of the certificate processing
// pipeline and the rules that govern how they may change over time.
package domain

import "time"

// Student is registered once, explicitly, and never created implicitly by
// the intake path.
type Student struct {
	ID                 int64
	EnrollmentNumber   string
	Name               string
	Email              *string
	TotalApprovedHours int64
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CalculationType selects the hours formula an ActivityCategory applies.
type CalculationType string

const (
	CalculationFixedPerSemester CalculationType = "fixed_per_semester"
	CalculationFixedPerActivity CalculationType = "fixed_per_activity"
	CalculationRatioHours       CalculationType = "ratio_hours"
	CalculationRatioDays        CalculationType = "ratio_days"
	CalculationRatioPages       CalculationType = "ratio_pages"
)

// ActivityCategory is policy data, pre-seeded, referenced weakly by
// ExtractedActivity rows.
type ActivityCategory struct {
	ID              int64
	Name            string
	Description     string
	CalculationType CalculationType
	HoursAwarded    *int64
	InputUnit       string
	InputQuantity   *int64
	OutputHours     *int64
	MaxTotalHours   int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CertificateSubmission is the spine of the pipeline: one durable record of
// a student's upload progressing through the state machine in status.go.
type CertificateSubmission struct {
	ID                      int64
	StudentID               int64
	OriginalFilename        string
	ObjectKey               string
	FileChecksum            string
	FileSize                int64
	MimeType                string
	Status                  Status
	ErrorMessage            *string
	SubmittedAt             time.Time
	ProcessingStartedAt     *time.Time
	ProcessingCompletedAt   *time.Time
}

// CertificateOcrText is 1:1 with a submission, created at the end of stage
// 1 (the ingest worker) and immutable thereafter.
type CertificateOcrText struct {
	ID                int64
	SubmissionID      int64
	RawText           string
	OcrConfidence     float64
	ProcessingTimeMs  int64
	ExtractedAt       time.Time
}

// ExtractionMethod records how CertificateMetadata fields were obtained.
type ExtractionMethod string

const ExtractionMethodLLM ExtractionMethod = "llm"

// CertificateMetadata is the structured field extraction produced by stage
// 2 (the OCR worker). original_hours preserves the LLM's verbatim string;
// numeric_hours is the parsed integer, if any.
type CertificateMetadata struct {
	ID                    int64
	SubmissionID          int64
	ParticipantName       *string
	EventName             *string
	Location              *string
	EventDate             *string
	OriginalHours         *string
	NumericHours          *int64
	ExtractionMethod      ExtractionMethod
	ExtractionConfidence  *float64
	ProcessingTimeMs      int64
	ExtractedAt           time.Time
}

// ReviewStatus tracks an ExtractedActivity through coordinator review.
type ReviewStatus string

const (
	ReviewPendingReview   ReviewStatus = "pending_review"
	ReviewApproved        ReviewStatus = "approved"
	ReviewRejected        ReviewStatus = "rejected"
	ReviewManualOverride  ReviewStatus = "manual_override"
)

// ExtractedActivity is the reviewable record produced by stage 3 (the
// metadata worker): a category choice, computed hours, and the fields a
// coordinator may approve, reject, or override.
type ExtractedActivity struct {
	ID                 int64
	SubmissionID       int64
	MetadataID         int64
	StudentID          int64
	EnrollmentNumber   string
	Filename           string
	ParticipantName    *string
	EventName          *string
	Location           *string
	EventDate          *string
	CategoryID         int64
	CalculatedHours    int64
	LlmReasoning       string
	RawText            string
	ReviewStatus       ReviewStatus
	CoordinatorID      *string
	CoordinatorComments *string
	ReviewedAt         *time.Time
	OverrideCategoryID *int64
	OverrideHours      *int64
	OverrideReasoning  *string
	FinalCategoryID    *int64
	FinalHours         *int64
	ProcessedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
