package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/llm"
	"github.com/eduflow/certflow/internal/repository"
)

// OcrFieldWorker consumes certificate.ocr: LLM field extraction, participant
// validation, persist, publish (C9, spec.md §4.4). Named to distinguish it
// from the C4 OCR adapter it does not itself invoke.
type OcrFieldWorker struct {
	Submissions *repository.SubmissionRepository
	Students    *repository.StudentRepository
	Metadata    *repository.MetadataRepository
	LLM         llm.Client
	Publisher   *bus.Publisher
}

func (w *OcrFieldWorker) Handle(ctx context.Context, payload []byte) error {
	var msg bus.OCRMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.WithField("error", err).Error("ocr: malformed message, dropping")
		return nil
	}

	submission, err := w.Submissions.GetByID(ctx, msg.SubmissionID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			log.WithField("submission_id", msg.SubmissionID).Warn("ocr: submission not found, dropping")
			return nil
		}
		return fmt.Errorf("loading submission %d: %w", msg.SubmissionID, err)
	}

	if err := w.Submissions.UpdateStatus(ctx, submission.ID, domain.StatusMetadataProcessing); err != nil {
		return fmt.Errorf("transitioning submission %d to metadata_processing: %w", submission.ID, err)
	}

	student, err := w.Students.GetByID(ctx, submission.StudentID)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to load student: %v", err))
		return nil
	}

	fields, err := w.LLM.Extract(ctx, msg.RawText)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("LLM extraction failed: %v", err))
		return nil
	}

	meta, err := w.Metadata.Create(ctx, repository.MetadataCreateParams{
		SubmissionID:    submission.ID,
		ParticipantName: fields.NomeParticipante,
		EventName:       fields.Evento,
		Location:        fields.Local,
		EventDate:       fields.Data,
		OriginalHours:   fields.CargaHoraria,
		NumericHours:    parseNumericHours(fields.CargaHoraria),
	})
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to persist metadata: %v", err))
		return nil
	}

	if !participantMatches(fields.NomeParticipante, student.Name) {
		extracted := ""
		if fields.NomeParticipante != nil {
			extracted = *fields.NomeParticipante
		}
		w.fail(ctx, submission.ID, fmt.Sprintf(
			"Certificate participant '%s' does not match student '%s' who submitted the file", extracted, student.Name))
		return nil
	}

	extractedData := map[string]interface{}{
		"nome_participante": fields.NomeParticipante,
		"evento":            fields.Evento,
		"local":             fields.Local,
		"data":              fields.Data,
		"carga_horaria":     fields.CargaHoraria,
	}

	if err := w.Publisher.PublishMetadata(ctx, bus.MetadataMessage{
		SubmissionID:  submission.ID,
		MetadataID:    meta.ID,
		ExtractedData: extractedData,
	}); err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to publish to processing queue: %v", err))
		return nil
	}

	return nil
}

func (w *OcrFieldWorker) fail(ctx context.Context, submissionID int64, message string) {
	if err := w.Submissions.UpdateStatus(ctx, submissionID, domain.StatusFailed,
		repository.WithErrorMessage(message), repository.WithProcessingCompleted()); err != nil {
		log.WithFields(log.Fields{"submission_id": submissionID, "error": err}).Error("ocr: failed to mark submission failed")
	}
}

// numericHoursPattern matches the first contiguous run of ASCII digits, per
// spec.md §4.4 step 3.
var numericHoursPattern = regexp.MustCompile(`\d+`)

func parseNumericHours(cargaHoraria *string) *int64 {
	if cargaHoraria == nil {
		return nil
	}
	match := numericHoursPattern.FindString(*cargaHoraria)
	if match == "" {
		return nil
	}
	var n int64
	for _, c := range match {
		n = n*10 + int64(c-'0')
	}
	return &n
}

// normalizePattern strips everything but letters (incl. accented), digits,
// and whitespace, matching the normalize step of spec.md §4.4 step 5.
var normalizePattern = regexp.MustCompile(`[^\p{L}\p{N}\s]`)
var collapseWhitespace = regexp.MustCompile(`\s+`)

func normalizeName(s string) string {
	s = strings.ToLower(s)
	s = normalizePattern.ReplaceAllString(s, "")
	s = collapseWhitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// participantMatches implements the three-way match rule of spec.md §4.4
// step 5: exact normalized equality, token-intersection size ≥ 2, or a
// single shared token longer than 3 characters.
func participantMatches(extracted *string, studentName string) bool {
	if extracted == nil {
		return false
	}
	a := normalizeName(*extracted)
	b := normalizeName(studentName)
	if a == "" {
		return false
	}
	if a == b {
		return true
	}

	aTokens := strings.Fields(a)
	bSet := make(map[string]struct{}, len(strings.Fields(b)))
	for _, t := range strings.Fields(b) {
		bSet[t] = struct{}{}
	}

	var shared []string
	for _, t := range aTokens {
		if _, ok := bSet[t]; ok {
			shared = append(shared, t)
		}
	}

	switch {
	case len(shared) >= 2:
		return true
	case len(shared) == 1:
		return len(shared[0]) > 3
	default:
		return false
	}
}
