package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/bus"
	"github.com/eduflow/certflow/internal/domain"
	"github.com/eduflow/certflow/internal/llm"
	"github.com/eduflow/certflow/internal/prompts"
	"github.com/eduflow/certflow/internal/repository"
)

// MetadataWorker consumes certificate.metadata: categorization, hours
// calculation, persist ExtractedActivity, transition to pending_review (C10,
// spec.md §4.5). It is the terminal automated stage — the next transition
// is driven by a coordinator via the review service.
type MetadataWorker struct {
	Submissions *repository.SubmissionRepository
	Students    *repository.StudentRepository
	OcrTexts    *repository.OcrTextRepository
	Categories  *repository.CategoryRepository
	Activities  *repository.ActivityRepository
	LLM         llm.Client
}

func (w *MetadataWorker) Handle(ctx context.Context, payload []byte) error {
	var msg bus.MetadataMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		log.WithField("error", err).Error("metadata: malformed message, dropping")
		return nil
	}

	submission, err := w.Submissions.GetByID(ctx, msg.SubmissionID)
	if err != nil {
		if errors.Is(err, domain.ErrSubmissionNotFound) {
			log.WithField("submission_id", msg.SubmissionID).Warn("metadata: submission not found, dropping")
			return nil
		}
		return fmt.Errorf("loading submission %d: %w", msg.SubmissionID, err)
	}

	if err := w.Submissions.UpdateStatus(ctx, submission.ID, domain.StatusCategorizationProcessing); err != nil {
		return fmt.Errorf("transitioning submission %d to categorization_processing: %w", submission.ID, err)
	}

	ocrText, err := w.OcrTexts.GetBySubmissionID(ctx, submission.ID)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to load OCR text: %v", err))
		return nil
	}
	rawText := ""
	if ocrText != nil {
		rawText = ocrText.RawText
	}
	msg.ExtractedData["raw_text"] = rawText

	categories, err := w.Categories.ListAll(ctx)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to load categories: %v", err))
		return nil
	}

	fields := fieldsFromExtractedData(msg.ExtractedData)
	categoriesText := renderCategories(categories)

	categorization, err := w.LLM.Categorize(ctx, rawText, fields, categoriesText)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("LLM categorization failed: %v", err))
		return nil
	}

	if categorization.CategoryID == nil {
		w.fail(ctx, submission.ID, categorization.Reasoning)
		return nil
	}

	category := findCategory(categories, *categorization.CategoryID)
	if category == nil {
		w.fail(ctx, submission.ID, categorization.Reasoning)
		return nil
	}

	student, err := w.Students.GetByID(ctx, submission.StudentID)
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to load student: %v", err))
		return nil
	}

	numericHours := parseNumericHours(fields.CargaHoraria)
	calculatedHours := calculateHours(*category, numericHours, fields)

	_, err = w.Activities.Create(ctx, repository.CreateParams{
		SubmissionID:     submission.ID,
		MetadataID:       msg.MetadataID,
		StudentID:        submission.StudentID,
		EnrollmentNumber: student.EnrollmentNumber,
		Filename:         submission.OriginalFilename,
		ParticipantName:  fields.NomeParticipante,
		EventName:        fields.Evento,
		Location:         fields.Local,
		EventDate:        fields.Data,
		CategoryID:       category.ID,
		CalculatedHours:  calculatedHours,
		LlmReasoning:     categorization.Reasoning,
		RawText:          rawText,
	})
	if err != nil {
		w.fail(ctx, submission.ID, fmt.Sprintf("Failed to persist activity: %v", err))
		return nil
	}

	if err := w.Submissions.UpdateStatus(ctx, submission.ID, domain.StatusPendingReview, repository.WithProcessingCompleted()); err != nil {
		return fmt.Errorf("transitioning submission %d to pending_review: %w", submission.ID, err)
	}

	return nil
}

func (w *MetadataWorker) fail(ctx context.Context, submissionID int64, message string) {
	if err := w.Submissions.UpdateStatus(ctx, submissionID, domain.StatusFailed,
		repository.WithErrorMessage(message), repository.WithProcessingCompleted()); err != nil {
		log.WithFields(log.Fields{"submission_id": submissionID, "error": err}).Error("metadata: failed to mark submission failed")
	}
}

func fieldsFromExtractedData(data map[string]interface{}) llm.Fields {
	str := func(key string) *string {
		v, ok := data[key]
		if !ok || v == nil {
			return nil
		}
		s, ok := v.(string)
		if !ok || s == "" {
			return nil
		}
		return &s
	}
	return llm.Fields{
		NomeParticipante: str("nome_participante"),
		Evento:           str("evento"),
		Local:            str("local"),
		Data:             str("data"),
		CargaHoraria:     str("carga_horaria"),
	}
}

func renderCategories(categories []*domain.ActivityCategory) string {
	var b strings.Builder
	for _, c := range categories {
		b.WriteString(prompts.FormatCategory(c.ID, c.Name, c.Description, string(c.CalculationType),
			c.HoursAwarded, c.InputQuantity, c.OutputHours, c.InputUnit, c.MaxTotalHours))
	}
	return b.String()
}

func findCategory(categories []*domain.ActivityCategory, id int64) *domain.ActivityCategory {
	for _, c := range categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

var daysPattern = regexp.MustCompile(`(?i)\d+\s*(dia|day)s?`)
var pagesPattern = regexp.MustCompile(`(?i)\d+\s*(páginas?|pages?|p\.|pgs?)`)
var leadingDigits = regexp.MustCompile(`\d+`)

// daysInText searches evento, data, carga_horaria (in that order) for the
// first day-count match, per spec.md §4.5.
func daysInText(fields llm.Fields) (int64, bool) {
	for _, s := range []*string{fields.Evento, fields.Data, fields.CargaHoraria} {
		if s == nil {
			continue
		}
		if m := daysPattern.FindString(*s); m != "" {
			if n := leadingDigits.FindString(m); n != "" {
				v, err := strconv.ParseInt(n, 10, 64)
				if err == nil {
					return v, true
				}
			}
		}
	}
	return 0, false
}

// pagesInText searches evento, carga_horaria for the first page-count
// match, per spec.md §4.5.
func pagesInText(fields llm.Fields) (int64, bool) {
	for _, s := range []*string{fields.Evento, fields.CargaHoraria} {
		if s == nil {
			continue
		}
		if m := pagesPattern.FindString(*s); m != "" {
			if n := leadingDigits.FindString(m); n != "" {
				v, err := strconv.ParseInt(n, 10, 64)
				if err == nil {
					return v, true
				}
			}
		}
	}
	return 0, false
}

// calculateHours applies the table in spec.md §4.5, clamping every branch
// to max_total_hours.
func calculateHours(category domain.ActivityCategory, numericHours *int64, fields llm.Fields) int64 {
	var hours int64

	switch category.CalculationType {
	case domain.CalculationFixedPerSemester, domain.CalculationFixedPerActivity:
		if category.HoursAwarded != nil {
			hours = *category.HoursAwarded
		}

	case domain.CalculationRatioHours:
		if numericHours != nil && category.OutputHours != nil && category.InputQuantity != nil && *category.InputQuantity != 0 {
			hours = int64(math.Floor(float64(*numericHours) * float64(*category.OutputHours) / float64(*category.InputQuantity)))
		}

	case domain.CalculationRatioDays:
		out := int64(0)
		if category.OutputHours != nil {
			out = *category.OutputHours
		}
		if days, ok := daysInText(fields); ok {
			hours = days * out
		} else {
			hours = out
		}

	case domain.CalculationRatioPages:
		out := int64(0)
		if category.OutputHours != nil {
			out = *category.OutputHours
		}
		if pages, ok := pagesInText(fields); ok && category.InputQuantity != nil && *category.InputQuantity != 0 {
			hours = int64(math.Floor(float64(pages) * float64(out) / float64(*category.InputQuantity)))
		} else {
			hours = out
		}
	}

	if hours < 0 {
		hours = 0
	}
	if hours > category.MaxTotalHours {
		hours = category.MaxTotalHours
	}
	return hours
}
