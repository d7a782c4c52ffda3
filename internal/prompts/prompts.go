// Package prompts renders the two LLM prompt templates (C6), grounded on
// original_source/config/prompts.py's CERTIFICATE_EXTRACTION_PROMPT and
// ACTIVITY_CATEGORIZATION_PROMPT, parameterized per spec.md §6.
package prompts

import (
	"fmt"
	"strings"
)

// fieldText renders an optional extracted field as "N/A" when absent,
// matching activity_categorization_service.py's extracted_data.get(x, 'N/A').
func fieldText(v *string) string {
	if v == nil || *v == "" {
		return "N/A"
	}
	return *v
}

// CertificateExtraction renders the field-extraction prompt for raw OCR
// text, verbatim per original_source/config/prompts.py's
// CERTIFICATE_EXTRACTION_PROMPT.
func CertificateExtraction(text string) string {
	var b strings.Builder
	b.WriteString(certificateExtractionPreamble)
	b.WriteString("\n\nOCR Text:\n")
	b.WriteString(text)
	b.WriteString("\n\nJSON:")
	return b.String()
}

// Categorization renders the category-selection prompt, matching
// activity_categorization_service.py's _build_categorization_prompt
// parameter order (raw_text, nome_participante, evento, local, data,
// carga_horaria, categories_text).
func Categorization(rawText string, participant, event, location, date, hours *string, categoriesText string) string {
	return fmt.Sprintf(categorizationTemplate,
		rawText,
		fieldText(participant),
		fieldText(event),
		fieldText(location),
		fieldText(date),
		fieldText(hours),
		categoriesText,
	)
}

// FormatCategory renders one category's line in the numbered list fed to
// the categorization prompt, matching _build_categorization_prompt's
// per-category text block (fixed_* categories show hours_awarded; ratio_*
// categories show the output/input ratio).
func FormatCategory(id int64, name, description, calculationType string, hoursAwarded, inputQuantity, outputHours *int64, inputUnit string, maxTotalHours int64) string {
	var calc string
	if strings.HasPrefix(calculationType, "fixed_") {
		hours := int64(0)
		if hoursAwarded != nil {
			hours = *hoursAwarded
		}
		calc = fmt.Sprintf("Horas Concedidas: %dh por %s", hours, inputUnit)
	} else {
		out, in := int64(0), int64(0)
		if outputHours != nil {
			out = *outputHours
		}
		if inputQuantity != nil {
			in = *inputQuantity
		}
		calc = fmt.Sprintf("Cálculo: %dh para cada %d %s", out, in, inputUnit)
	}
	return fmt.Sprintf("ID: %d\nNome: %s\nDescrição: %s\nTipo de Cálculo: %s\n%s\nMáximo Total: %dh\n\n",
		id, name, description, calculationType, calc, maxTotalHours)
}

const certificateExtractionPreamble = `You are an intelligent document parser specialized in Brazilian Portuguese certificates.

Your task:
1. First, clean the OCR text by removing artifacts and special characters
2. Then extract the required fields from the cleaned text

CLEANING RULES:
- Remove OCR artifacts like (68), (R), (C), @, symbols in parentheses, etc.
- Fix broken words and incorrect spacing
- Remove unnecessary line breaks that split words
- Keep all meaningful information (names, dates, places, course details)
- Make text coherent in Portuguese BR

EXTRACTION RULES:
Extract these exact fields in JSON format:
- nome_participante: Full name of the certificate recipient (NOT the instructor/presenter)
- evento: Name of the event/course/workshop/training
- local: Location, city, or institution where event took place. If no physical location is found and there are digital validation indicators (URLs, online platform names), use "online"
- data: Date when event occurred (keep original format)
- carga_horaria: Duration or workload hours

PARTICIPANT IDENTIFICATION RULES:
- Look for INSTRUCTOR/PRESENTER keywords: "Instrutores", "Instrutor", "Professor", "Palestrante", "Ministrado por", "Apresentado por"
- Names that appear AFTER these keywords are instructors/presenters, NOT participants
- The participant is usually the certificate recipient, often implied or mentioned before instructor information
- For digital certificates without explicit participant naming, the participant name may need to be inferred from context
- If multiple names appear and some are clearly marked as instructors, exclude instructor names from participant field
- When in doubt about participant identity, use null rather than including instructor names

CRITICAL FORMAT REQUIREMENTS:
- Return ONLY a valid JSON object with these exact field names
- Use null for missing/unclear fields
- Do not include explanations or code blocks
- Each field should appear ONLY ONCE in the JSON
- Field names must be exactly as specified (no extra spaces)
- Process the text considering Portuguese BR language patterns

Example format:
{
  "nome_participante": "Full Name Here",
  "evento": "Event Name Here",
  "local": "Location Here",
  "data": "Date Here",
  "carga_horaria": "Hours Here"
}`

const categorizationTemplate = `You are an expert in classifying complementary activities for university students.

TASK: Analyze the extracted certificate and identify the most appropriate category among the available options.

COMPLETE CERTIFICATE TEXT (OCR):
%s

STRUCTURED EXTRACTED DATA:
- Participant: %s
- Event: %s
- Location: %s
- Date: %s
- Hours: %s

AVAILABLE CATEGORIES:
%s

INSTRUCTIONS:
1. Read the complete OCR text carefully
2. Analyze the structured extracted data as key reference points
3. Identify the activity type (course, competition, presentation, research/extension project) from keywords in the text
4. Validate that the extracted hours are consistent with the expected duration for that activity type
5. Choose the category that best matches the activity type and duration, clamped to its maximum total hours

RESPONSE FORMAT (JSON):
{
    "category_id": <ID of the chosen category>,
    "reasoning": "<Explanation referencing the keywords found in the OCR text and the structured data that led to this choice>"
}

Respond ONLY with valid JSON, no additional text.`
