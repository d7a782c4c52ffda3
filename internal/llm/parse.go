package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// parseExtraction parses a certificate-extraction reply, trying strict
// JSON first and falling back to a key-value line scan, matching
// llm_service.py's _parse_json_response / _parse_key_value_response.
func parseExtraction(reply string) Fields {
	if jsonStr, ok := braceSlice(reply); ok {
		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(jsonStr), &raw); err == nil {
			return fieldsFromMap(raw)
		}
	}
	return parseKeyValue(reply)
}

// braceSlice extracts the substring from the first '{' to the last '}'
// inclusive, per spec.md §4.9 step 1.
func braceSlice(s string) (string, bool) {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

func fieldsFromMap(raw map[string]interface{}) Fields {
	get := func(key string) *string {
		v, ok := raw[key]
		if !ok || v == nil {
			return nil
		}
		if s, ok := v.(string); ok {
			s = normalizeValue(s)
			if s == "" {
				return nil
			}
			return &s
		}
		return nil
	}
	return Fields{
		NomeParticipante: get("nome_participante"),
		Evento:           get("evento"),
		Local:            get("local"),
		Data:             get("data"),
		CargaHoraria:     get("carga_horaria"),
	}
}

// keyValueLine matches "field_name:" at the start of a line,
// case-insensitively, per spec.md §4.4 step 2's fallback format.
var keyValueLine = regexp.MustCompile(`(?i)^(nome_participante|evento|local|data|carga_horaria)\s*:\s*(.*)$`)

// parseKeyValue scans lines for the five known keys, folding continuation
// lines into the current field until the next recognized key, matching
// _parse_key_value_response.
func parseKeyValue(reply string) Fields {
	values := make(map[string]string, len(requiredFields))
	var current string

	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if m := keyValueLine.FindStringSubmatch(line); m != nil {
			current = strings.ToLower(m[1])
			values[current] = m[2]
			continue
		}
		if current != "" {
			values[current] = values[current] + " " + line
		}
	}

	str := func(key string) *string {
		v, ok := values[key]
		if !ok {
			return nil
		}
		v = normalizeValue(v)
		if v == "" {
			return nil
		}
		return &v
	}

	return Fields{
		NomeParticipante: str("nome_participante"),
		Evento:           str("evento"),
		Local:            str("local"),
		Data:             str("data"),
		CargaHoraria:     str("carga_horaria"),
	}
}

// controlAndSymbol strips everything outside word characters, whitespace,
// accented letters, and the punctuation set spec.md §4.9 step 3 allows.
var controlAndSymbol = regexp.MustCompile(`[^\w\sÀ-ÿ.,;:()\-/]`)
var collapseSpace = regexp.MustCompile(`\s+`)

func normalizeValue(v string) string {
	v = controlAndSymbol.ReplaceAllString(v, "")
	v = collapseSpace.ReplaceAllString(v, " ")
	return strings.TrimSpace(v)
}

// parseCategorization extracts {category_id, reasoning} from a
// categorization reply, returning a nil category and the raw reply as
// reasoning on parse failure, per spec.md §4.9's Categorize contract.
func parseCategorization(reply string) Categorization {
	jsonStr, ok := braceSlice(reply)
	if !ok {
		return Categorization{Reasoning: reply}
	}

	var raw struct {
		CategoryID *int64 `json:"category_id"`
		Reasoning  string `json:"reasoning"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return Categorization{Reasoning: reply}
	}
	if raw.Reasoning == "" {
		raw.Reasoning = "No reasoning provided"
	}
	return Categorization{CategoryID: raw.CategoryID, Reasoning: raw.Reasoning}
}
