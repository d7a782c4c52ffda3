package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExtractionJSON(t *testing.T) {
	reply := `Here is the extracted data:
{
  "nome_participante": "Maria da Silva",
  "evento": "Semana de Tecnologia",
  "local": "Auditorio Central",
  "data": "10/05/2024",
  "carga_horaria": "40 horas"
}
Let me know if you need anything else.`

	fields := parseExtraction(reply)
	require.NotNil(t, fields.NomeParticipante)
	require.Equal(t, "Maria da Silva", *fields.NomeParticipante)
	require.NotNil(t, fields.CargaHoraria)
	require.Equal(t, "40 horas", *fields.CargaHoraria)
}

func TestParseExtractionKeyValueFallback(t *testing.T) {
	reply := `nome_participante: Joao Pereira
evento: Congresso Nacional de
  Engenharia
local: Centro de Convencoes
data: 12/08/2024
carga_horaria: 20h`

	fields := parseExtraction(reply)
	require.NotNil(t, fields.NomeParticipante)
	require.Equal(t, "Joao Pereira", *fields.NomeParticipante)
	require.NotNil(t, fields.Evento)
	require.Equal(t, "Congresso Nacional de Engenharia", *fields.Evento)
	require.NotNil(t, fields.CargaHoraria)
	require.Equal(t, "20h", *fields.CargaHoraria)
}

func TestParseExtractionMalformedJSONFallsBackToKeyValue(t *testing.T) {
	reply := `{not valid json
nome_participante: Ana Costa
evento: Workshop de Dados`

	fields := parseExtraction(reply)
	require.NotNil(t, fields.NomeParticipante)
	require.Equal(t, "Ana Costa", *fields.NomeParticipante)
}

func TestParseCategorizationJSON(t *testing.T) {
	reply := `{"category_id": 3, "reasoning": "Matches extension course criteria"}`
	got := parseCategorization(reply)
	require.NotNil(t, got.CategoryID)
	require.Equal(t, int64(3), *got.CategoryID)
	require.Equal(t, "Matches extension course criteria", got.Reasoning)
}

func TestParseCategorizationMissingReasoningDefaults(t *testing.T) {
	reply := `{"category_id": 1}`
	got := parseCategorization(reply)
	require.NotNil(t, got.CategoryID)
	require.Equal(t, "No reasoning provided", got.Reasoning)
}

func TestParseCategorizationNoBraces(t *testing.T) {
	got := parseCategorization("I could not determine a category.")
	require.Nil(t, got.CategoryID)
	require.Equal(t, "I could not determine a category.", got.Reasoning)
}

func TestParseCategorizationInvalidJSON(t *testing.T) {
	got := parseCategorization("{not json}")
	require.Nil(t, got.CategoryID)
	require.Equal(t, "{not json}", got.Reasoning)
}
