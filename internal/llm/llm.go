// Package llm implements the LLM adapter (C5): prompt execution against a
// provider-keyed backend and JSON/key-value reply parsing, grounded on
// original_source/services/llm_service.py (Ollama /api/generate, JSON-then
// key-value fallback parsing, temperature/top_p payload shape) and
// jordigilh-kubernaut/pkg/ai/llm/client_test.go's provider-keyed
// NewClient(cfg, logger) construction and "unsupported provider: %s" error.
package llm

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/eduflow/certflow/internal/config"
)

// requiredFields are the five Portuguese-keyed certificate fields every
// extraction reply must carry, null-filled when absent (§4.4 step 2).
var requiredFields = []string{"nome_participante", "evento", "local", "data", "carga_horaria"}

// Fields is a parsed certificate-extraction reply; every field is nilable
// per spec.md's "values: string or null".
type Fields struct {
	NomeParticipante *string `json:"nome_participante"`
	Evento           *string `json:"evento"`
	Local            *string `json:"local"`
	Data             *string `json:"data"`
	CargaHoraria     *string `json:"carga_horaria"`
}

// Categorization is a parsed categorization reply (§4.5 step 4).
type Categorization struct {
	CategoryID *int64
	Reasoning  string
}

// Client is satisfied by each provider implementation.
type Client interface {
	Extract(ctx context.Context, rawText string) (Fields, error)
	Categorize(ctx context.Context, rawText string, fields Fields, categoriesText string) (Categorization, error)
}

// NewClient dispatches on cfg.LLM.Provider, matching client_test.go's
// provider-keyed construction and "unsupported provider: %s" error shape.
func NewClient(cfg config.Config) (Client, error) {
	switch cfg.LLM.Provider {
	case "ollama":
		return newOllamaClient(cfg), nil
	case "anthropic":
		return newAnthropicClient(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.LLM.Provider)
	}
}

func logReply(stage, reply string) {
	const maxLog = 200
	if len(reply) > maxLog {
		reply = reply[:maxLog] + "..."
	}
	log.WithFields(log.Fields{"stage": stage}).Infof("llm raw response: %s", reply)
}
