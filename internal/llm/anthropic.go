package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/eduflow/certflow/internal/config"
	"github.com/eduflow/certflow/internal/prompts"
)

// anthropicClient is the alternate provider, used when cfg.LLM.Provider is
// "anthropic" instead of the default "ollama" (§9 leaves the provider
// choice open; this module adds Anthropic as the ecosystem SDK wired from
// the retrieval pack alongside the original's Ollama-only implementation).
type anthropicClient struct {
	client *anthropic.Client
	model  string
}

func newAnthropicClient(cfg config.Config) *anthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(cfg.LLM.APIKey))
	return &anthropicClient{client: &client, model: cfg.LLM.Model}
}

func (c *anthropicClient) generate(ctx context.Context, prompt string) (string, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("calling anthropic: %w", err)
	}

	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}

func (c *anthropicClient) Extract(ctx context.Context, rawText string) (Fields, error) {
	prompt := prompts.CertificateExtraction(rawText)
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return Fields{}, err
	}
	logReply("extract", reply)
	return parseExtraction(reply), nil
}

func (c *anthropicClient) Categorize(ctx context.Context, rawText string, fields Fields, categoriesText string) (Categorization, error) {
	prompt := prompts.Categorization(rawText, fields.NomeParticipante, fields.Evento, fields.Local, fields.Data, fields.CargaHoraria, categoriesText)
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return Categorization{}, err
	}
	logReply("categorize", reply)
	return parseCategorization(reply), nil
}
