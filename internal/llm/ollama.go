package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/eduflow/certflow/internal/config"
	"github.com/eduflow/certflow/internal/prompts"
)

// ollamaClient talks to Ollama's /api/generate REST endpoint directly via
// net/http: Ollama has no official Go SDK in the retrieval pack or wider
// ecosystem, so a raw POST to its documented endpoint is the idiomatic
// approach the Python original itself uses via requests.post.
type ollamaClient struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

func newOllamaClient(cfg config.Config) *ollamaClient {
	return &ollamaClient{
		httpClient: &http.Client{Timeout: cfg.LLM.Timeout},
		baseURL:    cfg.LLM.Endpoint,
		model:      cfg.LLM.Model,
	}
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
}

type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaResponse struct {
	Response string `json:"response"`
}

// generate issues one /api/generate call with the fixed temperature/top_p
// pair spec.md §4.9 requires, returning the raw text reply.
func (c *ollamaClient) generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(ollamaRequest{
		Model:   c.model,
		Prompt:  prompt,
		Stream:  false,
		Options: ollamaOptions{Temperature: 0.1, TopP: 0.9},
	})
	if err != nil {
		return "", fmt.Errorf("marshaling ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("ollama api error %d: %s", resp.StatusCode, string(data))
	}

	var out ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding ollama response: %w", err)
	}
	return out.Response, nil
}

func (c *ollamaClient) Extract(ctx context.Context, rawText string) (Fields, error) {
	prompt := prompts.CertificateExtraction(rawText)
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return Fields{}, err
	}
	logReply("extract", reply)
	return parseExtraction(reply), nil
}

func (c *ollamaClient) Categorize(ctx context.Context, rawText string, fields Fields, categoriesText string) (Categorization, error) {
	prompt := prompts.Categorization(rawText, fields.NomeParticipante, fields.Evento, fields.Local, fields.Data, fields.CargaHoraria, categoriesText)
	reply, err := c.generate(ctx, prompt)
	if err != nil {
		return Categorization{}, err
	}
	logReply("categorize", reply)
	return parseCategorization(reply), nil
}
