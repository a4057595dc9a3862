package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/docsage/docsage/internal/core/domain"
	"github.com/docsage/docsage/internal/infrastructure/resilience"
)

// Client implements the Embedder and AnswerGenerator ports on top of the
// ollama HTTP API. Every call goes through the resilience executor: transient
// transport failures are retried, repeated failures open the breaker.
type Client struct {
	baseURL    string
	embedModel string
	genModel   string
	httpClient *http.Client
	executor   *resilience.Executor
}

func NewClient(baseURL, embedModel, genModel string, timeout time.Duration, executor *resilience.Executor) *Client {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		embedModel: embedModel,
		genModel:   genModel,
		httpClient: &http.Client{Timeout: timeout},
		executor:   executor,
	}
}

func (c *Client) Model() string {
	return c.genModel
}

func (c *Client) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload := map[string]any{
		"model": c.embedModel,
		"input": texts,
	}
	var out struct {
		Embeddings [][]float32 `json:"embeddings"`
	}

	err := c.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/embed", payload, &out, "embed")
	}, classifyOllamaError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("embed texts", err)
	}

	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embed count mismatch: want %d, got %d", len(texts), len(out.Embeddings))
	}
	return out.Embeddings, nil
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := c.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("embed query: empty embedding response")
	}
	return vectors[0], nil
}

func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	payload := map[string]any{
		"model":  c.genModel,
		"prompt": prompt,
		"stream": false,
	}
	var out struct {
		Response string `json:"response"`
	}

	err := c.executor.Execute(ctx, "ollama_generate", func(ctx context.Context) error {
		return c.postJSON(ctx, "/api/generate", payload, &out, "generate")
	}, classifyOllamaError)
	if err != nil {
		return "", wrapTemporaryIfNeeded("generate text", err)
	}

	answer := strings.TrimSpace(out.Response)
	if answer == "" {
		return "", domain.WrapError(domain.ErrGenerationFailed, "generate text", errors.New("empty model response"))
	}
	return answer, nil
}

// GenerateGrounded runs the generation and splits off trailing source lines
// of the form "FONTE: <título> | <url>" that the grounding prompt asks for.
func (c *Client) GenerateGrounded(ctx context.Context, prompt string) (string, []domain.GroundingSource, error) {
	raw, err := c.GenerateText(ctx, prompt)
	if err != nil {
		return "", nil, err
	}

	answer, sources := splitGroundingSources(raw)
	if answer == "" {
		answer = raw
	}
	return answer, sources, nil
}

const sourceLinePrefix = "FONTE:"

func splitGroundingSources(raw string) (string, []domain.GroundingSource) {
	lines := strings.Split(raw, "\n")

	var sources []domain.GroundingSource
	var bodyLines []string
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(strings.ToUpper(trimmed), sourceLinePrefix) {
			bodyLines = append(bodyLines, line)
			continue
		}
		rest := strings.TrimSpace(trimmed[len(sourceLinePrefix):])
		if rest == "" {
			continue
		}
		title, url := rest, ""
		if idx := strings.Index(rest, "|"); idx >= 0 {
			title = strings.TrimSpace(rest[:idx])
			url = strings.TrimSpace(rest[idx+1:])
		}
		if title == "" && url == "" {
			continue
		}
		sources = append(sources, domain.GroundingSource{Title: title, URL: url})
	}

	return strings.TrimSpace(strings.Join(bodyLines, "\n")), sources
}
