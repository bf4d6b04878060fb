// Package providers implements adapters that translate normalized inference
// requests into provider-specific HTTP exchanges.
package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dmorim/verdicto/internal/llm/llmerrors"
	"github.com/dmorim/verdicto/internal/llm/transport"
)

// ProviderOllama is the adapter name used in error reporting and logs.
const ProviderOllama = "ollama"

// DefaultEndpoint is the local Ollama daemon address.
const DefaultEndpoint = "http://localhost:11434"

// Fixed sampling options sent with every generate call. Only temperature and
// the output-token cap vary per request.
const (
	defaultTopP       = 0.9
	defaultTopK       = 40
	defaultNumPredict = 512
)

// errorBodyLimit caps how much of a non-success response body is carried
// into the error message.
const errorBodyLimit = 512

// OllamaAdapter implements the HTTP exchange with an Ollama endpoint:
// POST /api/generate for judgments and GET /api/tags for liveness and
// model inventory.
type OllamaAdapter struct {
	endpoint string
}

// NewOllamaAdapter creates an adapter for the given base URL, defaulting to
// the local daemon when empty.
func NewOllamaAdapter(endpoint string) *OllamaAdapter {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &OllamaAdapter{endpoint: strings.TrimRight(endpoint, "/")}
}

// Name returns the provider name.
func (a *OllamaAdapter) Name() string { return ProviderOllama }

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
	NumPredict  int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response        string `json:"response"`
	Model           string `json:"model"`
	EvalCount       int    `json:"eval_count"`
	PromptEvalCount int    `json:"prompt_eval_count"`
}

// Build constructs the /api/generate request for a normalized inference
// request. Streaming is always disabled: the engine consumes whole responses.
func (a *OllamaAdapter) Build(ctx context.Context, req *transport.Request) (*http.Request, error) {
	numPredict := req.MaxTokens
	if numPredict <= 0 {
		numPredict = defaultNumPredict
	}

	body := generateRequest{
		Model:  req.Model,
		Prompt: req.Prompt,
		Stream: false,
		Options: generateOptions{
			Temperature: req.Temperature,
			TopP:        defaultTopP,
			TopK:        defaultTopK,
			NumPredict:  numPredict,
		},
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, &llmerrors.ProviderError{
			Provider: ProviderOllama,
			Type:     llmerrors.ErrorTypeRequest,
			Message:  fmt.Sprintf("marshal request: %v", err),
			Cause:    err,
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/api/generate", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, &llmerrors.ProviderError{
			Provider: ProviderOllama,
			Type:     llmerrors.ErrorTypeRequest,
			Message:  fmt.Sprintf("create request: %v", err),
			Cause:    err,
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return httpReq, nil
}

// Parse extracts a normalized response from a generate call. Any non-200
// status becomes a retryable status error carrying a bounded slice of the
// response body.
func (a *OllamaAdapter) Parse(httpResp *http.Response) (*transport.Response, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llmerrors.WrapTransport(ProviderOllama, fmt.Errorf("read response: %w", err))
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, llmerrors.NewStatusError(ProviderOllama, httpResp.StatusCode, truncate(string(body), errorBodyLimit))
	}

	var resp generateResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llmerrors.WrapTransport(ProviderOllama, fmt.Errorf("parse response: %w", err))
	}

	return &transport.Response{
		Content:      resp.Response,
		Model:        resp.Model,
		Tokens:       resp.EvalCount,
		PromptTokens: resp.PromptEvalCount,
	}, nil
}

type tagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// BuildTags constructs the /api/tags inventory request, also used as the
// liveness probe.
func (a *OllamaAdapter) BuildTags(ctx context.Context) (*http.Request, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, &llmerrors.ProviderError{
			Provider: ProviderOllama,
			Type:     llmerrors.ErrorTypeRequest,
			Message:  fmt.Sprintf("create request: %v", err),
			Cause:    err,
		}
	}
	return httpReq, nil
}

// ParseTags extracts the model name inventory from a tags response.
func (a *OllamaAdapter) ParseTags(httpResp *http.Response) ([]string, error) {
	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, llmerrors.WrapTransport(ProviderOllama, fmt.Errorf("read response: %w", err))
	}
	if httpResp.StatusCode != http.StatusOK {
		return nil, llmerrors.NewStatusError(ProviderOllama, httpResp.StatusCode, truncate(string(body), errorBodyLimit))
	}

	var resp tagsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, llmerrors.WrapTransport(ProviderOllama, fmt.Errorf("parse response: %w", err))
	}

	names := make([]string, 0, len(resp.Models))
	for _, m := range resp.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
