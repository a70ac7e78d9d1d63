package backend

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

const (
	// DefaultOllamaModel is used when no model is configured.
	DefaultOllamaModel = "llama3.1"
	defaultOllamaURL   = "http://localhost:11434"
)

// OllamaTransport generates minutes on a local Ollama server. Fully local,
// no credential needed; availability means the server answers.
type OllamaTransport struct {
	client *api.Client
	url    string
	model  string
}

// NewOllamaTransport creates the Ollama transport. The client resolves its
// endpoint from OLLAMA_HOST when set.
func NewOllamaTransport(url, model string) (*OllamaTransport, error) {
	if url == "" {
		url = defaultOllamaURL
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	client, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, fmt.Errorf("create ollama client: %w", err)
	}
	return &OllamaTransport{client: client, url: url, model: model}, nil
}

func (t *OllamaTransport) Name() string { return PreferOllama }

// Available probes the server with a short-timeout GET.
func (t *OllamaTransport) Available(ctx context.Context) bool {
	probe, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probe, http.MethodGet, t.url, nil)
	if err != nil {
		return false
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Generate runs a non-streaming completion on the configured model.
func (t *OllamaTransport) Generate(ctx context.Context, prompt string) (string, error) {
	stream := false
	req := &api.GenerateRequest{
		Model:  t.model,
		Prompt: prompt,
		Stream: &stream,
	}

	var text strings.Builder
	err := t.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		text.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return "", newError(KindRejected, t.Name(),
				fmt.Errorf("model %q not found - run: ollama pull %s", t.model, t.model))
		}
		return "", newError(KindTransient, t.Name(), fmt.Errorf("generate: %w", err))
	}

	out := strings.TrimSpace(text.String())
	if out == "" {
		return "", newError(KindRejected, t.Name(), fmt.Errorf("empty response"))
	}
	return out, nil
}
