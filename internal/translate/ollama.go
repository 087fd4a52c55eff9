package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"demoapps/internal/locale"
)

// Default local models.
const (
	OllamaTranslationModel = "gpt-oss:20b"
	OllamaValidationModel  = "gemma3:4b"
)

// Ollama talks to a local Ollama server.
type Ollama struct {
	endpoint         string
	translationModel string
	validationModel  string
	client           *http.Client
	pull             bool
}

// NewOllama creates a backend for endpoint. A non-empty model overrides
// both the translation and the validation model. An endpoint without a
// scheme, as OLLAMA_HOST is usually written, is taken to be plain http.
func NewOllama(endpoint, model string) *Ollama {
	if endpoint == "" {
		endpoint = "http://localhost:11434"
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	o := &Ollama{
		endpoint:         strings.TrimRight(endpoint, "/"),
		translationModel: OllamaTranslationModel,
		validationModel:  OllamaValidationModel,
		client:           &http.Client{Timeout: 5 * time.Minute},
	}
	if model != "" {
		o.translationModel = model
		o.validationModel = model
	}
	return o
}

// PullMissing makes Check download missing models instead of failing.
func (o *Ollama) PullMissing() *Ollama {
	o.pull = true
	return o
}

func (o *Ollama) Name() string {
	return fmt.Sprintf("ollama:%s/%s", o.translationModel, o.validationModel)
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	TopK        int     `json:"top_k"`
}

type ollamaGenerateRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

type ollamaPullRequest struct {
	Model  string `json:"model"`
	Stream bool   `json:"stream"`
}

type ollamaPullResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (o *Ollama) generate(ctx context.Context, model, prompt string, temperature float64) (string, error) {
	body, err := json.Marshal(ollamaGenerateRequest{
		Model:   model,
		Prompt:  prompt,
		Options: ollamaOptions{Temperature: temperature, TopP: 0.9, TopK: 40},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaGenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", errors.New("empty response from ollama")
	}
	return text, nil
}

func (o *Ollama) Translate(ctx context.Context, text, lang, key string) (string, error) {
	out, err := o.generate(ctx, o.translationModel, translatePrompt(text, locale.LanguageName(lang), key), 0.3)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

func (o *Ollama) Validate(ctx context.Context, original, translated, lang, key string) (Validation, error) {
	out, err := o.generate(ctx, o.validationModel, validatePrompt(original, translated, locale.LanguageName(lang), key), 0.1)
	if err != nil {
		return Validation{}, fmt.Errorf("validate: %w", err)
	}
	return ParseValidation(out), nil
}

// Check lists the installed models and requires both configured models to
// be present, pulling them first when PullMissing is set. Tags are matched
// by model family, ignoring the size suffix.
func (o *Ollama) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama not reachable at %s: %w", o.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d", resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return fmt.Errorf("decode model list: %w", err)
	}
	names := make([]string, len(tags.Models))
	for i, m := range tags.Models {
		names[i] = m.Name
	}
	for _, want := range []string{o.translationModel, o.validationModel} {
		if hasModel(names, want) {
			continue
		}
		if !o.pull {
			return fmt.Errorf("model %s not found (available: %s); run: ollama pull %s",
				want, strings.Join(names, ", "), want)
		}
		if err := o.Pull(ctx, want); err != nil {
			return err
		}
		names = append(names, want)
	}
	return nil
}

// Pull downloads model and blocks until Ollama reports success. Downloads
// can take far longer than a generate call, so only ctx bounds it.
func (o *Ollama) Pull(ctx context.Context, model string) error {
	body, err := json.Marshal(ollamaPullRequest{Model: model})
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint+"/api/pull", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Transport: o.client.Transport}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("pull %s: %w", model, err)
	}
	defer resp.Body.Close()

	var out ollamaPullResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil && resp.StatusCode == http.StatusOK {
		return fmt.Errorf("pull %s: decode response: %w", model, err)
	}
	if resp.StatusCode != http.StatusOK || out.Error != "" {
		return fmt.Errorf("pull %s: status %d: %s", model, resp.StatusCode, out.Error)
	}
	if out.Status != "success" {
		return fmt.Errorf("pull %s: unexpected status %q", model, out.Status)
	}
	return nil
}

func hasModel(names []string, want string) bool {
	family, _, _ := strings.Cut(want, ":")
	for _, n := range names {
		if strings.Contains(n, family) {
			return true
		}
	}
	return false
}
