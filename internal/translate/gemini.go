package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"demoapps/internal/locale"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-2.5-flash"

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
	// BaseURL overrides the API endpoint; empty uses the public one.
	BaseURL string
}

// Gemini translates with Google's Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini backend.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required (set GEMINI_API_KEY)")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Name() string { return "gemini:" + g.model }

func (g *Gemini) generate(ctx context.Context, prompt string, temperature float32, jsonOut bool) (string, error) {
	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(temperature)}
	if jsonOut {
		cfg.ResponseMIMEType = "application/json"
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("gemini generate failed: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}

func (g *Gemini) Translate(ctx context.Context, text, lang, key string) (string, error) {
	out, err := g.generate(ctx, translatePrompt(text, locale.LanguageName(lang), key), 0.3, false)
	if err != nil {
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}

func (g *Gemini) Validate(ctx context.Context, original, translated, lang, key string) (Validation, error) {
	out, err := g.generate(ctx, validatePrompt(original, translated, locale.LanguageName(lang), key), 0.1, true)
	if err != nil {
		return Validation{}, fmt.Errorf("validate: %w", err)
	}
	return ParseValidation(out), nil
}

// Check fetches the model's metadata, which fails fast on a bad key or an
// unknown model.
func (g *Gemini) Check(ctx context.Context) error {
	if _, err := g.client.Models.Get(ctx, g.model, nil); err != nil {
		return fmt.Errorf("gemini model %s unavailable: %w", g.model, err)
	}
	return nil
}
