// Package translate fills and reviews locale placeholders with a language
// model.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// PassScore is the lowest validation score that counts as acceptable.
const PassScore = 70

// Validation is a model's review of one translated string.
type Validation struct {
	Score       int      `json:"score"`
	IsValid     bool     `json:"isValid"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Summary     string   `json:"summary"`
}

// Passed reports whether the translation is good enough to keep.
func (v Validation) Passed() bool {
	return v.IsValid && v.Score >= PassScore
}

// Translator is a translation backend.
type Translator interface {
	// Translate renders English text in the target language. key is the
	// locale path of the string, passed to the model as context.
	Translate(ctx context.Context, text, lang, key string) (string, error)
	// Validate reviews translated against the English original.
	Validate(ctx context.Context, original, translated, lang, key string) (Validation, error)
	// Check verifies the backend is reachable and configured.
	Check(ctx context.Context) error
	Name() string
}

// fallbackValidation is used when the model answers in a shape that cannot
// be decoded; the string is not failed on formatting alone.
var fallbackValidation = Validation{
	Score:       PassScore,
	IsValid:     true,
	Issues:      []string{},
	Suggestions: []string{},
	Summary:     "Validation completed but response format was unexpected",
}

// ParseValidation decodes a model's JSON verdict. Markdown code fences are
// tolerated; anything else undecodable yields the fallback verdict.
func ParseValidation(text string) Validation {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	var v Validation
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		return fallbackValidation
	}
	if v.Issues == nil {
		v.Issues = []string{}
	}
	if v.Suggestions == nil {
		v.Suggestions = []string{}
	}
	return v
}

func translatePrompt(text, langName, key string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional translator specializing in web application localization. "+
		"Translate the following English text to %s.\n\n", langName)
	b.WriteString("Requirements:\n" +
		"- Keep the same tone and style\n" +
		"- Preserve interpolation variables like {{variable}} exactly\n" +
		"- Keep HTML entities, special characters and emojis intact\n" +
		"- The result must suit a web application interface\n")
	if key != "" {
		fmt.Fprintf(&b, "\nContext: this text is used for %q in a web application interface.\n", key)
	}
	fmt.Fprintf(&b, "\nEnglish text: %q\n\nProvide only the translation, nothing else.", text)
	return b.String()
}

func validatePrompt(original, translated, langName, key string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional translation quality assessor. Evaluate this %s translation "+
		"of an English text used in a web application.\n\n", langName)
	fmt.Fprintf(&b, "Original English: %q\n%s Translation: %q\n", original, langName, translated)
	if key != "" {
		fmt.Fprintf(&b, "\nContext: this text is used for %q in a web application interface.\n", key)
	}
	b.WriteString("\nAssess accuracy, fluency, preserved {{variables}}, UI appropriateness and accessibility terms.\n" +
		"Respond in exactly this JSON format:\n" +
		"{\n" +
		"  \"score\": <number from 0-100>,\n" +
		"  \"isValid\": <true/false>,\n" +
		"  \"issues\": [<specific issues, if any>],\n" +
		"  \"suggestions\": [<improvement suggestions, if any>],\n" +
		"  \"summary\": \"<brief overall assessment>\"\n" +
		"}")
	return b.String()
}
