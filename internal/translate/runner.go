package translate

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"demoapps/internal/locale"
)

// DefaultDelay spaces out model calls.
const DefaultDelay = 500 * time.Millisecond

// Runner walks a locale and sends its strings to a Translator one at a
// time, pausing between calls.
type Runner struct {
	translator Translator
	delay      time.Duration
	log        *zap.Logger
}

// NewRunner creates a Runner. A negative delay is treated as zero.
func NewRunner(t Translator, delay time.Duration, log *zap.Logger) *Runner {
	if delay < 0 {
		delay = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{translator: t, delay: delay, log: log}
}

func (r *Runner) pause(ctx context.Context) error {
	if r.delay == 0 {
		return ctx.Err()
	}
	t := time.NewTimer(r.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// TranslateReport summarises a TranslateLocale run.
type TranslateReport struct {
	Translated int
	// Failed holds the keys whose placeholder was kept.
	Failed []string
}

// TranslateLocale replaces every placeholder in tree, in place. A string
// whose translation fails keeps its placeholder. Only context cancellation
// aborts the run.
func (r *Runner) TranslateLocale(ctx context.Context, tree *locale.Tree, lang string) (TranslateReport, error) {
	var rep TranslateReport
	err := r.translateTree(ctx, tree, "", lang, &rep)
	return rep, err
}

func (r *Runner) translateTree(ctx context.Context, tree *locale.Tree, prefix, lang string, rep *TranslateReport) error {
	for pair := tree.Oldest(); pair != nil; pair = pair.Next() {
		v, err := r.translateValue(ctx, pair.Value, joinKey(prefix, pair.Key), lang, rep)
		if err != nil {
			return err
		}
		pair.Value = v
	}
	return nil
}

func (r *Runner) translateValue(ctx context.Context, v any, key, lang string, rep *TranslateReport) (any, error) {
	switch v := v.(type) {
	case string:
		if !locale.NeedsTranslation(v) {
			return v, nil
		}
		return r.translateString(ctx, v, key, lang, rep)
	case *locale.Tree:
		return v, r.translateTree(ctx, v, key, lang, rep)
	case []any:
		for i, item := range v {
			out, err := r.translateValue(ctx, item, fmt.Sprintf("%s[%d]", key, i), lang, rep)
			if err != nil {
				return v, err
			}
			v[i] = out
		}
		return v, nil
	}
	return v, nil
}

func (r *Runner) translateString(ctx context.Context, placeholder, key, lang string, rep *TranslateReport) (any, error) {
	if err := ctx.Err(); err != nil {
		return placeholder, err
	}
	out, err := r.translator.Translate(ctx, locale.SourceText(placeholder), lang, key)
	if err != nil {
		if ctx.Err() != nil {
			return placeholder, ctx.Err()
		}
		r.log.Warn("translation failed", zap.String("lang", lang), zap.String("key", key), zap.Error(err))
		rep.Failed = append(rep.Failed, key)
		return placeholder, r.pause(ctx)
	}
	r.log.Debug("translated", zap.String("lang", lang), zap.String("key", key))
	rep.Translated++
	return out, r.pause(ctx)
}

// Issue is a string that failed validation.
type Issue struct {
	Key         string   `json:"key"`
	Score       int      `json:"score"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
	Original    string   `json:"original"`
	Translation string   `json:"translation"`
}

// ValidationReport summarises a ValidateLocale run.
type ValidationReport struct {
	Validated int     `json:"validated"`
	Passed    int     `json:"passed"`
	Failed    int     `json:"failed"`
	Issues    []Issue `json:"issues"`
}

// SuccessRate is the passed share of validated strings, in percent.
func (r ValidationReport) SuccessRate() float64 {
	if r.Validated == 0 {
		return 0
	}
	return float64(r.Passed) / float64(r.Validated) * 100
}

// ValidateLocale reviews every translated string of target against its
// English source. Placeholders and keys missing on either side are skipped.
// A backend error is reported as a score-0 issue.
func (r *Runner) ValidateLocale(ctx context.Context, source, target *locale.Tree, lang string) (ValidationReport, error) {
	rep := ValidationReport{Issues: []Issue{}}
	err := r.validateTree(ctx, source, target, "", lang, &rep)
	return rep, err
}

func (r *Runner) validateTree(ctx context.Context, source, target *locale.Tree, prefix, lang string, rep *ValidationReport) error {
	for pair := source.Oldest(); pair != nil; pair = pair.Next() {
		tv, ok := target.Get(pair.Key)
		if !ok {
			continue
		}
		if err := r.validateValue(ctx, pair.Value, tv, joinKey(prefix, pair.Key), lang, rep); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) validateValue(ctx context.Context, sv, tv any, key, lang string, rep *ValidationReport) error {
	switch sv := sv.(type) {
	case string:
		ts, ok := tv.(string)
		if !ok || locale.NeedsTranslation(ts) {
			return nil
		}
		return r.validateString(ctx, sv, ts, key, lang, rep)
	case *locale.Tree:
		if tt, ok := tv.(*locale.Tree); ok {
			return r.validateTree(ctx, sv, tt, key, lang, rep)
		}
	case []any:
		if ta, ok := tv.([]any); ok {
			for i := 0; i < len(sv) && i < len(ta); i++ {
				if err := r.validateValue(ctx, sv[i], ta[i], fmt.Sprintf("%s[%d]", key, i), lang, rep); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (r *Runner) validateString(ctx context.Context, original, translated, key, lang string, rep *ValidationReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	v, err := r.translator.Validate(ctx, original, translated, lang, key)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("validation failed", zap.String("lang", lang), zap.String("key", key), zap.Error(err))
		rep.Issues = append(rep.Issues, Issue{
			Key:         key,
			Score:       0,
			Issues:      []string{"Validation failed: " + err.Error()},
			Suggestions: []string{},
			Original:    original,
			Translation: translated,
		})
		return r.pause(ctx)
	}

	rep.Validated++
	if v.Passed() {
		rep.Passed++
	} else {
		rep.Failed++
		rep.Issues = append(rep.Issues, Issue{
			Key:         key,
			Score:       v.Score,
			Issues:      v.Issues,
			Suggestions: v.Suggestions,
			Original:    original,
			Translation: translated,
		})
	}
	r.log.Debug("validated", zap.String("lang", lang), zap.String("key", key),
		zap.Int("score", v.Score), zap.Bool("passed", v.Passed()))
	return r.pause(ctx)
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
