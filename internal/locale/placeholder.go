package locale

import (
	"fmt"
	"regexp"
	"strings"
)

// Markers left in strings that still need a translation.
const (
	TranslateMarker = "TRANSLATE:"
	FailedMarker    = "[TRANSLATION_FAILED]"
)

// SourceCode is the language every other locale is derived from.
const SourceCode = "en"

var codePattern = regexp.MustCompile(`^[a-z]{2}(-[A-Z]{2})?$`)

// ValidCode reports whether code looks like "fr" or "pt-BR".
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// Placeholder marks text at path as awaiting translation.
func Placeholder(path, text string) string {
	return fmt.Sprintf("[%s] - %s %s", path, TranslateMarker, text)
}

// NeedsTranslation reports whether s is a placeholder or a failed attempt.
func NeedsTranslation(s string) bool {
	return strings.Contains(s, TranslateMarker) || strings.Contains(s, "TRANSLATION_FAILED")
}

// SourceText recovers the English text carried by a placeholder.
func SourceText(s string) string {
	if _, after, ok := strings.Cut(s, TranslateMarker); ok {
		return strings.TrimSpace(after)
	}
	if strings.Contains(s, FailedMarker) {
		return strings.TrimSpace(strings.Replace(s, FailedMarker, "", 1))
	}
	return s
}

// Onboard derives a new locale from src with every string replaced by a
// placeholder naming its key path.
func Onboard(src *Tree) *Tree {
	return placeholderTree(src, "")
}

func placeholderTree(t *Tree, prefix string) *Tree {
	out := NewTree()
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, placeholderValue(pair.Value, joinKey(prefix, pair.Key)))
	}
	return out
}

func placeholderValue(v any, path string) any {
	switch v := v.(type) {
	case string:
		return Placeholder(path, v)
	case *Tree:
		return placeholderTree(v, path)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = placeholderValue(item, indexKey(path, i))
		}
		return items
	}
	return v
}

// Merge adds every key of src that dst lacks, as placeholders, and returns
// the number of leaves added. Existing entries in dst are never touched.
func Merge(src, dst *Tree) int {
	return mergeTree(src, dst, "")
}

func mergeTree(src, dst *Tree, prefix string) int {
	added := 0
	for pair := src.Oldest(); pair != nil; pair = pair.Next() {
		path := joinKey(prefix, pair.Key)
		existing, ok := dst.Get(pair.Key)
		if !ok {
			v := placeholderValue(cloneValue(pair.Value), path)
			dst.Set(pair.Key, v)
			added += countLeaves(v)
			continue
		}
		srcTree, srcIsTree := pair.Value.(*Tree)
		dstTree, dstIsTree := existing.(*Tree)
		if srcIsTree && dstIsTree {
			added += mergeTree(srcTree, dstTree, path)
		}
	}
	return added
}

// countLeaves counts strings below v; a non-string scalar counts as one.
func countLeaves(v any) int {
	switch v := v.(type) {
	case *Tree:
		n := 0
		for pair := v.Oldest(); pair != nil; pair = pair.Next() {
			n += countLeaves(pair.Value)
		}
		return n
	case []any:
		n := 0
		for _, item := range v {
			n += countLeaves(item)
		}
		return n
	}
	return 1
}

// Stats summarises how much of a locale is translated.
type Stats struct {
	Total        int
	Untranslated int
}

// Translated is the number of strings without a placeholder.
func (s Stats) Translated() int { return s.Total - s.Untranslated }

// Complete reports whether nothing is left to translate.
func (s Stats) Complete() bool { return s.Untranslated == 0 }

// Count tallies the string leaves of t.
func Count(t *Tree) Stats {
	var s Stats
	Walk(t, func(_, value string) {
		s.Total++
		if strings.Contains(value, TranslateMarker) {
			s.Untranslated++
		}
	})
	return s
}
