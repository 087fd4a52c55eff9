package locale

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// Location is a 1-based position in a scanned source file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column"`
}

func (l Location) String() string {
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// ScanExtensions are the file types searched for key usages.
var ScanExtensions = []string{".go", ".ts", ".tsx", ".js", ".html"}

var skippedDirs = map[string]bool{
	"locales":      true,
	"assets":       true,
	"node_modules": true,
	".git":         true,
}

// Key usages: t("a.b"), i18n.t('a.b'), i18nKey="a.b" and, in plain HTML,
// data-i18n="a.b". The submatch holding the key is the first non-empty one.
var usagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\bt\(\s*("([^"\n]+)")`),
	regexp.MustCompile(`\bt\(\s*('([^'\n]+)')`),
	regexp.MustCompile(`\bi18nKey=("([^"\n]+)")`),
	regexp.MustCompile(`\bi18nKey=('([^'\n]+)')`),
	regexp.MustCompile(`\bdata-i18n=("([^"\n]+)")`),
	regexp.MustCompile(`\bdata-i18n=('([^'\n]+)')`),
}

// ScanUsages walks root and records where every translation key is used.
// Paths in the result are relative to root.
func ScanUsages(root string) (map[string][]Location, error) {
	usages := map[string][]Location{}
	err := walkSources(root, func(path, rel string) error {
		return scanFile(path, rel, usages)
	})
	if err != nil {
		return nil, err
	}
	return usages, nil
}

// walkSources calls fn for every scanned file under root, with its path
// relative to root in slash form.
func walkSources(root string, fn func(path, rel string) error) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && skippedDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !scanned(path) {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		return fn(path, filepath.ToSlash(rel))
	})
}

func scanned(path string) bool {
	if strings.HasSuffix(path, ".d.ts") || strings.HasSuffix(path, "_test.go") {
		return false
	}
	ext := filepath.Ext(path)
	for _, e := range ScanExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func scanFile(path, rel string, usages map[string][]Location) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		text := sc.Text()
		for _, key := range ScanLine(text) {
			usages[key.Key] = append(usages[key.Key], Location{File: rel, Line: line, Column: key.Column})
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan %s: %w", rel, err)
	}
	return nil
}

// LineUsage is a key found on one line; Column points at its opening quote.
type LineUsage struct {
	Key    string
	Column int
}

// ScanLine finds the translation keys used on a single line of source, in
// column order.
func ScanLine(text string) []LineUsage {
	var found []LineUsage
	for _, re := range usagePatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			// m[2] is the quoted literal, m[4]:m[5] the key inside it.
			found = append(found, LineUsage{
				Key:    text[m[4]:m[5]],
				Column: utf8.RuneCountInString(text[:m[2]]) + 1,
			})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Column < found[j].Column })
	return found
}

// Missing is a key used in source but absent from the source locale.
type Missing struct {
	Key string   `json:"key"`
	At  Location `json:"at"`
}

// Coverage compares key usages against a locale.
type Coverage struct {
	Used    int       `json:"used"`
	Missing []Missing `json:"missing"`
	// Unused lists leaf keys nothing references, in document order.
	Unused []string `json:"unused"`
}

// CheckCoverage reports missing keys (sorted by location) and unused leaves.
// A leaf is used when its own key or any ancestor key is referenced.
func CheckCoverage(t *Tree, usages map[string][]Location) Coverage {
	c := Coverage{Used: len(usages), Missing: []Missing{}, Unused: []string{}}
	for key, locs := range usages {
		if _, ok := Lookup(t, key); ok {
			continue
		}
		for _, at := range locs {
			c.Missing = append(c.Missing, Missing{Key: key, At: at})
		}
	}
	sort.Slice(c.Missing, func(i, j int) bool {
		a, b := c.Missing[i].At, c.Missing[j].At
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	Walk(t, func(path, _ string) {
		if !referenced(path, usages) {
			c.Unused = append(c.Unused, path)
		}
	})
	return c
}

func referenced(path string, usages map[string][]Location) bool {
	// Array elements are only reachable through their parent key.
	if i := strings.IndexByte(path, '['); i >= 0 {
		path = path[:i]
	}
	for {
		if _, ok := usages[path]; ok {
			return true
		}
		i := strings.LastIndexByte(path, '.')
		if i < 0 {
			return false
		}
		path = path[:i]
	}
}
