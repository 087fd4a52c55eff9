package locale

import (
	"html"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Hardcoded is user-facing text written straight into a source file instead
// of going through a translation key.
type Hardcoded struct {
	At      Location `json:"at"`
	Text    string   `json:"text"`
	Context string   `json:"context"`
}

// SkippedAttributes never hold user-facing text. Names are lower case;
// data-* and on* attributes are skipped as well.
var SkippedAttributes = map[string]bool{
	"class": true, "classname": true, "style": true, "id": true, "key": true,
	"role": true, "tabindex": true, "to": true, "path": true, "href": true,
	"src": true, "target": true, "rel": true, "type": true, "name": true,
	"value": true, "checked": true, "disabled": true, "autocomplete": true,
	"placeholderkey": true, "i18nkey": true, "lang": true, "charset": true,
	"content": true, "for": true, "method": true, "action": true, "media": true,
	"aria-hidden": true, "aria-live": true, "aria-atomic": true,
	"aria-relevant": true, "aria-role": true, "aria-pressed": true,
	"aria-expanded": true, "aria-controls": true, "aria-describedby": true,
	"aria-selected": true, "aria-current": true, "aria-checked": true,
	"aria-valuemax": true, "aria-valuemin": true, "aria-valuenow": true,
	"aria-autocomplete": true, "aria-orientation": true,
}

var (
	// label: "Text" in an object literal.
	propertyPattern = regexp.MustCompile(`\b(text|label|title|ariaLabel|description|placeholder|buttonLabel|helperText)["']?\s*:\s*`)
	// el.textContent = "Text".
	assignPattern = regexp.MustCompile(`\.(textContent|innerText|innerHTML|title|placeholder|alt|ariaLabel|label)\s*=`)
)

// HardcodedText walks root like ScanUsages and reports text that should use
// a translation key: HTML text and user-facing attributes, and script string
// literals given to user-facing object properties or assigned to the text of
// a DOM element. Results are sorted by location.
func HardcodedText(root string) ([]Hardcoded, error) {
	found := []Hardcoded{}
	err := walkSources(root, func(path, rel string) error {
		switch filepath.Ext(path) {
		case ".html", ".js", ".ts", ".tsx":
		default:
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if filepath.Ext(path) == ".html" {
			found = append(found, ScanHTML(rel, string(data))...)
			return nil
		}
		for i, line := range strings.Split(string(data), "\n") {
			for _, h := range ScanScriptLine(line) {
				h.At = Location{File: rel, Line: i + 1, Column: h.At.Column}
				found = append(found, h)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i].At, found[j].At
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return found, nil
}

func userFacing(text string) (string, bool) {
	text = strings.Join(strings.Fields(text), " ")
	for _, r := range text {
		if unicode.IsLetter(r) {
			return text, true
		}
	}
	return "", false
}

// --- HTML ---

type htmlScan struct {
	file       string
	src        string
	lineStarts []int
	found      []Hardcoded
}

// ScanHTML reports the text nodes and user-facing attribute values of an
// HTML document. Script and style bodies and comments are ignored.
func ScanHTML(file, src string) []Hardcoded {
	s := &htmlScan{file: file, src: src, lineStarts: []int{0}}
	for i := 0; i < len(src); i++ {
		if src[i] == '\n' {
			s.lineStarts = append(s.lineStarts, i+1)
		}
	}

	i := 0
	for i < len(src) {
		switch {
		case strings.HasPrefix(src[i:], "<!--"):
			end := strings.Index(src[i:], "-->")
			if end < 0 {
				return s.found
			}
			i += end + len("-->")
		case src[i] == '<':
			name, next := s.tag(i)
			i = next
			if name == "script" || name == "style" {
				end := strings.Index(strings.ToLower(src[i:]), "</"+name)
				if end < 0 {
					return s.found
				}
				i += end
			}
		default:
			end := strings.IndexByte(src[i:], '<')
			if end < 0 {
				end = len(src) - i
			}
			s.record(src[i:i+end], i, "text content", true)
			i += end
		}
	}
	return s.found
}

func (s *htmlScan) location(off int) Location {
	line := sort.Search(len(s.lineStarts), func(i int) bool { return s.lineStarts[i] > off }) - 1
	start := s.lineStarts[line]
	return Location{File: s.file, Line: line + 1, Column: utf8.RuneCountInString(s.src[start:off]) + 1}
}

// record reports raw when it holds letters. off is the offset of raw; text
// nodes are located at their first non-space rune.
func (s *htmlScan) record(raw string, off int, context string, trimLeading bool) {
	text, ok := userFacing(html.UnescapeString(raw))
	if !ok {
		return
	}
	if trimLeading {
		off += len(raw) - len(strings.TrimLeftFunc(raw, unicode.IsSpace))
	}
	s.found = append(s.found, Hardcoded{At: s.location(off), Text: text, Context: context})
}

// tag reads the tag starting at src[i] == '<' and returns its lower-case
// name (empty for closing tags and declarations) and the offset after it.
func (s *htmlScan) tag(i int) (string, int) {
	src := s.src
	j := i + 1
	if j < len(src) && (src[j] == '/' || src[j] == '!' || src[j] == '?') {
		end := strings.IndexByte(src[j:], '>')
		if end < 0 {
			return "", len(src)
		}
		return "", j + end + 1
	}
	start := j
	for j < len(src) && isNameByte(src[j]) {
		j++
	}
	name := strings.ToLower(src[start:j])
	if name == "" {
		// A lone '<' in text.
		return "", i + 1
	}

	for j < len(src) {
		for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r' || src[j] == '/') {
			j++
		}
		if j >= len(src) {
			break
		}
		if src[j] == '>' {
			return name, j + 1
		}
		attrStart := j
		for j < len(src) && !strings.ContainsRune(" \t\r\n=>/", rune(src[j])) {
			j++
		}
		attr := strings.ToLower(src[attrStart:j])
		if j >= len(src) || src[j] != '=' {
			continue
		}
		j++
		var value string
		valueOff := j
		if j < len(src) && (src[j] == '"' || src[j] == '\'') {
			quote := src[j]
			end := strings.IndexByte(src[j+1:], quote)
			if end < 0 {
				return name, len(src)
			}
			value = src[j+1 : j+1+end]
			j += end + 2
		} else {
			for j < len(src) && !strings.ContainsRune(" \t\r\n>", rune(src[j])) {
				j++
			}
			value = src[valueOff:j]
		}
		if attr == "" || SkippedAttributes[attr] || strings.HasPrefix(attr, "data-") || strings.HasPrefix(attr, "on") {
			continue
		}
		s.record(value, valueOff, `attribute "`+attr+`"`, false)
	}
	return name, len(src)
}

func isNameByte(b byte) bool {
	return b == '-' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// --- Scripts ---

// ScanScriptLine reports the hard-coded text on one line of script. Only
// the Column of each returned location is set.
func ScanScriptLine(line string) []Hardcoded {
	var found []Hardcoded
	add := func(off int, text, context string) {
		if text, ok := userFacing(text); ok {
			found = append(found, Hardcoded{
				At:      Location{Column: utf8.RuneCountInString(line[:off]) + 1},
				Text:    text,
				Context: context,
			})
		}
	}

	for _, m := range propertyPattern.FindAllStringSubmatchIndex(line, -1) {
		lits := scriptLiterals(line[m[1]:])
		if len(lits) > 0 && lits[0].first {
			add(m[1]+lits[0].off, lits[0].text, `property "`+line[m[2]:m[3]]+`"`)
		}
	}
	for _, m := range assignPattern.FindAllStringSubmatchIndex(line, -1) {
		if m[1] < len(line) && line[m[1]] == '=' {
			continue // comparison
		}
		for _, lit := range scriptLiterals(line[m[1]:]) {
			if !lit.arg {
				add(m[1]+lit.off, lit.text, "assignment to "+line[m[2]:m[3]])
			}
		}
	}
	sort.SliceStable(found, func(i, j int) bool { return found[i].At.Column < found[j].At.Column })
	return found
}

type scriptLiteral struct {
	off   int    // offset of the opening quote
	text  string // contents; template substitutions removed
	first bool   // nothing but spaces before it
	arg   bool   // call argument or index, such as t("key") or m["key"]
}

// scriptLiterals lists the string literals of s up to the end of the
// statement.
func scriptLiterals(s string) []scriptLiteral {
	var out []scriptLiteral
	lead := len(s) - len(strings.TrimLeft(s, " \t"))
	for i := lead; i < len(s); i++ {
		switch c := s[i]; c {
		case ';':
			return out
		case '"', '\'', '`':
			end, text := closeLiteral(s, i)
			out = append(out, scriptLiteral{off: i, text: text, first: i == lead, arg: callArg(s, i)})
			i = end
		case '/':
			if i+1 < len(s) && s[i+1] == '/' {
				return out
			}
		}
	}
	return out
}

// closeLiteral returns the offset of the quote closing the literal opened at
// s[i], and the literal's text outside any ${...} substitutions.
func closeLiteral(s string, i int) (int, string) {
	quote := s[i]
	var b strings.Builder
	depth := 0
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		switch {
		case c == '\\':
			j++
		case quote == '`' && depth == 0 && strings.HasPrefix(s[j:], "${"):
			depth = 1
			j++
		case depth > 0 && c == '{':
			depth++
		case depth > 0 && c == '}':
			depth--
			if depth == 0 {
				b.WriteByte(' ')
			}
		case depth == 0 && c == quote:
			return j, b.String()
		case depth == 0:
			b.WriteByte(c)
		}
	}
	return len(s), b.String()
}

// callArg reports whether the literal at s[i] follows '(', ',' or '['.
func callArg(s string, i int) bool {
	j := i - 1
	for j >= 0 && (s[j] == ' ' || s[j] == '\t') {
		j--
	}
	return j >= 0 && (s[j] == '(' || s[j] == ',' || s[j] == '[')
}
