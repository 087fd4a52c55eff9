// Package locale reads, rewrites and analyses i18n locale files: nested JSON
// objects of strings keyed by dotted paths. Key order is preserved on every
// rewrite so diffs stay reviewable.
package locale

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Tree is one locale document. Values are string leaves, nested *Tree
// objects, []any arrays, or json.RawMessage for other scalars.
type Tree = orderedmap.OrderedMap[string, any]

// NewTree returns an empty document.
func NewTree() *Tree {
	return orderedmap.New[string, any]()
}

// Parse decodes a locale document, keeping keys in file order.
func Parse(data []byte) (*Tree, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	_, dt, _, err := jsonparser.Get(data)
	if err != nil {
		return nil, err
	}
	if dt != jsonparser.Object {
		return nil, fmt.Errorf("locale root must be an object, got %s", dt)
	}
	return parseObject(data)
}

func parseObject(data []byte) (*Tree, error) {
	t := NewTree()
	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		k, err := jsonparser.ParseString(key)
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		v, err := parseValue(value, dt)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		t.Set(k, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func parseValue(value []byte, dt jsonparser.ValueType) (any, error) {
	switch dt {
	case jsonparser.String:
		return jsonparser.ParseString(value)
	case jsonparser.Object:
		return parseObject(value)
	case jsonparser.Array:
		items := []any{}
		var itemErr error
		_, err := jsonparser.ArrayEach(value, func(v []byte, dt jsonparser.ValueType, _ int, err error) {
			if itemErr != nil {
				return
			}
			if err != nil {
				itemErr = err
				return
			}
			item, err := parseValue(v, dt)
			if err != nil {
				itemErr = err
				return
			}
			items = append(items, item)
		})
		if err != nil {
			return nil, err
		}
		return items, itemErr
	default:
		return json.RawMessage(bytes.Clone(value)), nil
	}
}

// Encode renders t with two-space indentation and a trailing newline.
func Encode(t *Tree) ([]byte, error) {
	raw, err := t.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, unescapeHTML(raw), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// unescapeHTML undoes the <, > and & escapes added by the JSON
// encoder. Translations routinely contain markup and ampersands.
func unescapeHTML(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+6 <= len(b) {
			switch string(b[i+2 : i+6]) {
			case "003c":
				out = append(out, '<')
				i += 5
				continue
			case "003e":
				out = append(out, '>')
				i += 5
				continue
			case "0026":
				out = append(out, '&')
				i += 5
				continue
			}
		}
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// Load reads a locale file.
func Load(path string) (*Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return t, nil
}

// Save writes t to path in the canonical layout.
func Save(path string, t *Tree) error {
	data, err := Encode(t)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Walk calls fn for every string leaf in document order. Object members are
// joined with dots and array elements are addressed as path[i].
func Walk(t *Tree, fn func(path, value string)) {
	walkTree(t, "", fn)
}

func walkTree(t *Tree, prefix string, fn func(path, value string)) {
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		walkValue(pair.Value, joinKey(prefix, pair.Key), fn)
	}
}

func walkValue(v any, path string, fn func(path, value string)) {
	switch v := v.(type) {
	case string:
		fn(path, v)
	case *Tree:
		walkTree(v, path, fn)
	case []any:
		for i, item := range v {
			walkValue(item, indexKey(path, i), fn)
		}
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

func indexKey(path string, i int) string {
	return path + "[" + strconv.Itoa(i) + "]"
}

// Lookup resolves a dotted key. Any value counts, including a subtree.
func Lookup(t *Tree, key string) (any, bool) {
	var cur any = t
	for _, seg := range strings.Split(key, ".") {
		node, ok := cur.(*Tree)
		if !ok {
			return nil, false
		}
		if cur, ok = node.Get(seg); !ok {
			return nil, false
		}
	}
	return cur, true
}

// Clone deep-copies t.
func Clone(t *Tree) *Tree {
	out := NewTree()
	for pair := t.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, cloneValue(pair.Value))
	}
	return out
}

func cloneValue(v any) any {
	switch v := v.(type) {
	case *Tree:
		return Clone(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = cloneValue(item)
		}
		return items
	}
	return v
}
