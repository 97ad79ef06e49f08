// Package sanitize turns raw provider output into text safe to show a user.
// Model answers leak control tokens, code fences, and raw JSON; Clean strips
// or reformats all of it. The one guarantee: the output never contains
// top-level JSON object or array delimiters.
package sanitize

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	specialToken = regexp.MustCompile(`<\|[^|]*\|>|</?s>`)
	codeFence    = regexp.MustCompile("(?m)^```[a-zA-Z0-9_-]*[ \t]*$")
	braceChunk   = regexp.MustCompile(`\{[^{}]*\}`)
	bracketChunk = regexp.MustCompile(`\[[^\[\]]*\]`)
	quotedPair   = regexp.MustCompile(`"[^"\n]+"\s*:\s*("[^"\n]*"|[^,\n}\]]+),?`)
	excessBlank  = regexp.MustCompile(`\n{3,}`)
)

// Clean sanitizes raw extracted text. Idempotent: Clean(Clean(x)) == Clean(x).
func Clean(text string) string {
	cleaned := specialToken.ReplaceAllString(text, "")
	cleaned = codeFence.ReplaceAllString(cleaned, "")
	cleaned = strings.TrimSpace(cleaned)

	// JSON-shaped answers get rendered as labeled text instead of ever
	// reaching a user as raw braces.
	if strings.HasPrefix(cleaned, "{") && strings.HasSuffix(cleaned, "}") {
		if rendered, ok := renderJSON(cleaned); ok {
			cleaned = rendered
		}
	}

	cleaned = stripLeakedStructure(cleaned)
	cleaned = excessBlank.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)
	return capitalize(cleaned)
}

// renderJSON parses a JSON object and renders every top-level key as a
// bolded human-readable label followed by its value. Keys are walked in
// sorted order so the same input always renders the same way.
func renderJSON(text string) (string, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		return "", false
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		writeValue(&b, k, obj[k], 0)
	}
	return b.String(), true
}

func writeValue(b *strings.Builder, key string, value any, depth int) {
	indent := strings.Repeat("  ", depth)
	label := "**" + labelFor(key) + ":**"

	switch v := value.(type) {
	case map[string]any:
		b.WriteString(indent + label)
		subKeys := make([]string, 0, len(v))
		for k := range v {
			subKeys = append(subKeys, k)
		}
		sort.Strings(subKeys)
		for _, sk := range subKeys {
			b.WriteString("\n")
			writeValue(b, sk, v[sk], depth+1)
		}
	case []any:
		b.WriteString(indent + label)
		for _, item := range v {
			b.WriteString("\n" + indent + "- " + scalarString(item))
		}
	default:
		b.WriteString(indent + label + " " + scalarString(v))
	}
}

func scalarString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case nil:
		return ""
	case float64:
		// Avoid 1 rendering as 1e+00.
		if s == float64(int64(s)) {
			return fmt.Sprintf("%d", int64(s))
		}
		return fmt.Sprintf("%g", s)
	default:
		return fmt.Sprintf("%v", s)
	}
}

// labelFor converts a snake_case key into a Title Case label.
func labelFor(key string) string {
	words := strings.Split(strings.ReplaceAll(key, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// stripLeakedStructure removes brace- and bracket-delimited fragments and
// quoted key:value pairs that look like structured data leaking through.
func stripLeakedStructure(text string) string {
	// Innermost-out so nested fragments disappear too.
	for braceChunk.MatchString(text) {
		text = braceChunk.ReplaceAllString(text, "")
	}
	for bracketChunk.MatchString(text) {
		text = bracketChunk.ReplaceAllString(text, "")
	}
	text = quotedPair.ReplaceAllString(text, "")
	// Unbalanced delimiters escape the chunk regexes; the no-delimiter
	// guarantee covers them too.
	return strings.NewReplacer("{", "", "}", "", "[", "", "]", "").Replace(text)
}

func capitalize(text string) string {
	if text == "" {
		return text
	}
	r := []rune(text)
	if unicode.IsLower(r[0]) {
		r[0] = unicode.ToUpper(r[0])
		return string(r)
	}
	return text
}
