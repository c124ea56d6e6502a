package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// applyEdits rewrites the string values addressed by muts in a TOML document,
// leaving every other byte untouched. Each mutation must find its field
// holding exactly its Old value.
func applyEdits(data []byte, muts []Mutation) ([]byte, error) {
	lines := strings.SplitAfter(string(data), "\n")
	done := make([]bool, len(muts))

	var header FieldPath
	inArrayTable := false
	inMultiline := false

	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if inMultiline {
			if strings.Count(trimmed, `"""`)%2 == 1 || strings.Count(trimmed, `'''`)%2 == 1 {
				inMultiline = false
			}
			continue
		}
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "[") {
			inArrayTable = strings.HasPrefix(trimmed, "[[")
			inner := strings.Trim(stripComment(trimmed), "[] \t")
			header = parseKeyPath(inner)
			continue
		}

		eq := indexOutsideQuotes(line, '=')
		if eq < 0 {
			continue
		}
		value := line[eq+1:]
		if strings.Count(value, `"""`)%2 == 1 || strings.Count(value, `'''`)%2 == 1 {
			inMultiline = true
			continue
		}
		if inArrayTable {
			continue
		}

		full := append(append(FieldPath{}, header...), parseKeyPath(line[:eq])...)
		for j, m := range muts {
			if done[j] {
				continue
			}
			var (
				edited string
				ok     bool
			)
			switch {
			case full.Equal(m.Field):
				edited, ok = replaceString(value, m.Old, m.New)
			case len(m.Field) > 0 && full.Equal(m.Field[:len(m.Field)-1]):
				edited, ok = replaceInline(value, m.Field[len(m.Field)-1], m.Old, m.New)
			}
			if ok {
				value = edited
				done[j] = true
			}
		}
		lines[i] = line[:eq+1] + value
	}

	for j, m := range muts {
		if !done[j] {
			return nil, fmt.Errorf("field %s with value %q not found", m.Field, m.Old)
		}
	}
	return []byte(strings.Join(lines, "")), nil
}

// verifyEdits parses the rewritten document and checks each field now holds
// its new value.
func verifyEdits(data []byte, muts []Mutation) error {
	var doc map[string]any
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("rewritten manifest does not parse: %w", err)
	}
	for _, m := range muts {
		got, ok := lookup(doc, m.Field)
		if !ok || got != m.New {
			return fmt.Errorf("field %s = %q after rewrite, want %q", m.Field, got, m.New)
		}
	}
	return nil
}

func lookup(doc map[string]any, path FieldPath) (string, bool) {
	var cur any = doc
	for _, k := range path {
		m, ok := cur.(map[string]any)
		if !ok {
			return "", false
		}
		cur, ok = m[k]
		if !ok {
			return "", false
		}
	}
	s, ok := cur.(string)
	return s, ok
}

// replaceString replaces a leading string literal equal to from.
func replaceString(value, from, to string) (string, bool) {
	lead := len(value) - len(strings.TrimLeft(value, " \t"))
	rest := value[lead:]
	if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
		return "", false
	}
	q := rest[0]
	end := strings.IndexByte(rest[1:], q)
	if end < 0 || rest[1:1+end] != from {
		return "", false
	}
	return value[:lead] + string(q) + to + rest[1+end:], true
}

// replaceInline replaces key = "from" inside an inline table value.
func replaceInline(value, key, from, to string) (string, bool) {
	if !strings.HasPrefix(strings.TrimSpace(value), "{") {
		return "", false
	}
	re := regexp.MustCompile(`([{,]\s*` + keyPattern(key) + `\s*=\s*)(["'])` + regexp.QuoteMeta(from) + `(["'])`)
	loc := re.FindStringSubmatchIndex(value)
	if loc == nil {
		return "", false
	}
	return value[:loc[3]] + value[loc[4]:loc[5]] + to + value[loc[6]:], true
}

func keyPattern(key string) string {
	q := regexp.QuoteMeta(key)
	return `(?:` + q + `|"` + q + `"|'` + q + `')`
}

// parseKeyPath splits a dotted TOML key into its elements, unquoting quoted
// elements.
func parseKeyPath(s string) FieldPath {
	var (
		path  FieldPath
		cur   strings.Builder
		quote byte
	)
	flush := func() {
		k := strings.TrimSpace(cur.String())
		if len(k) >= 2 && (k[0] == '"' || k[0] == '\'') && k[len(k)-1] == k[0] {
			k = k[1 : len(k)-1]
		}
		path = append(path, k)
		cur.Reset()
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
			cur.WriteByte(c)
		case c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == '.':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return path
}

func indexOutsideQuotes(s string, target byte) int {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return -1
		case c == target:
			return i
		}
	}
	return -1
}

func stripComment(s string) string {
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '#':
			return s[:i]
		}
	}
	return s
}
