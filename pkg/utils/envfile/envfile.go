package envfile

import (
	"bufio"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// Parse reads .env content into a key-value map. Comments, blank lines
// and "export " prefixes are tolerated; quoted values are unquoted.
func Parse(content string) (map[string]string, error) {
	env := make(map[string]string)
	if content == "" {
		return env, nil
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		key, value, ok, err := splitLine(scanner.Text())
		if err != nil {
			return nil, goerr.Wrap(err, "invalid env file line", goerr.V("line", lineNo))
		}
		if !ok {
			continue
		}
		env[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to read env file content")
	}

	return env, nil
}

// Patch updates .env content with the given key-value pairs while
// preserving comments, blank lines and unrelated keys. Existing keys are
// rewritten in place, new keys are appended. Empty values are ignored so
// placeholders survive until a real value is configured.
func Patch(content string, updates map[string]string, order []string) string {
	var lines []string
	if content != "" {
		lines = strings.Split(content, "\n")
	}

	position := make(map[string]int)
	for i, line := range lines {
		key, _, ok, err := splitLine(line)
		if err != nil || !ok {
			continue
		}
		if _, exists := position[key]; !exists {
			position[key] = i
		}
	}

	for _, key := range order {
		value, ok := updates[key]
		if !ok || value == "" {
			continue
		}

		entry := key + "=" + quoteValue(value)
		if idx, found := position[key]; found {
			lines[idx] = entry
			continue
		}
		if len(lines) > 0 && lines[len(lines)-1] != "" {
			lines = append(lines, "")
		}
		lines = append(lines, entry)
		position[key] = len(lines) - 1
	}

	return strings.Join(lines, "\n")
}

// splitLine parses a single line into key and value. ok is false for
// comments and blank lines.
func splitLine(line string) (key, value string, ok bool, err error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", "", false, nil
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")

	idx := strings.Index(trimmed, "=")
	if idx <= 0 {
		return "", "", false, goerr.New("expected KEY=VALUE")
	}

	key = strings.TrimSpace(trimmed[:idx])
	if key == "" {
		return "", "", false, goerr.New("expected KEY=VALUE")
	}

	value = strings.TrimSpace(trimmed[idx+1:])
	switch {
	case strings.HasPrefix(value, `"`):
		value, err = unquoteDouble(value)
		if err != nil {
			return "", "", false, err
		}
	case strings.HasPrefix(value, `'`):
		value, err = unquoteSingle(value)
		if err != nil {
			return "", "", false, err
		}
	}

	return key, value, true, nil
}

// unquoteDouble decodes a double-quoted value with backslash escapes
func unquoteDouble(raw string) (string, error) {
	var b strings.Builder
	escaped := false
	for i := 1; i < len(raw); i++ {
		c := raw[i]
		if escaped {
			switch c {
			case 'n':
				b.WriteByte('\n')
			case 'r':
				b.WriteByte('\r')
			default:
				b.WriteByte(c)
			}
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			return b.String(), trailingOK(raw[i+1:])
		default:
			b.WriteByte(c)
		}
	}
	return "", goerr.New("unterminated quoted value")
}

// unquoteSingle decodes a single-quoted value without escape handling
func unquoteSingle(raw string) (string, error) {
	closing := strings.IndexByte(raw[1:], '\'')
	if closing < 0 {
		return "", goerr.New("unterminated quoted value")
	}
	return raw[1 : 1+closing], trailingOK(raw[closing+2:])
}

// trailingOK allows only whitespace or a comment after a quoted value
func trailingOK(suffix string) error {
	trimmed := strings.TrimSpace(suffix)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return nil
	}
	return goerr.New("unexpected content after quoted value")
}

// quoteValue quotes and escapes a value when plain formatting would be
// ambiguous
func quoteValue(val string) string {
	if !strings.ContainsAny(val, " \t#\n\r\"") {
		return val
	}
	val = strings.ReplaceAll(val, `\`, `\\`)
	val = strings.ReplaceAll(val, `"`, `\"`)
	val = strings.ReplaceAll(val, "\n", `\n`)
	val = strings.ReplaceAll(val, "\r", `\r`)
	return `"` + val + `"`
}
