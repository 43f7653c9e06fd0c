package markdown

import "strings"

// splitFrontMatter parses an optional leading front-matter block as flat
// key:value pairs. The returned body has the block replaced with blank
// lines so downstream source line numbers stay accurate. Malformed lines
// are silently skipped; an unterminated block is treated as body text.
func splitFrontMatter(source string) (map[string]string, string) {
	lines := strings.Split(source, "\n")
	if len(lines) < 2 || strings.TrimRight(lines[0], "\r") != "---" {
		return nil, source
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		trimmed := strings.TrimRight(lines[i], "\r")
		if trimmed == "---" || trimmed == "..." {
			end = i
			break
		}
	}
	if end == -1 {
		return nil, source
	}

	fm := map[string]string{}
	for _, line := range lines[1:end] {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		fm[key] = stripQuotes(strings.TrimSpace(value))
	}

	for i := 0; i <= end; i++ {
		lines[i] = ""
	}
	return fm, strings.Join(lines, "\n")
}

func stripQuotes(s string) string {
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
