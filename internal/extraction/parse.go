package extraction

import "strings"

// ExtractJSON pulls the first complete JSON object out of a model reply.
// Models wrap output in markdown fences or prose often enough that a plain
// json.Unmarshal on the raw content is not reliable.
func ExtractJSON(content string) ([]byte, bool) {
	content = stripFences(content)

	start := strings.IndexByte(content, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(content); i++ {
		c := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return []byte(content[start : i+1]), true
				}
			}
		}
	}
	return nil, false
}

func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	if end := strings.LastIndex(content, "```"); end >= 0 {
		content = content[:end]
	}
	return strings.TrimSpace(content)
}
