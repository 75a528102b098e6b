package llm

import "strings"

// ExtractJSON pulls the first JSON object or array out of a model response.
// Models wrap structured output in markdown fences or prose often enough
// that callers should never feed raw completions straight to json.Unmarshal.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.TrimSpace(s)

	start := strings.IndexAny(s, "{[")
	if start < 0 {
		return s
	}

	var end int
	if s[start] == '{' {
		end = strings.LastIndex(s, "}")
	} else {
		end = strings.LastIndex(s, "]")
	}
	if end <= start {
		return s[start:]
	}
	return s[start : end+1]
}
