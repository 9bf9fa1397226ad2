package llm

import "strings"

// ExtractJSONObject pulls the first top-level JSON object out of a model
// response that may be wrapped in code fences or surrounding prose. If no
// balanced object is found the trimmed input is returned unchanged and left
// for the caller's JSON parser to reject.
func ExtractJSONObject(text string) string {
	text = stripCodeFence(strings.TrimSpace(text))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}

	// Unbalanced braces: fall back to everything from the first brace.
	return text[start:]
}

func stripCodeFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		first := strings.TrimSpace(text[:nl])
		if first == "" || strings.EqualFold(first, "json") {
			text = text[nl+1:]
		}
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
