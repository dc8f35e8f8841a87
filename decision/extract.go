package decision

import (
	"regexp"
	"strings"
)

// fencePattern matches JSON inside markdown code fences: ```json { ... } ```.
// Text-generation collaborators frequently wrap payloads this way even when
// asked for bare JSON.
var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")

// extractObject locates the outermost balanced brace-delimited substring of
// content. A markdown code fence is tried first; otherwise the text is
// scanned for a balanced {...} span, tracking string literals and escapes so
// braces inside values do not confuse the balance count. Returns "" when no
// candidate object exists.
func extractObject(content string) string {
	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 {
		return strings.TrimSpace(m[1])
	}
	return balancedBraces(content)
}

func balancedBraces(content string) string {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(content); i++ {
		ch := content[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case ch == '\\' && inString:
			escaped = true
		case ch == '"':
			inString = !inString
		case inString:
		case ch == '{':
			depth++
		case ch == '}':
			depth--
			if depth == 0 {
				return content[start : i+1]
			}
		}
	}
	return ""
}
