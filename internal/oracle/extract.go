package oracle

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// codeBlockPattern matches markdown code blocks with an optional language tag.
// Captures: (1) language, (2) content
var codeBlockPattern = regexp.MustCompile(`(?s)` + "```" + `(\w*)\s*\n(.+?)\n?` + "```")

// fencePattern matches stray fence markers left in a reply.
var fencePattern = regexp.MustCompile("```(?:json|JSON)?")

// ExtractJSON pulls a JSON object out of a model reply.
// Priority:
//  1. a JSON object inside a ```json or bare ``` code block
//  2. the first balanced {...} in the reply
//  3. the reply with fences stripped, passed through jsonrepair
func ExtractJSON(response string) (string, error) {
	if jsonStr, found := extractFromCodeBlock(response); found {
		return jsonStr, nil
	}

	if jsonStr, found := extractRawObject(response); found {
		return jsonStr, nil
	}

	stripped := strings.TrimSpace(fencePattern.ReplaceAllString(response, ""))
	if start := strings.Index(stripped, "{"); start >= 0 {
		repaired, err := jsonrepair.JSONRepair(stripped[start:])
		if err == nil && strings.HasPrefix(strings.TrimSpace(repaired), "{") && isValidJSON(repaired) {
			return repaired, nil
		}
	}

	return "", fmt.Errorf("no valid JSON object found in response")
}

func extractFromCodeBlock(response string) (string, bool) {
	for _, match := range codeBlockPattern.FindAllStringSubmatch(response, -1) {
		lang := strings.ToLower(match[1])
		content := strings.TrimSpace(match[2])

		// Skip blocks explicitly tagged as other languages
		if lang != "" && lang != "json" {
			continue
		}

		if strings.HasPrefix(content, "{") && isValidJSON(content) {
			return content, true
		}
	}
	return "", false
}

func extractRawObject(response string) (string, bool) {
	for offset := 0; offset < len(response); {
		start := strings.IndexByte(response[offset:], '{')
		if start < 0 {
			return "", false
		}
		start += offset

		if jsonStr := findMatchingBrace(response[start:]); jsonStr != "" && isValidJSON(jsonStr) {
			return jsonStr, true
		}
		offset = start + 1
	}
	return "", false
}

// findMatchingBrace returns the prefix of s up to the brace closing s[0],
// skipping braces inside string literals.
func findMatchingBrace(s string) string {
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(s); i++ {
		c := s[i]

		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[:i+1]
			}
		}
	}
	return ""
}

func isValidJSON(s string) bool {
	var js json.RawMessage
	return json.Unmarshal([]byte(s), &js) == nil
}
