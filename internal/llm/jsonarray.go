package llm

import (
	"encoding/json"
	"errors"
	"strings"
)

// ErrNoArray is returned when no JSON array can be recovered from a response
var ErrNoArray = errors.New("no JSON array in response")

// RecoverArray pulls a JSON array out of a model response. Models wrap
// answers in code fences or surround them with prose, so after stripping
// fences the whole text is tried first, then each balanced [...] span in
// order of its opening bracket.
func RecoverArray(text string) ([]json.RawMessage, error) {
	text = stripFences(text)

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(text), &items); err == nil {
		return items, nil
	}

	for start := strings.IndexByte(text, '['); start >= 0; {
		if end := matchingBracket(text, start); end > start {
			if err := json.Unmarshal([]byte(text[start:end+1]), &items); err == nil {
				return items, nil
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}

	return nil, ErrNoArray
}

// stripFences removes a leading ```json (or ```) line and a trailing ```
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		if nl := strings.IndexByte(text, '\n'); nl >= 0 {
			text = text[nl+1:]
		} else {
			text = strings.TrimPrefix(text, "```")
		}
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

// matchingBracket returns the index of the ']' closing the '[' at start,
// skipping brackets inside JSON strings, or -1.
func matchingBracket(text string, start int) int {
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
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
