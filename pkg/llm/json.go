package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// thinkTagPattern matches a leading <think>...</think> block emitted by
// reasoning models ahead of the answer.
var thinkTagPattern = regexp.MustCompile(`(?s)^[\s]*<think>.*?</think>[\s]*`)

// ExtractJSON extracts JSON content from an LLM response that may contain
// <think> tags, markdown code blocks, or other formatting.
func ExtractJSON(response string) (string, error) {
	// Strip <think>...</think> tags from the start of the response
	cleaned := thinkTagPattern.ReplaceAllString(response, "")

	// Find the first occurrence of { or [ to determine JSON type
	objStart := strings.IndexByte(cleaned, '{')
	arrStart := strings.IndexByte(cleaned, '[')

	// Try whichever comes first (or the one that exists)
	if objStart >= 0 && (arrStart < 0 || objStart < arrStart) {
		if jsonStr, ok := extractBalancedJSON(cleaned, '{', '}'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	if arrStart >= 0 {
		if jsonStr, ok := extractBalancedJSON(cleaned, '[', ']'); ok {
			if json.Valid([]byte(jsonStr)) {
				return jsonStr, nil
			}
		}
	}

	// Last resort: check if the entire cleaned response is valid JSON
	trimmed := strings.TrimSpace(cleaned)
	if json.Valid([]byte(trimmed)) {
		return trimmed, nil
	}

	return "", fmt.Errorf("no valid JSON found in response")
}

// extractBalancedJSON finds the first balanced JSON structure starting with openChar.
// It handles nested structures by counting bracket depth.
func extractBalancedJSON(s string, openChar, closeChar byte) (string, bool) {
	// Find the first occurrence of the opening bracket
	start := strings.IndexByte(s, openChar)
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
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

		if c == openChar {
			depth++
		} else if c == closeChar {
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}

	return "", false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into the target.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}

// ErrNoSalvage is returned when a truncated response holds no usable array.
var ErrNoSalvage = errors.New("no salvageable array in response")

// SalvageStringArray recovers the complete string entries of the array stored
// under key in a JSON object that was cut off mid-stream, for example by a
// token limit. Entries are returned in order; an unterminated trailing string
// is discarded and complete non-string entries (null, numbers) become "" so
// positions stay aligned. Nothing after the first malformed token is read.
func SalvageStringArray(response, key string) ([]string, error) {
	s := thinkTagPattern.ReplaceAllString(response, "")

	pos := arrayStart(s, key)
	if pos < 0 {
		return nil, ErrNoSalvage
	}

	var out []string
	for pos < len(s) {
		pos = skipSeparators(s, pos)
		if pos >= len(s) || s[pos] == ']' {
			break
		}

		if s[pos] == '"' {
			end, ok := stringEnd(s, pos)
			if !ok {
				break
			}
			var v string
			if err := json.Unmarshal([]byte(s[pos:end]), &v); err != nil {
				break
			}
			out = append(out, v)
			pos = end
			continue
		}

		end := pos
		for end < len(s) && s[end] != ',' && s[end] != ']' {
			end++
		}
		if end >= len(s) {
			break
		}
		if !json.Valid([]byte(strings.TrimSpace(s[pos:end]))) {
			break
		}
		out = append(out, "")
		pos = end
	}

	if len(out) == 0 {
		return nil, ErrNoSalvage
	}
	return out, nil
}

// arrayStart returns the index just past the '[' that opens the value of
// "key", or -1.
func arrayStart(s, key string) int {
	quoted := `"` + key + `"`
	from := 0
	for {
		i := strings.Index(s[from:], quoted)
		if i < 0 {
			return -1
		}
		p := skipSpace(s, from+i+len(quoted))
		if p < len(s) && s[p] == ':' {
			p = skipSpace(s, p+1)
			if p < len(s) && s[p] == '[' {
				return p + 1
			}
		}
		from += i + len(quoted)
	}
}

// stringEnd returns the index just past the closing quote of the JSON string
// starting at s[start], or false when the string is unterminated.
func stringEnd(s string, start int) (int, bool) {
	escaped := false
	for i := start + 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == '"':
			return i + 1, true
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\r\n", s[i]) >= 0 {
		i++
	}
	return i
}

func skipSeparators(s string, i int) int {
	for i < len(s) && strings.IndexByte(" \t\r\n,", s[i]) >= 0 {
		i++
	}
	return i
}
