package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// ErrEmptyInput is returned when the reasoning reply is blank
	ErrEmptyInput = errors.New("empty input")
	// ErrNoJSON is returned when no balanced JSON value is present in the reply
	ErrNoJSON = errors.New("no JSON value found")
)

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	unquotedKeyRe   = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	controlCharsRe  = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F]`)
)

// ParseAIObject decodes the first balanced JSON object found anywhere in the reply.
// Prose, markdown fences and nested values around or inside the object are tolerated.
func ParseAIObject(input string, target any) error {
	return parseFirst(input, '{', '}', target)
}

// ParseAIArray decodes the first balanced JSON array found anywhere in the reply.
func ParseAIArray(input string, target any) error {
	return parseFirst(input, '[', ']', target)
}

func parseFirst(input string, open, close byte, target any) error {
	if strings.TrimSpace(input) == "" {
		return ErrEmptyInput
	}

	snippet, ok := FirstBalanced(input, open, close)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoJSON, truncateString(input, 100))
	}

	if err := json.Unmarshal([]byte(snippet), target); err == nil {
		return nil
	}

	// Second chance with common model formatting mistakes repaired
	if err := json.Unmarshal([]byte(cleanAndFixJSON(snippet)), target); err != nil {
		return fmt.Errorf("failed to parse JSON from input: %s: %w", truncateString(snippet, 100), err)
	}
	return nil
}

// FirstBalanced returns the first substring that starts with open and is closed by its
// matching close delimiter. Delimiters inside JSON strings are ignored.
// A start position whose value never closes is skipped and scanning resumes after it.
func FirstBalanced(input string, open, close byte) (string, bool) {
	for start := 0; start < len(input); start++ {
		if input[start] != open {
			continue
		}
		if end := matchClose(input, start, open, close); end > 0 {
			return input[start : end+1], true
		}
	}
	return "", false
}

// matchClose scans from input[start] == open and returns the index of the matching close, or -1
func matchClose(input string, start int, open, close byte) int {
	depth := 0
	inString := false
	escape := false

	for i := start; i < len(input); i++ {
		ch := input[i]

		if inString {
			switch {
			case escape:
				escape = false
			case ch == '\\':
				escape = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}

	return -1
}

// cleanAndFixJSON attempts to fix common JSON formatting issues
func cleanAndFixJSON(input string) string {
	s := strings.TrimSpace(input)

	// Remove BOM if present
	s = strings.TrimPrefix(s, "\ufeff")

	s = trailingCommaRe.ReplaceAllString(s, "$1")

	// {word: "value"} -> {"word": "value"}
	s = unquotedKeyRe.ReplaceAllString(s, `$1"$2"$3`)

	s = fixSingleQuotes(s)

	return controlCharsRe.ReplaceAllString(s, "")
}

// fixSingleQuotes converts single-quoted JSON strings to double quotes.
// Apostrophes inside words are left untouched.
func fixSingleQuotes(input string) string {
	var result strings.Builder
	inDouble := false
	inSingle := false
	escape := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if escape {
			result.WriteByte(ch)
			escape = false
			continue
		}

		switch {
		case ch == '\\':
			result.WriteByte(ch)
			escape = true
		case ch == '"' && !inSingle:
			inDouble = !inDouble
			result.WriteByte(ch)
		case ch == '\'' && !inDouble:
			prev := previousNonSpace(input, i)
			next := nextNonSpace(input, i)
			opening := !inSingle && (prev == 0 || strings.IndexByte(":,[{", prev) >= 0)
			closing := inSingle && (next == 0 || strings.IndexByte(":,]}", next) >= 0)
			if opening || closing {
				inSingle = !inSingle
				result.WriteByte('"')
				continue
			}
			result.WriteByte(ch)
		case ch == '"' && inSingle:
			result.WriteString(`\"`)
		default:
			result.WriteByte(ch)
		}
	}

	return result.String()
}

func previousNonSpace(s string, i int) byte {
	for j := i - 1; j >= 0; j-- {
		if s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '\r' {
			return s[j]
		}
	}
	return 0
}

func nextNonSpace(s string, i int) byte {
	for j := i + 1; j < len(s); j++ {
		if s[j] != ' ' && s[j] != '\t' && s[j] != '\n' && s[j] != '\r' {
			return s[j]
		}
	}
	return 0
}

// truncateString truncates a string to maxLen bytes
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Truncate shortens s to at most maxRunes runes, appending an ellipsis when cut
func Truncate(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= maxRunes {
		return s
	}
	return string(r[:maxRunes]) + "..."
}
