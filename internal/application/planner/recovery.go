package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Recoverer extracts a syntactically valid JSON document from raw,
// possibly malformed model output. The brace-counting repair heuristic is
// best effort and deliberately isolated behind this interface so it can be
// replaced without touching validation or fallback logic.
type Recoverer interface {
	Extract(raw string) (string, error)
}

// BraceRecoverer is the default Recoverer. It strips markdown code fences,
// locates the outermost JSON object or array, and repairs truncated output
// by closing unmatched brackets.
type BraceRecoverer struct{}

// Extract implements Recoverer. It handles both object-rooted and
// array-rooted payloads. A MalformedResponse error is returned when the
// text holds no bracket pair or the candidate does not parse even after
// repair.
func (BraceRecoverer) Extract(raw string) (string, error) {
	text := stripFences(strings.TrimSpace(raw))

	objStart := strings.Index(text, "{")
	arrStart := strings.Index(text, "[")

	start, open, closer := objStart, byte('{'), byte('}')
	if start == -1 || (arrStart != -1 && arrStart < start) {
		start, open, closer = arrStart, '[', ']'
	}
	if start == -1 {
		return "", fmt.Errorf("no opening bracket found: %w", ErrMalformedResponse)
	}

	end := strings.LastIndexByte(text, closer)
	var candidate string
	if end > start {
		candidate = text[start : end+1]
	} else {
		// No closing bracket of the same kind after the opener: the
		// output was truncated. Repair from the opener to the end.
		candidate = text[start:]
	}

	if !json.Valid([]byte(candidate)) {
		candidate = repairTruncation(candidate)
		if !json.Valid([]byte(candidate)) {
			return "", fmt.Errorf("output does not parse after repair (root %q): %w", string(open), ErrMalformedResponse)
		}
	}
	return candidate, nil
}

// stripFences removes markdown code-fence lines such as ``` and ```json.
func stripFences(text string) string {
	if !strings.Contains(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// repairTruncation appends the closing brackets a truncated JSON document
// is missing. It walks the text tracking string state and a bracket stack,
// then closes whatever remains open, innermost first. A trailing comma or
// unterminated string is patched up; output cut mid-key stays invalid and
// is reported as malformed by the caller.
func repairTruncation(text string) string {
	var stack []byte
	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString:
			if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == '{' || c == '[':
			stack = append(stack, c)
		case c == '}' || c == ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(text, " \t\n\r"))
	if inString {
		b.WriteByte('"')
	}
	repaired := strings.TrimRight(b.String(), " \t\n\r")
	repaired = strings.TrimSuffix(repaired, ",")
	b.Reset()
	b.WriteString(repaired)
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			b.WriteByte('}')
		} else {
			b.WriteByte(']')
		}
	}
	return b.String()
}
