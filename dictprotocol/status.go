package dictprotocol

import (
	"fmt"
	"strconv"
	"strings"
)

// Status is one parsed status line: a three digit code and the free text
// that follows it.
type Status struct {
	Code   int
	Detail string
}

// ParseStatus parses a status line of the form "<code> <detail>".
//
// The detail is everything after the first space, unmodified. A line that
// is empty or does not start with exactly three digits is a
// MalformedResponse error.
func ParseStatus(line string) (Status, error) {
	if line == "" {
		return Status{}, newMalformedError(line)
	}

	code, detail, _ := strings.Cut(line, " ")
	if len(code) != 3 {
		return Status{}, newMalformedError(line)
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return Status{}, newMalformedError(line)
		}
	}

	n, err := strconv.Atoi(code)
	if err != nil {
		return Status{}, newMalformedError(line)
	}

	return Status{Code: n, Detail: detail}, nil
}

// Count parses the first whitespace-delimited token of the detail as the
// number of entries that follow a "data follows" status.
func (s Status) Count() (int, error) {
	fields := strings.Fields(s.Detail)
	if len(fields) == 0 {
		return 0, newViolationError("status %d carries no count", s.Code)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil || n < 0 {
		return 0, newViolationError("status %d has invalid count %q", s.Code, fields[0])
	}
	if n > MaxEntryCount {
		return 0, newViolationError("status %d count %d exceeds %d", s.Code, n, MaxEntryCount)
	}
	return n, nil
}

// presize bounds a server-declared count before it is used as a
// capacity hint.
func presize(n int) int {
	const limit = 64
	if n > limit {
		return limit
	}
	return n
}

// IsPreliminary reports a 1yz reply: text follows.
func (s Status) IsPreliminary() bool {
	return s.Code >= 100 && s.Code < 200
}

// IsPositive reports a 2yz reply: the action completed.
func (s Status) IsPositive() bool {
	return s.Code >= 200 && s.Code < 300
}

// IsError reports a 4yz or 5yz reply.
func (s Status) IsError() bool {
	return s.Code >= 400
}

// String formats the status as it appears on the wire.
func (s Status) String() string {
	if s.Detail == "" {
		return fmt.Sprintf("%03d", s.Code)
	}
	return fmt.Sprintf("%03d %s", s.Code, s.Detail)
}

// splitFields splits s on spaces into at most n fields. Double-quoted
// runs count as one field; the quotes are kept so callers can tell quoted
// tokens apart. The last field holds the unsplit remainder.
func splitFields(s string, n int) []string {
	var fields []string
	i := 0
	for i < len(s) && (n <= 0 || len(fields) < n-1) {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			return fields
		}
		start := i
		inQuote := false
		for i < len(s) {
			c := s[i]
			if c == '\\' && inQuote && i+1 < len(s) {
				i += 2
				continue
			}
			if c == '"' {
				inQuote = !inQuote
			} else if c == ' ' && !inQuote {
				break
			}
			i++
		}
		fields = append(fields, s[start:i])
	}
	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i < len(s) {
		fields = append(fields, s[i:])
	}
	return fields
}

// unquote strips one surrounding pair of double quotes and resolves
// backslash escapes inside them. Unquoted input is returned as is.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}
	inner := s[1 : len(s)-1]
	if !strings.Contains(inner, `\`) {
		return inner
	}
	var b strings.Builder
	b.Grow(len(inner))
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			i++
		}
		b.WriteByte(inner[i])
	}
	return b.String()
}

// splitEntry splits a "<name> <quoted text>" list line on the first space
// and unquotes the text.
func splitEntry(line string) (name, text string, err error) {
	name, rest, ok := strings.Cut(line, " ")
	if !ok || name == "" {
		return "", "", newViolationError("malformed list entry %q", line)
	}
	return name, unquote(strings.TrimSpace(rest)), nil
}
