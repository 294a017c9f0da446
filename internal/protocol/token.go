package protocol

import "strings"

// Tokens walks a message body field by field. It is consumed once: after
// the last field every call to Next reports no token.
//
// An empty field between two delimiters is still a token ("a||b" yields
// "a", "", "b"); only running off the end of the body yields none.
type Tokens struct {
	s     string
	pos   int
	delim byte
}

// NewTokens splits s on delim.
func NewTokens(s string, delim byte) *Tokens {
	return &Tokens{s: s, delim: delim}
}

// FieldTokens normalises the frame field separator to '|' and splits on it.
func FieldTokens(body string) *Tokens {
	return NewTokens(NormalizeFields(body), '|')
}

// NormalizeFields replaces every FieldSep byte with '|'.
func NormalizeFields(body string) string {
	if strings.IndexByte(body, FieldSep) < 0 {
		return body
	}
	return strings.ReplaceAll(body, string(rune(FieldSep)), "|")
}

// Next returns the next field, or false once the body is exhausted.
func (t *Tokens) Next() (string, bool) {
	if t.pos >= len(t.s) {
		return "", false
	}
	start := t.pos
	i := strings.IndexByte(t.s[start:], t.delim)
	if i < 0 {
		t.pos = len(t.s)
		return t.s[start:], true
	}
	t.pos = start + i + 1
	return t.s[start : start+i], true
}

// Rest returns whatever has not been consumed yet, without splitting it.
func (t *Tokens) Rest() string {
	if t.pos >= len(t.s) {
		return ""
	}
	return t.s[t.pos:]
}

// Int parses the next field as a decimal integer. A missing field or one
// without leading digits yields def; trailing junk after the digits is
// ignored ("6dBm" is 6).
func (t *Tokens) Int(def int) (int, bool) {
	tok, ok := t.Next()
	if !ok {
		return def, false
	}
	return LeadingInt(tok, def), true
}

// LeadingInt parses an optional sign and the leading digits of s.
func LeadingInt(s string, def int) int {
	s = strings.TrimLeft(s, " \t")
	i := 0
	neg := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		neg = s[i] == '-'
		i++
	}
	start := i
	n := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		if n < 1<<30 {
			n = n*10 + int(s[i]-'0')
		}
		i++
	}
	if i == start {
		return def
	}
	if neg {
		return -n
	}
	return n
}

// Truncate cuts s to at most max bytes.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
