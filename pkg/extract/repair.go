package extract

import "strings"

// repairState is the scanner state for Repair.
//
// Transition table, evaluated top to bottom for each input rune c:
//
//	escapePending          | emit c              | escapePending = false
//	c == '\\'              | emit c              | escapePending = true
//	c == '"'               | emit c              | inString = !inString
//	c in \n \r \t, inString | emit `\n` `\r` `\t` | -
//	otherwise              | emit c              | -
type repairState struct {
	escapePending bool
	inString      bool
}

// step consumes one rune and returns the next state and the text to emit.
func (s repairState) step(c rune) (repairState, string) {
	switch {
	case s.escapePending:
		s.escapePending = false
		return s, string(c)
	case c == '\\':
		s.escapePending = true
		return s, `\`
	case c == '"':
		s.inString = !s.inString
		return s, `"`
	case s.inString && c == '\n':
		return s, `\n`
	case s.inString && c == '\r':
		return s, `\r`
	case s.inString && c == '\t':
		return s, `\t`
	}
	return s, string(c)
}

// Repair escapes raw newlines, carriage returns and tabs that appear inside
// JSON string literals. Control characters between tokens are left alone,
// and the rune after a backslash is never reinterpreted.
func Repair(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var st repairState
	var out string
	for _, c := range s {
		st, out = st.step(c)
		b.WriteString(out)
	}
	return b.String()
}
