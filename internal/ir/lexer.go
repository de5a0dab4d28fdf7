package ir

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// lexer scans one line of textual IR. All methods skip leading whitespace.
type lexer struct {
	line int
	src  string
	pos  int
}

func (lx *lexer) errf(format string, args ...any) error {
	return &ParseError{Line: lx.line, Message: fmt.Sprintf(format, args...)}
}

func (lx *lexer) skipSpace() {
	for lx.pos < len(lx.src) && (lx.src[lx.pos] == ' ' || lx.src[lx.pos] == '\t') {
		lx.pos++
	}
}

// peekIs reports whether the next token starts with the given prefix.
func (lx *lexer) peekIs(prefix string) bool {
	lx.skipSpace()
	return strings.HasPrefix(lx.src[lx.pos:], prefix)
}

// accept consumes tok if it is next and reports whether it did.
func (lx *lexer) accept(tok string) bool {
	lx.skipSpace()
	if !strings.HasPrefix(lx.src[lx.pos:], tok) {
		return false
	}
	// Word tokens must not be a prefix of a longer identifier.
	if isWord(tok) {
		after := lx.pos + len(tok)
		if after < len(lx.src) && isIdentByte(lx.src[after]) {
			return false
		}
	}
	lx.pos += len(tok)
	return true
}

// expect consumes tok or fails.
func (lx *lexer) expect(tok string) error {
	if !lx.accept(tok) {
		return lx.errf("expected %q near %q", tok, lx.rest())
	}
	return nil
}

// ident consumes a bare identifier (keyword or mnemonic).
func (lx *lexer) ident() (string, error) {
	lx.skipSpace()
	start := lx.pos
	for lx.pos < len(lx.src) && isIdentByte(lx.src[lx.pos]) {
		lx.pos++
	}
	if lx.pos == start {
		return "", lx.errf("expected identifier near %q", lx.rest())
	}
	return lx.src[start:lx.pos], nil
}

// valueName consumes "%name" and returns it including the sigil.
func (lx *lexer) valueName() (string, error) {
	lx.skipSpace()
	if err := lx.expect("%"); err != nil {
		return "", err
	}
	id, err := lx.ident()
	if err != nil {
		return "", err
	}
	return "%" + id, nil
}

// atName consumes "@name" and returns the bare name.
func (lx *lexer) atName() (string, error) {
	lx.skipSpace()
	if err := lx.expect("@"); err != nil {
		return "", err
	}
	return lx.ident()
}

// valueNames consumes a delimited, comma-separated list of value names.
// The list may be empty.
func (lx *lexer) valueNames(open, close string) ([]string, error) {
	if err := lx.expect(open); err != nil {
		return nil, err
	}
	var out []string
	for !lx.accept(close) {
		name, err := lx.valueName()
		if err != nil {
			return nil, err
		}
		out = append(out, name)
		if !lx.accept(",") {
			if err := lx.expect(close); err != nil {
				return nil, err
			}
			break
		}
	}
	return out, nil
}

// pairList consumes "(%a = %x, %b = %y)" and returns [ [%a %x], [%b %y] ].
func (lx *lexer) pairList() ([][2]string, error) {
	if err := lx.expect("("); err != nil {
		return nil, err
	}
	var out [][2]string
	for !lx.accept(")") {
		left, err := lx.valueName()
		if err != nil {
			return nil, err
		}
		if err := lx.expect("="); err != nil {
			return nil, err
		}
		right, err := lx.valueName()
		if err != nil {
			return nil, err
		}
		out = append(out, [2]string{left, right})
		if !lx.accept(",") {
			if err := lx.expect(")"); err != nil {
				return nil, err
			}
			break
		}
	}
	return out, nil
}

// quoted consumes a double-quoted string (Go quoting rules).
func (lx *lexer) quoted() (string, error) {
	lx.skipSpace()
	if lx.pos >= len(lx.src) || lx.src[lx.pos] != '"' {
		return "", lx.errf("expected quoted string near %q", lx.rest())
	}
	end := lx.pos + 1
	for end < len(lx.src) && lx.src[end] != '"' {
		if lx.src[end] == '\\' {
			end++
		}
		end++
	}
	if end >= len(lx.src) {
		return "", lx.errf("unterminated string")
	}
	s, err := strconv.Unquote(lx.src[lx.pos : end+1])
	if err != nil {
		return "", lx.errf("bad string: %v", err)
	}
	lx.pos = end + 1
	return s, nil
}

// number consumes a signed decimal integer.
func (lx *lexer) number() (int64, error) {
	lx.skipSpace()
	start := lx.pos
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == '-' || lx.src[lx.pos] == '+') {
		lx.pos++
	}
	for lx.pos < len(lx.src) && unicode.IsDigit(rune(lx.src[lx.pos])) {
		lx.pos++
	}
	if lx.pos == start {
		return 0, lx.errf("expected number near %q", lx.rest())
	}
	n, err := strconv.ParseInt(lx.src[start:lx.pos], 10, 64)
	if err != nil {
		return 0, lx.errf("bad number: %v", err)
	}
	return n, nil
}

func (lx *lexer) rest() string {
	lx.skipSpace()
	r := lx.src[lx.pos:]
	if len(r) > 20 {
		r = r[:20] + "..."
	}
	return r
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '.' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

func isWord(tok string) bool {
	for i := 0; i < len(tok); i++ {
		if !isIdentByte(tok[i]) {
			return false
		}
	}
	return len(tok) > 0
}
