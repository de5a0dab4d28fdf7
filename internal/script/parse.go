package script

import (
	"fmt"
	"strings"
)

// ParseError reports a script syntax error with its 1-based line number.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("script line %d: %s", e.Line, e.Message)
}

type opShape struct {
	takesInput bool

	// oneWay operations report success or failure but mint no result handle.
	oneWay bool
}

var opShapes = map[string]opShape{
	"match":          {},
	"get_parent_for": {takesInput: true},
	"outline":        {takesInput: true},
	"peel":           {takesInput: true},
	"pipeline":       {takesInput: true},
	"unroll":         {takesInput: true, oneWay: true},
}

// Parse parses script source into statements. Blank lines and // comments
// are skipped. Attribute blocks are carried as raw source text; Validator
// interprets them.
func Parse(src string) ([]Statement, error) {
	var stmts []Statement
	for n, raw := range strings.Split(src, "\n") {
		line := n + 1
		text := strings.TrimSpace(raw)
		if i := strings.Index(text, "//"); i >= 0 && !strings.Contains(text[:i], `"`) {
			text = strings.TrimSpace(text[:i])
		}
		if text == "" {
			continue
		}

		st := Statement{Line: line}
		if strings.HasPrefix(text, "%") {
			eq := strings.Index(text, "=")
			if eq < 0 {
				return nil, errf(line, "expected '=' after result handle")
			}
			res := strings.TrimSpace(text[:eq])
			if !isHandle(res) {
				return nil, errf(line, "bad result handle %q", res)
			}
			st.Result = res[1:]
			text = strings.TrimSpace(text[eq+1:])
		}

		op, rest := cutWord(text)
		shape, ok := opShapes[op]
		if !ok {
			return nil, errf(line, "unknown operation %q", op)
		}
		st.Op = op
		if shape.oneWay && st.Result != "" {
			return nil, errf(line, "%s produces no result handle", op)
		}
		if !shape.oneWay && st.Result == "" {
			return nil, errf(line, "%s requires a result handle", op)
		}

		if op == "match" {
			if err := parseMatch(&st, rest); err != nil {
				return nil, err
			}
			stmts = append(stmts, st)
			continue
		}

		in, rest := cutWord(rest)
		if !isHandle(in) {
			return nil, errf(line, "%s requires an input handle, got %q", op, in)
		}
		st.Input = in[1:]

		rest = strings.TrimSpace(rest)
		if rest != "" {
			if !strings.HasPrefix(rest, "{") || !strings.HasSuffix(rest, "}") {
				return nil, errf(line, "attributes must be a { } block")
			}
			st.AttrSrc = rest
		}
		stmts = append(stmts, st)
	}
	return stmts, nil
}

// parseMatch handles the tail of a match statement: <kind> in @<callable>.
func parseMatch(st *Statement, rest string) error {
	kind, rest := cutWord(rest)
	if kind == "" {
		return errf(st.Line, "match requires an operation kind")
	}
	st.MatchKind = kind

	in, rest := cutWord(rest)
	if in != "in" {
		return errf(st.Line, "expected 'in' after match kind, got %q", in)
	}

	tgt, rest := cutWord(rest)
	if !strings.HasPrefix(tgt, "@") || len(tgt) < 2 {
		return errf(st.Line, "match requires a @callable target, got %q", tgt)
	}
	st.Target = tgt[1:]

	if strings.TrimSpace(rest) != "" {
		return errf(st.Line, "unexpected trailing input %q", strings.TrimSpace(rest))
	}
	return nil
}

func errf(line int, format string, args ...any) *ParseError {
	return &ParseError{Line: line, Message: fmt.Sprintf(format, args...)}
}

// cutWord splits off the first whitespace-delimited word.
func cutWord(s string) (word, rest string) {
	s = strings.TrimSpace(s)
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i+1:]
}

func isHandle(s string) bool {
	if len(s) < 2 || s[0] != '%' {
		return false
	}
	for _, r := range s[1:] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}
