// Package filter implements the field filter applied to tailed messages:
// a dotted path, a comparison operator, and a literal, e.g.
//
//	data.attributes.name=19
//	items[2].sku = "A-7"
//
// Expressions are parsed once per invocation and evaluated against the
// decoded JSON payload of every message.
package filter

import (
	"fmt"
	"strconv"
	"strings"
)

// Op is a comparison operator. Only equality is parsed today; the type
// exists so richer operators can be added without reshaping Expression.
type Op int

const (
	OpEq Op = iota
)

func (o Op) String() string {
	switch o {
	case OpEq:
		return "="
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Segment is one step of a field path: a map key, optionally followed by a
// sequence index, as in items[2].
type Segment struct {
	Key     string
	Index   int
	Indexed bool
}

func (s Segment) String() string {
	if s.Indexed {
		return fmt.Sprintf("%s[%d]", s.Key, s.Index)
	}
	return s.Key
}

// Expression is a parsed filter. Immutable after Parse and safe for
// concurrent use across partition consumers.
type Expression struct {
	Path    []Segment
	Op      Op
	Literal string
}

// String reserializes the expression. The path portion round-trips the
// parsed input exactly.
func (e *Expression) String() string {
	segs := make([]string, len(e.Path))
	for i, s := range e.Path {
		segs[i] = s.String()
	}
	return strings.Join(segs, ".") + e.Op.String() + e.Literal
}

// SyntaxError reports a malformed filter expression and points at the
// offending token.
type SyntaxError struct {
	Expr   string // the expression as given
	Pos    int    // byte offset of the problem
	Token  string // the malformed token, empty when the input is truncated
	Reason string
}

func (e *SyntaxError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("invalid filter %q: %s at position %d", e.Expr, e.Reason, e.Pos)
	}
	return fmt.Sprintf("invalid filter %q: %s %q at position %d", e.Expr, e.Reason, e.Token, e.Pos)
}

// Parse turns a textual filter into an Expression.
//
// Grammar, single pass, left to right:
//
//	expression := path "=" literal
//	path       := segment ("." segment)*
//	segment    := identifier | identifier "[" integer "]"
//	literal    := quoted-string | bare-token
//
// Whitespace around the operator is trimmed. A literal wrapped in double
// quotes keeps its content verbatim. No type coercion happens here; string
// vs number comparison is decided at evaluation time from the payload's
// own types.
func Parse(expr string) (*Expression, error) {
	eq := strings.IndexByte(expr, '=')
	if eq < 0 {
		return nil, &SyntaxError{Expr: expr, Pos: len(expr), Reason: "missing operator '='"}
	}

	rawPath := strings.TrimSpace(expr[:eq])
	if rawPath == "" {
		return nil, &SyntaxError{Expr: expr, Pos: 0, Reason: "empty path"}
	}
	base := strings.IndexFunc(expr, func(r rune) bool { return r != ' ' && r != '\t' })
	path, err := parsePath(expr, rawPath, base)
	if err != nil {
		return nil, err
	}

	literal := strings.TrimSpace(expr[eq+1:])
	if literal == "" {
		return nil, &SyntaxError{Expr: expr, Pos: len(expr), Reason: "empty literal"}
	}
	if len(literal) >= 2 && literal[0] == '"' && literal[len(literal)-1] == '"' {
		literal = literal[1 : len(literal)-1]
	}

	return &Expression{Path: path, Op: OpEq, Literal: literal}, nil
}

func parsePath(expr, raw string, base int) ([]Segment, error) {
	parts := strings.Split(raw, ".")
	segs := make([]Segment, 0, len(parts))
	pos := base
	for i, part := range parts {
		if i > 0 {
			pos++ // the dot
		}
		seg, err := parseSegment(expr, part, pos)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		pos += len(part)
	}
	return segs, nil
}

func parseSegment(expr, part string, pos int) (Segment, error) {
	if part == "" {
		return Segment{}, &SyntaxError{Expr: expr, Pos: pos, Reason: "empty path segment"}
	}

	open := strings.IndexByte(part, '[')
	if open < 0 {
		if strings.IndexByte(part, ']') >= 0 {
			return Segment{}, &SyntaxError{Expr: expr, Pos: pos, Token: part, Reason: "unexpected ']' in segment"}
		}
		return Segment{Key: part}, nil
	}
	if open == 0 {
		return Segment{}, &SyntaxError{Expr: expr, Pos: pos, Token: part, Reason: "missing identifier before '[' in segment"}
	}
	if part[len(part)-1] != ']' {
		return Segment{}, &SyntaxError{Expr: expr, Pos: pos, Token: part, Reason: "unterminated index in segment"}
	}

	idxText := part[open+1 : len(part)-1]
	idx, err := strconv.Atoi(idxText)
	if err != nil || idx < 0 || strconv.Itoa(idx) != idxText {
		return Segment{}, &SyntaxError{Expr: expr, Pos: pos + open + 1, Token: idxText, Reason: "index is not an integer"}
	}

	return Segment{Key: part[:open], Index: idx, Indexed: true}, nil
}
