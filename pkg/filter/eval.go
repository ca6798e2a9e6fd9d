package filter

import (
	"encoding/json"
	"strconv"
)

// Eval reports whether the decoded document satisfies the expression. A
// missing path never matches.
func (e *Expression) Eval(doc any) bool {
	v, ok := lookup(doc, e.Path)
	if !ok {
		return false
	}
	switch e.Op {
	case OpEq:
		return equal(v, e.Literal)
	default:
		return false
	}
}

// Matches decodes a raw payload and evaluates the expression against it.
// Payloads that are not well-formed JSON never match.
func (e *Expression) Matches(payload []byte) bool {
	doc, err := Decode(payload)
	if err != nil {
		return false
	}
	return e.Eval(doc)
}

// equal compares a document value against the filter literal. When both
// sides parse as numbers the comparison is numeric, so 19, 19.0 and "19"
// all agree. Otherwise both are compared as strings. Objects and arrays
// never equal a literal.
func equal(v any, literal string) bool {
	s, ok := stringForm(v)
	if !ok {
		return false
	}

	if vn, err := strconv.ParseFloat(s, 64); err == nil {
		if ln, err := strconv.ParseFloat(literal, 64); err == nil {
			return vn == ln
		}
	}
	return s == literal
}

func stringForm(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case json.Number:
		return t.String(), true
	case bool:
		return strconv.FormatBool(t), true
	case nil:
		return "null", true
	case float64:
		// Decode uses json.Number, but documents built by hand may carry
		// float64 values.
		return strconv.FormatFloat(t, 'g', -1, 64), true
	default:
		return "", false
	}
}
