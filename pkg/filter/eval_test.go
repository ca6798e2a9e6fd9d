package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, expr string) *Expression {
	t.Helper()
	e, err := Parse(expr)
	require.NoError(t, err)
	return e
}

func TestMatches(t *testing.T) {
	payload := []byte(`{
		"data": {
			"attributes": {"name": 19, "label": "batch", "active": true, "owner": null},
			"items": [{"sku": "A-7"}, {"sku": "B-2"}]
		},
		"count": 3.50
	}`)

	tests := []struct {
		name  string
		expr  string
		match bool
	}{
		{name: "number equals bare literal", expr: "data.attributes.name=19", match: true},
		{name: "number equals quoted literal", expr: `data.attributes.name="19"`, match: true},
		{name: "number equals decimal form", expr: "data.attributes.name=19.0", match: true},
		{name: "number mismatch", expr: "data.attributes.name=20", match: false},
		{name: "text literal never equals a number", expr: "data.attributes.name=abc", match: false},
		{name: "string match", expr: "data.attributes.label=batch", match: true},
		{name: "string is case sensitive", expr: "data.attributes.label=Batch", match: false},
		{name: "bool match", expr: "data.attributes.active=true", match: true},
		{name: "null match", expr: "data.attributes.owner=null", match: true},
		{name: "decimal trailing zero", expr: "count=3.5", match: true},
		{name: "indexed element", expr: "data.items[1].sku=B-2", match: true},
		{name: "index out of range", expr: "data.items[9].sku=B-2", match: false},
		{name: "missing key", expr: "data.attributes.missing=1", match: false},
		{name: "scalar in the middle of the path", expr: "count.value=1", match: false},
		{name: "container never equals literal", expr: "data.items=B-2", match: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, mustParse(t, tt.expr).Matches(payload))
		})
	}
}

func TestMatchesLargeInteger(t *testing.T) {
	// Beyond float64's 53-bit integer range. json.Number keeps the digits,
	// and both sides parse to the same float64, so equality still holds.
	payload := []byte(`{"id": 9007199254740993}`)
	assert.True(t, mustParse(t, "id=9007199254740993").Matches(payload))
	assert.False(t, mustParse(t, "id=9007199254740994000").Matches(payload))
}

func TestMatchesMalformedPayload(t *testing.T) {
	expr := mustParse(t, "id=1")
	assert.False(t, expr.Matches([]byte(`{"id": 1`)))
	assert.False(t, expr.Matches([]byte(`not json`)))
	assert.False(t, expr.Matches([]byte(`{"id": 1} trailing`)))
	assert.False(t, expr.Matches(nil))
}

func TestDecode(t *testing.T) {
	doc, err := Decode([]byte(`{"a": [1, 2], "b": "x"}`))
	require.NoError(t, err)

	obj, ok := doc.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, obj, "a")
	assert.Contains(t, obj, "b")

	_, err = Decode([]byte(`{"a": 1}{"b": 2}`))
	assert.Error(t, err)

	_, err = Decode([]byte(``))
	assert.Error(t, err)

	// A bare scalar is a valid JSON document.
	doc, err = Decode([]byte(`42`))
	require.NoError(t, err)
	assert.Equal(t, "42", doc.(interface{ String() string }).String())
}

func TestEvalScalarDocument(t *testing.T) {
	// An empty path cannot be parsed, and a scalar root has no fields to
	// address, so no expression matches a scalar document.
	doc, err := Decode([]byte(`"hello"`))
	require.NoError(t, err)
	assert.False(t, mustParse(t, "hello=hello").Eval(doc))
}
