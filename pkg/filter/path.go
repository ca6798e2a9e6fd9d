package filter

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Decode parses a message payload into a JSON document tree. Numbers are
// kept as json.Number so large integers and high-precision decimals survive
// untouched until comparison. Trailing non-whitespace after the document is
// an error.
func Decode(payload []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("decoding payload: trailing data after document")
	}
	return doc, nil
}

// lookup walks the document along the path. The second return is false when
// any step is missing: absent key, index out of range, or a scalar where a
// container is needed.
func lookup(doc any, path []Segment) (any, bool) {
	cur := doc
	for _, seg := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = obj[seg.Key]
		if !ok {
			return nil, false
		}
		if seg.Indexed {
			arr, ok := cur.([]any)
			if !ok || seg.Index >= len(arr) {
				return nil, false
			}
			cur = arr[seg.Index]
		}
	}
	return cur, true
}
