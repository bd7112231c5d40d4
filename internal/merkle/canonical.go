package merkle

import (
	"encoding/json"
	"fmt"
	"sort"
)

// canonicalJSON renders v as JSON with object keys sorted lexicographically
// at every nesting level, no insignificant whitespace, producing a
// byte-identical representation across calls for equal inputs (spec.md
// §4.F's "sort-keys-canonical form" open point).
func canonicalJSON(v interface{}) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshaling for canonicalization: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("unmarshaling for canonicalization: %w", err)
	}

	sorted := sortKeys(generic)

	out, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("marshaling canonical form: %w", err)
	}
	return out, nil
}

// sortKeys recursively rebuilds maps as key-sorted structures so that the
// subsequent json.Marshal emits keys in lexicographic order at every level.
func sortKeys(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ordered := make(orderedObject, 0, len(keys))
		for _, k := range keys {
			ordered = append(ordered, orderedField{key: k, value: sortKeys(val[k])})
		}
		return ordered
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, elem := range val {
			out[i] = sortKeys(elem)
		}
		return out
	default:
		return val
	}
}

// orderedField is one key/value pair in an orderedObject.
type orderedField struct {
	key   string
	value interface{}
}

// orderedObject marshals as a JSON object preserving the field order it was
// built in, which sortKeys has already made lexicographic.
type orderedObject []orderedField

func (o orderedObject) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, f := range o {
		if i > 0 {
			buf = append(buf, ',')
		}
		key, err := json.Marshal(f.key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.value)
		if err != nil {
			return nil, err
		}
		buf = append(buf, key...)
		buf = append(buf, ':')
		buf = append(buf, val...)
	}
	buf = append(buf, '}')
	return buf, nil
}
