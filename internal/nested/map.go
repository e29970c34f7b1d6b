package nested

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Map is a tree of string keys to scalar values or further maps. Values
// decoded from JSON or YAML keep plain map[string]any children; every helper
// in this package accepts both shapes.
type Map map[string]any

// AsMap reports whether v is a nested mapping and returns it as a Map.
func AsMap(v any) (Map, bool) {
	switch m := v.(type) {
	case Map:
		return m, true
	case map[string]any:
		return Map(m), true
	default:
		return nil, false
	}
}

// Sub returns the mapping stored under key, or nil when the key is absent or
// holds a scalar.
func (m Map) Sub(key string) Map {
	if m == nil {
		return nil
	}
	sub, _ := AsMap(m[key])
	return sub
}

// Clone returns a deep copy of m. Nested maps are copied; scalar values and
// slices are shared.
func (m Map) Clone() Map {
	if m == nil {
		return nil
	}
	out := make(Map, len(m))
	for k, v := range m {
		if sub, ok := AsMap(v); ok {
			out[k] = sub.Clone()
			continue
		}
		out[k] = v
	}
	return out
}

// DeepMerge merges the given maps left to right into a new Map. Later maps
// win for every key they contain; when both sides hold a mapping under the
// same key the two are merged recursively instead of replaced. Inputs are
// never mutated.
func DeepMerge(maps ...Map) Map {
	out := Map{}
	for _, m := range maps {
		mergeInto(out, m)
	}
	return out
}

func mergeInto(dst, src Map) {
	for k, v := range src {
		srcSub, srcIsMap := AsMap(v)
		if !srcIsMap {
			dst[k] = v
			continue
		}
		if dstSub, ok := AsMap(dst[k]); ok {
			merged := dstSub.Clone()
			mergeInto(merged, srcSub)
			dst[k] = merged
			continue
		}
		dst[k] = srcSub.Clone()
	}
}

// IsBlank reports whether v carries no information: nil, an empty or
// whitespace-only string, or an empty map or slice.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case Map:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	case []any:
		return len(val) == 0
	default:
		return false
	}
}

// Int64 converts a decoded scalar into an integer identifier. Floats are
// accepted only when they carry no fractional part.
func Int64(v any) (int64, bool) {
	switch val := v.(type) {
	case int:
		return int64(val), true
	case int32:
		return int64(val), true
	case int64:
		return val, true
	case uint64:
		if val > math.MaxInt64 {
			return 0, false
		}
		return int64(val), true
	case float64:
		if val != math.Trunc(val) {
			return 0, false
		}
		return int64(val), true
	case json.Number:
		n, err := val.Int64()
		return n, err == nil
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n, err == nil
	default:
		return 0, false
	}
}

// Decode parses a JSON document into a Map. Numbers are kept as json.Number
// so identifiers survive the round trip without float conversion. An empty
// input decodes to an empty Map.
func Decode(data []byte) (Map, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Map{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out Map
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("decode nested map: %w", err)
	}
	if out == nil {
		out = Map{}
	}
	return out, nil
}

// Encode renders m as JSON with sorted keys. A nil map encodes as "{}".
func Encode(m Map) ([]byte, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode nested map: %w", err)
	}
	return data, nil
}
