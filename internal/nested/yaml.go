package nested

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a YAML mapping into a Map. Non-string keys are
// stringified so the result can be stored as JSON.
func DecodeYAML(data []byte) (Map, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	if raw == nil {
		return Map{}, nil
	}
	normalized := normalizeYAML(raw)
	m, ok := AsMap(normalized)
	if !ok {
		return nil, fmt.Errorf("decode yaml: top-level value is %T, want a mapping", raw)
	}
	return m, nil
}

// DecodeFile reads a request document from disk, choosing the YAML decoder for
// .yml/.yaml files and JSON otherwise.
func DecodeFile(path string) (Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return DecodeYAML(data)
	default:
		return Decode(data)
	}
}

func normalizeYAML(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = normalizeYAML(child)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[fmt.Sprint(k)] = normalizeYAML(child)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = normalizeYAML(child)
		}
		return out
	default:
		return v
	}
}
