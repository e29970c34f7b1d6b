package nested_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goggles/internal/nested"
)

func TestDeepMergeRightBiased(t *testing.T) {
	older := nested.Map{"a": nested.Map{"x": 1}}
	newer := nested.Map{"a": map[string]any{"x": 2, "y": 3}, "b": "kept"}

	merged := nested.DeepMerge(older, newer)

	data, err := nested.Encode(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":{"x":2,"y":3},"b":"kept"}`, string(data))
}

func TestDeepMergeKeepsKeysMissingFromNewer(t *testing.T) {
	merged := nested.DeepMerge(
		nested.Map{"swimmer": nested.Map{"id": 7, "team_id": 3}},
		nested.Map{"swimmer": nested.Map{"complete_name": "ROSSI MARIO"}},
	)

	data, err := nested.Encode(merged)
	require.NoError(t, err)
	assert.JSONEq(t, `{"swimmer":{"id":7,"team_id":3,"complete_name":"ROSSI MARIO"}}`, string(data))
}

func TestDeepMergeScalarReplacesMap(t *testing.T) {
	merged := nested.DeepMerge(nested.Map{"k": nested.Map{"a": 1}}, nested.Map{"k": "flat"})
	assert.Equal(t, "flat", merged["k"])
}

func TestDeepMergeDoesNotMutateInputs(t *testing.T) {
	left := nested.Map{"a": nested.Map{"x": 1}}
	right := nested.Map{"a": nested.Map{"y": 2}}

	merged := nested.DeepMerge(left, right)
	merged.Sub("a")["z"] = 3

	assert.Equal(t, nested.Map{"a": nested.Map{"x": 1}}, left)
	assert.Equal(t, nested.Map{"a": nested.Map{"y": 2}}, right)
}

func TestDeepMergeNilInputs(t *testing.T) {
	merged := nested.DeepMerge(nil, nested.Map{"a": 1}, nil)
	assert.Equal(t, nested.Map{"a": 1}, merged)
	assert.Empty(t, nested.DeepMerge())
}

func TestIsBlank(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, true},
		{"empty string", "  ", true},
		{"empty map", nested.Map{}, true},
		{"empty plain map", map[string]any{}, true},
		{"empty slice", []any{}, true},
		{"zero", 0, false},
		{"text", "x", false},
		{"map", nested.Map{"a": nil}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, nested.IsBlank(tc.value))
		})
	}
}

func TestInt64(t *testing.T) {
	cases := []struct {
		value any
		want  int64
		ok    bool
	}{
		{42, 42, true},
		{int64(-1), -1, true},
		{float64(12), 12, true},
		{12.5, 0, false},
		{json.Number("99"), 99, true},
		{" 5 ", 5, true},
		{"abc", 0, false},
		{nil, 0, false},
	}
	for _, tc := range cases {
		got, ok := nested.Int64(tc.value)
		assert.Equal(t, tc.ok, ok, "value %#v", tc.value)
		assert.Equal(t, tc.want, got, "value %#v", tc.value)
	}
}

func TestDecodeKeepsNumbers(t *testing.T) {
	m, err := nested.Decode([]byte(`{"swimmer":{"id":9007199254740993}}`))
	require.NoError(t, err)

	id, ok := nested.Int64(m.Sub("swimmer")["id"])
	require.True(t, ok)
	assert.Equal(t, int64(9007199254740993), id)
}

func TestDecodeEmpty(t *testing.T) {
	m, err := nested.Decode(nil)
	require.NoError(t, err)
	assert.Empty(t, m)

	m, err = nested.Decode([]byte("null"))
	require.NoError(t, err)
	assert.NotNil(t, m)
}

func TestDecodeFileYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	body := "swimmer:\n  id: 42\n  team:\n    name: CSI Nuoto\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	m, err := nested.DecodeFile(path)
	require.NoError(t, err)

	id, ok := nested.Int64(m.Sub("swimmer")["id"])
	require.True(t, ok)
	assert.Equal(t, int64(42), id)
	assert.Equal(t, "CSI Nuoto", m.Sub("swimmer").Sub("team")["name"])
}

func TestDecodeYAMLRejectsScalar(t *testing.T) {
	_, err := nested.DecodeYAML([]byte("just text"))
	require.Error(t, err)
}
