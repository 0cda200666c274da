package llm

import (
	"encoding/json"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSchema() *Schema {
	return &Schema{
		Name: "test-schema",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string", "minLength": 1},
				"score": map[string]any{"type": "integer", "minimum": 0, "maximum": 100},
				"tags":  map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required":             []any{"name", "score"},
			"additionalProperties": false,
		},
	}
}

func TestValidateJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr string
	}{
		{"valid", `{"name":"Dana","score":80,"tags":["cfo"]}`, ""},
		{"not json", `{"name":`, "not JSON"},
		{"missing required", `{"name":"Dana"}`, "invalid at /"},
		{"out of range", `{"name":"Dana","score":101}`, "/score"},
		{"wrong item type", `{"name":"Dana","score":1,"tags":[3]}`, "/tags/0"},
		{"extra field", `{"name":"Dana","score":1,"x":true}`, "invalid at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateJSON(testSchema(), json.RawMessage(tt.raw))
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJSON_NilSchema(t *testing.T) {
	assert.NoError(t, ValidateJSON(nil, json.RawMessage(`not json at all`)))
}

func TestValidateJSON_ReportsEveryFailedPath(t *testing.T) {
	err := ValidateJSON(testSchema(), json.RawMessage(`{"name":"","score":-1}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/name")
	assert.Contains(t, err.Error(), "/score")
}

func TestSchemaRegistry_CompilesOnce(t *testing.T) {
	reg := &schemaRegistry{compiled: map[string]*jsonschema.Schema{}}
	s := &Schema{Name: "once", Definition: map[string]any{"type": "string"}}
	a, err := reg.get(s)
	require.NoError(t, err)
	b, err := reg.get(s)
	require.NoError(t, err)
	assert.Same(t, a, b)
}
