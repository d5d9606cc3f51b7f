package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocuments_KeepsInsertionOrder(t *testing.T) {
	var d Documents
	d.Set("SRS", "s")
	d.Set("RMF", "r")
	d.Set("QMS", "q")
	d.Set("SRS", "s2")

	assert.Equal(t, []string{"SRS", "RMF", "QMS"}, d.Keys())
	text, ok := d.Get("SRS")
	assert.True(t, ok)
	assert.Equal(t, "s2", text)

	var seen []string
	d.Each(func(k, _ string) { seen = append(seen, k) })
	assert.Equal(t, d.Keys(), seen)
}

func TestDocuments_CloneIsIndependent(t *testing.T) {
	var d Documents
	d.Set("SRS", "s")
	c := d.Clone()
	c.Set("RMF", "r")

	assert.Equal(t, 1, d.Len())
	assert.False(t, d.Equal(c))
	assert.True(t, d.Equal(d.Clone()))
}

func TestDocuments_JSONPreservesOrder(t *testing.T) {
	var d Documents
	d.Set("RMF", "risk")
	d.Set("QMS", "QMS documentation placeholder")

	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"RMF":"risk","QMS":"QMS documentation placeholder"}`, string(data))

	var back Documents
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, d.Equal(back))

	var empty Documents
	data, err = json.Marshal(empty)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	require.NoError(t, json.Unmarshal([]byte("null"), &back))
	assert.Zero(t, back.Len())
}

func TestDocuments_UnmarshalRejectsNonObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `["SRS","text"]`},
		{"string", `"SRS"`},
		{"number", `42`},
		{"non-string value", `{"SRS": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Documents
			assert.Error(t, json.Unmarshal([]byte(tt.input), &d))
		})
	}
}

func TestDocuments_UnmarshalJSONDirect(t *testing.T) {
	var d Documents
	err := d.UnmarshalJSON([]byte(`[1, "x"]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected JSON object")

	require.NoError(t, d.UnmarshalJSON([]byte(`{"SRS":"s","RMF":"r"}`)))
	assert.Equal(t, []string{"SRS", "RMF"}, d.Keys())
}
