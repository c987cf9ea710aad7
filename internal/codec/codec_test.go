package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string         `json:"name"`
	Items map[string]int `json:"items"`
}

func (sample) SchemaTag() uint64 { return 7 }

type other struct {
	Name string `json:"name"`
}

func (other) SchemaTag() uint64 { return 8 }

func TestMarshalUnmarshal(t *testing.T) {
	in := sample{Name: "example.com", Items: map[string]int{"www": 1}}
	data, err := Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schema":7`)

	var out sample
	require.NoError(t, Unmarshal(data, &out))
	assert.Equal(t, in, out)
}

func TestUnmarshalSchemaMismatch(t *testing.T) {
	data, err := Marshal(sample{Name: "a"})
	require.NoError(t, err)

	var out other
	err = Unmarshal(data, &out)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}

func TestUnmarshalGarbage(t *testing.T) {
	var out sample
	assert.Error(t, Unmarshal([]byte("not json"), &out))
	assert.Error(t, Unmarshal([]byte(`{"schema":7}`), &out))
}
