package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalars(t *testing.T) {
	tests := []struct {
		name string
		json string
		want Value
	}{
		{"string", `"hello"`, String("hello")},
		{"int", `42`, Int(42)},
		{"negative_int", `-7`, Int(-7)},
		{"float", `3.5`, Float(3.5)},
		{"exponent_is_float", `1e3`, Float(1000)},
		{"bool_true", `true`, Bool(true)},
		{"bool_false", `false`, Bool(false)},
		{"null", `null`, Null{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeString(tt.json)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeNested(t *testing.T) {
	got, err := DecodeString(`{"settings":{"on":true,"name":"x"},"items":[1,2.5,null]}`)
	require.NoError(t, err)

	want := Object{
		"settings": Object{"on": Bool(true), "name": String("x")},
		"items":    Array{Int(1), Float(2.5), Null{}},
	}
	assert.Equal(t, want, got)
}

func TestDecodeInvalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"empty", ``},
		{"bare_word", `nope`},
		{"unterminated", `{"a":`},
		{"trailing_garbage", `{} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeString(tt.json)
			assert.Error(t, err)
		})
	}
}

func TestDecodeLargeIntStaysExact(t *testing.T) {
	got, err := DecodeString(`9007199254740993`)
	require.NoError(t, err)
	assert.Equal(t, Int(9007199254740993), got)
}

func TestSortedKeysUTF16Order(t *testing.T) {
	obj := Object{
		"b": Int(1),
		"a": Int(2),
		// U+1D306 (non-BMP) sorts by surrogate pair, before U+FF01
		"\U0001D306": Int(3),
		"！":     Int(4),
	}
	assert.Equal(t, []string{"a", "b", "\U0001D306", "！"}, obj.SortedKeys())
}

func TestIsNull(t *testing.T) {
	assert.True(t, IsNull(nil))
	assert.True(t, IsNull(Null{}))
	assert.False(t, IsNull(String("")))
	assert.False(t, IsNull(Int(0)))
}
