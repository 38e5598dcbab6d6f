package notebook

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portforge/internal/assemble"
)

func testDocument() *assemble.Document {
	return &assemble.Document{
		TaskID: "t1",
		Blocks: []assemble.Block{
			{Role: assemble.RoleMetadata, Name: "metadata", Markdown: true, Text: "# Sample ID\n\n**Sample ID**: t1\n"},
			{Role: assemble.RoleLoad, Name: "load", Text: "import clock\nimport os, json, uuid\n"},
			{Role: assemble.RoleScaffold, Name: "Action", Text: ""},
		},
	}
}

func TestFromDocumentCellTypes(t *testing.T) {
	nb := FromDocument(testDocument())

	require.Len(t, nb.Cells, 3)
	assert.Equal(t, "markdown", nb.Cells[0].CellType)
	assert.Equal(t, "code", nb.Cells[1].CellType)
	assert.Equal(t, "code", nb.Cells[2].CellType)

	assert.Equal(t, 4, nb.NBFormat)
	assert.Contains(t, nb.Metadata, "colab")
	assert.Contains(t, nb.Metadata, "kernelspec")
}

func TestSplitSource(t *testing.T) {
	assert.Equal(t, []string{}, splitSource(""))
	assert.Equal(t, []string{"single line"}, splitSource("single line"))
	assert.Equal(t, []string{"one line"}, splitSource("one line\n"))
	assert.Equal(t, []string{"a\n", "b"}, splitSource("a\nb\n"))
	assert.Equal(t, []string{"a\n", "\n", "b"}, splitSource("a\n\nb"))
}

func TestMarshalShape(t *testing.T) {
	data, err := Render(testDocument())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	assert.Equal(t, float64(4), raw["nbformat"])
	cells, ok := raw["cells"].([]any)
	require.True(t, ok)
	require.Len(t, cells, 3)

	md := cells[0].(map[string]any)
	assert.Equal(t, "markdown", md["cell_type"])
	_, hasOutputs := md["outputs"]
	assert.False(t, hasOutputs, "markdown cells carry no outputs")

	code := cells[1].(map[string]any)
	assert.Equal(t, "code", code["cell_type"])
	assert.Nil(t, code["execution_count"])
	assert.Equal(t, []any{}, code["outputs"])
	assert.Equal(t, []any{"import clock\n", "import os, json, uuid"}, code["source"])

	empty := cells[2].(map[string]any)
	assert.Equal(t, []any{}, empty["source"])
}

func TestMarshalNoHTMLEscaping(t *testing.T) {
	doc := &assemble.Document{
		TaskID: "t1",
		Blocks: []assemble.Block{
			{Role: assemble.RoleLoad, Name: "load", Text: "x = a < b and c > d\n"},
		},
	}

	data, err := Render(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a < b and c > d")
	assert.NotContains(t, string(data), `\u003c`)
}

func TestMarshalEndsWithNewline(t *testing.T) {
	data, err := Render(testDocument())
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, byte('\n'), data[len(data)-1])
}
