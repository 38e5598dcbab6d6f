package notebook

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/roach88/portforge/internal/assemble"
)

// Cell is one notebook cell. ExecutionCount and Outputs are only present
// on code cells; nbformat requires them there even when empty.
type Cell struct {
	CellType       string
	ExecutionCount *int
	Metadata       map[string]any
	Outputs        []any
	Source         []string
}

// MarshalJSON keeps the empty outputs array on code cells, which omitempty
// would otherwise drop.
func (c Cell) MarshalJSON() ([]byte, error) {
	type markdownCell struct {
		CellType string         `json:"cell_type"`
		Metadata map[string]any `json:"metadata"`
		Source   []string       `json:"source"`
	}
	type codeCell struct {
		CellType       string         `json:"cell_type"`
		ExecutionCount *int           `json:"execution_count"`
		Metadata       map[string]any `json:"metadata"`
		Outputs        []any          `json:"outputs"`
		Source         []string       `json:"source"`
	}
	if c.CellType == "code" {
		outputs := c.Outputs
		if outputs == nil {
			outputs = []any{}
		}
		return json.Marshal(codeCell{
			CellType:       c.CellType,
			ExecutionCount: c.ExecutionCount,
			Metadata:       c.Metadata,
			Outputs:        outputs,
			Source:         c.Source,
		})
	}
	return json.Marshal(markdownCell{
		CellType: c.CellType,
		Metadata: c.Metadata,
		Source:   c.Source,
	})
}

// Notebook is the nbformat 4 top-level structure.
type Notebook struct {
	Cells         []Cell         `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

// FromDocument converts an assembled document into a notebook: markdown
// blocks become markdown cells, everything else becomes code cells.
func FromDocument(doc *assemble.Document) *Notebook {
	nb := &Notebook{
		Cells: make([]Cell, 0, len(doc.Blocks)),
		Metadata: map[string]any{
			"colab": map[string]any{
				"provenance": []any{},
			},
			"kernelspec": map[string]any{
				"name":         "python3",
				"display_name": "Python 3",
			},
			"language_info": map[string]any{
				"name": "python",
			},
		},
		NBFormat:      4,
		NBFormatMinor: 0,
	}

	for _, b := range doc.Blocks {
		cell := Cell{
			Metadata: map[string]any{},
			Source:   splitSource(b.Text),
		}
		if b.Markdown {
			cell.CellType = "markdown"
		} else {
			cell.CellType = "code"
			cell.Outputs = []any{}
		}
		nb.Cells = append(nb.Cells, cell)
	}

	return nb
}

// splitSource breaks text into the nbformat source convention: each line
// keeps its trailing newline except the last. Empty text becomes an empty
// source list.
func splitSource(text string) []string {
	if text == "" {
		return []string{}
	}
	text = strings.TrimSuffix(text, "\n")
	lines := strings.Split(text, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		if i < len(lines)-1 {
			out[i] = line + "\n"
		} else {
			out[i] = line
		}
	}
	return out
}

// Marshal serializes the notebook as indented JSON without HTML escaping,
// ending with a newline.
func Marshal(nb *Notebook) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", " ")
	if err := enc.Encode(nb); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Render is the full pipeline: convert and serialize in one call.
func Render(doc *assemble.Document) ([]byte, error) {
	return Marshal(FromDocument(doc))
}
