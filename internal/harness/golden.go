package harness

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// DocumentSnapshot is the deterministic serialization of one scenario's
// assembled document. Field order is fixed by the struct; block text is
// embedded verbatim.
type DocumentSnapshot struct {
	Scenario string          `json:"scenario"`
	TaskID   string          `json:"task_id"`
	Services []string        `json:"services"`
	Modules  []string        `json:"modules"`
	Blocks   []BlockSnapshot `json:"blocks"`
}

// BlockSnapshot is one block with its role spelled out.
type BlockSnapshot struct {
	Role     string `json:"role"`
	Name     string `json:"name"`
	Markdown bool   `json:"markdown,omitempty"`
	Text     string `json:"text"`
}

// snapshot builds the golden representation of a result.
func snapshot(name string, r *Result) *DocumentSnapshot {
	snap := &DocumentSnapshot{
		Scenario: name,
		TaskID:   r.Document.TaskID,
		Services: r.Set.Services,
		Modules:  r.Set.Modules,
		Blocks:   make([]BlockSnapshot, 0, len(r.Document.Blocks)),
	}
	for _, b := range r.Document.Blocks {
		snap.Blocks = append(snap.Blocks, BlockSnapshot{
			Role:     b.Role.String(),
			Name:     b.Name,
			Markdown: b.Markdown,
			Text:     b.Text,
		})
	}
	return snap
}

// marshalSnapshot serializes a snapshot as indented JSON without HTML
// escaping, matching the golden fixture format.
func marshalSnapshot(snap *DocumentSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario file, checks its expectations, and
// compares the document snapshot against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenarioPath string) {
	t.Helper()

	s, err := LoadScenario(scenarioPath)
	if err != nil {
		t.Fatalf("load scenario: %v", err)
	}

	result, err := Run(scenarioPath, s)
	if err != nil {
		t.Fatalf("run scenario %s: %v", s.Name, err)
	}
	if err := Check(s, result); err != nil {
		t.Fatalf("scenario %s: %v", s.Name, err)
	}
	if result.Err != nil {
		// Expected-error scenarios have no document to snapshot.
		return
	}

	data, err := marshalSnapshot(snapshot(s.Name, result))
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
}
