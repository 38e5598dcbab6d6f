package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registryFromEdges(t *testing.T, edges map[string][]string, order []string) *Registry {
	t.Helper()
	specs := make([]ServiceSpec, 0, len(order))
	for _, id := range order {
		specs = append(specs, ServiceSpec{ID: id, Module: id + "_module", Requires: edges[id]})
	}
	r, err := New(specs, nil)
	require.NoError(t, err)
	return r
}

func TestAnalyzeCyclesAcyclic(t *testing.T) {
	r := registryFromEdges(t, map[string][]string{
		"whatsapp": {"contacts"},
		"calendar": {},
	}, []string{"whatsapp", "contacts", "calendar"})

	assert.Empty(t, AnalyzeCycles(r))
}

func TestAnalyzeCyclesSelfLoop(t *testing.T) {
	r := registryFromEdges(t, map[string][]string{
		"a": {"a"},
	}, []string{"a"})

	warnings := AnalyzeCycles(r)
	require.Len(t, warnings, 1)
	assert.Equal(t, []string{"a", "a"}, warnings[0].Path)
	assert.Contains(t, warnings[0].Message, "requires itself")
}

func TestAnalyzeCyclesTwoNodeCycle(t *testing.T) {
	r := registryFromEdges(t, map[string][]string{
		"a": {"b"},
		"b": {"a"},
		"c": {"a"},
	}, []string{"a", "b", "c"})

	warnings := AnalyzeCycles(r)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0].Message, "dependency cycle detected")
	assert.GreaterOrEqual(t, len(warnings[0].Path), 3)
	assert.Equal(t, warnings[0].Path[0], warnings[0].Path[len(warnings[0].Path)-1],
		"path should return to its start")
}

func TestAnalyzeCyclesIgnoresUnknownDeps(t *testing.T) {
	// A requires edge to an undeclared service is a resolution issue, not
	// a graph edge.
	r := registryFromEdges(t, map[string][]string{
		"a": {"ghost"},
	}, []string{"a"})

	assert.Empty(t, AnalyzeCycles(r))
}
