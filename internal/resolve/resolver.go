package resolve

import (
	"slices"
	"strings"

	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/schema"
)

// TaskRow is one task's raw field values as read from the tabular source.
type TaskRow map[string]string

// Get returns the trimmed value for field, or "" when absent.
func (r TaskRow) Get(field string) string {
	return strings.TrimSpace(r[field])
}

// Blank reports whether field is absent, empty, or a textual placeholder
// for "no value" ("nan", "none", "null") as spreadsheets tend to export.
func (r TaskRow) Blank(field string) bool {
	switch strings.ToLower(r.Get(field)) {
	case "", "nan", "none", "null":
		return true
	}
	return false
}

// Issues collects the non-fatal problems found while resolving one task.
// All fields are always non-nil so the record serializes deterministically.
type Issues struct {
	UnknownServices []string          `json:"unknown_services"`
	MissingInputs   []string          `json:"missing_inputs"`
	JSONErrors      map[string]string `json:"json_errors"`
}

// Empty reports whether no issues were found.
func (i Issues) Empty() bool {
	return len(i.UnknownServices) == 0 && len(i.MissingInputs) == 0 && len(i.JSONErrors) == 0
}

// ResolvedSet is the outcome of resolving one task's requested services:
// the closure in first-seen order, the owning modules, the union of
// required inputs, and the issues found along the way.
type ResolvedSet struct {
	// Services is the requested services followed by their first-seen
	// transitive dependencies. Unknown requested identifiers stay in the
	// sequence and are flagged in Issues.
	Services []string `json:"services"`

	// Modules is the owning-module set in resolver order, deduplicated.
	Modules []string `json:"modules"`

	// RequiredInputs is the sorted union of every resolved service's
	// declared input fields.
	RequiredInputs []string `json:"required_inputs"`

	Issues Issues `json:"issues"`
}

// Resolve computes the dependency closure of requested over the registry's
// requires graph and validates row against the union of required inputs.
//
// The closure is breadth-first in first-seen order: the requested services
// in caller order, deduplicated, then each service's declared dependencies
// appended as they are discovered. The visited set bounds growth by the
// registry size, so resolution terminates even on a cyclic graph (cycles
// are reported separately by registry.AnalyzeCycles).
//
// Validation never fails resolution: a required field that is absent or
// blank lands in Issues.MissingInputs, and one that is present but not
// parseable as JSON lands in Issues.JSONErrors. The best-effort
// ResolvedSet is always returned.
func Resolve(reg *registry.Registry, requested []string, row TaskRow) *ResolvedSet {
	out := &ResolvedSet{
		Services:       []string{},
		Modules:        []string{},
		RequiredInputs: []string{},
		Issues: Issues{
			UnknownServices: []string{},
			MissingInputs:   []string{},
			JSONErrors:      map[string]string{},
		},
	}

	// Seed with the requested services, deduplicated by first occurrence.
	seen := make(map[string]bool, len(requested))
	for _, id := range requested {
		if id == "" || seen[id] {
			continue
		}
		out.Services = append(out.Services, id)
		seen[id] = true
	}

	// Append declared dependencies of every service in the growing
	// sequence, including newly appended ones.
	for i := 0; i < len(out.Services); i++ {
		spec, ok := reg.Service(out.Services[i])
		if !ok {
			continue
		}
		for _, dep := range spec.Requires {
			if !seen[dep] {
				out.Services = append(out.Services, dep)
				seen[dep] = true
			}
		}
	}

	moduleSeen := make(map[string]bool)
	for _, id := range out.Services {
		spec, ok := reg.Service(id)
		if !ok {
			out.Issues.UnknownServices = append(out.Issues.UnknownServices, id)
			continue
		}
		if !moduleSeen[spec.Module] {
			out.Modules = append(out.Modules, spec.Module)
			moduleSeen[spec.Module] = true
		}
	}

	// Union of required inputs across the closure, sorted for stable
	// reporting.
	inputSeen := make(map[string]bool)
	for _, id := range out.Services {
		for _, field := range reg.RequiredInputs(id) {
			if !inputSeen[field] {
				out.RequiredInputs = append(out.RequiredInputs, field)
				inputSeen[field] = true
			}
		}
	}
	slices.Sort(out.RequiredInputs)

	for _, field := range out.RequiredInputs {
		if row.Blank(field) {
			out.Issues.MissingInputs = append(out.Issues.MissingInputs, field)
			continue
		}
		if _, err := schema.DecodeString(row.Get(field)); err != nil {
			out.Issues.JSONErrors[field] = err.Error()
		}
	}

	return out
}

// FromInputs infers the requested services for a row that carries no
// explicit service list: a service is selected when its primary declared
// input field is non-blank. Services are considered in registry
// declaration order.
func FromInputs(reg *registry.Registry, row TaskRow) []string {
	var selected []string
	for _, id := range reg.ServiceIDs() {
		fields := reg.RequiredInputs(id)
		if len(fields) == 0 {
			continue
		}
		if !row.Blank(fields[0]) {
			selected = append(selected, id)
		}
	}
	return selected
}
