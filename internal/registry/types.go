package registry

import (
	"fmt"

	"github.com/roach88/portforge/internal/schema"
)

// EmissionMode selects how an injected input variable is rendered in the
// generated document.
type EmissionMode int

const (
	// EmissionStructured injects the normalized instance as a literal
	// structured value (a dict literal in the generated source).
	EmissionStructured EmissionMode = iota + 1
	// EmissionText injects the normalized instance as a serialized JSON
	// text literal.
	EmissionText
)

// String returns the spec-file spelling of the mode.
func (m EmissionMode) String() string {
	switch m {
	case EmissionStructured:
		return "structured"
	case EmissionText:
		return "text"
	default:
		return fmt.Sprintf("EmissionMode(%d)", int(m))
	}
}

// InputVar declares one vendor input a service consumes: the task-row field
// it is read from, the generated variable it is bound to, and how it is
// emitted.
type InputVar struct {
	Field    string       `json:"field"`
	Var      string       `json:"var"`
	Emission EmissionMode `json:"emission"`
}

// ServiceSpec describes one service: its identifier, the runtime module
// that owns it, the services it transitively requires, and the path of its
// canonical default-database instance.
type ServiceSpec struct {
	ID           string   `json:"id"`
	Module       string   `json:"module"`
	Requires     []string `json:"requires"`
	DefaultsPath string   `json:"defaults_path,omitempty"`
}

// PortingSpec describes how one service's porting code is assembled: the
// input variables to inject, optional statement lines emitted before the
// call, and the call expression itself.
type PortingSpec struct {
	ID           string     `json:"id"`
	Inputs       []InputVar `json:"inputs"`
	PreCallLines []string   `json:"pre_call_lines,omitempty"`
	Call         string     `json:"call"`
}

// Registry is the immutable service/porting table set. Construct with New
// and never mutate afterwards.
type Registry struct {
	order    []string // service IDs in declaration order
	services map[string]ServiceSpec
	porting  map[string]PortingSpec
	defaults map[string]schema.Value
}

// New builds a Registry from service and porting specs. Porting specs for
// unknown services and duplicate identifiers are rejected; a service
// without a porting spec is legal (it contributes a module and
// dependencies but no generated call).
func New(services []ServiceSpec, porting []PortingSpec) (*Registry, error) {
	r := &Registry{
		order:    make([]string, 0, len(services)),
		services: make(map[string]ServiceSpec, len(services)),
		porting:  make(map[string]PortingSpec, len(porting)),
		defaults: make(map[string]schema.Value),
	}

	for _, s := range services {
		if s.ID == "" {
			return nil, fmt.Errorf("service spec with empty identifier")
		}
		if _, dup := r.services[s.ID]; dup {
			return nil, fmt.Errorf("duplicate service spec %q", s.ID)
		}
		if s.Module == "" {
			return nil, fmt.Errorf("service %q: module is required", s.ID)
		}
		r.services[s.ID] = s
		r.order = append(r.order, s.ID)
	}

	for _, p := range porting {
		if _, known := r.services[p.ID]; !known {
			return nil, fmt.Errorf("porting spec %q has no service spec", p.ID)
		}
		if _, dup := r.porting[p.ID]; dup {
			return nil, fmt.Errorf("duplicate porting spec %q", p.ID)
		}
		if p.Call == "" {
			return nil, fmt.Errorf("porting spec %q: call is required", p.ID)
		}
		for _, in := range p.Inputs {
			if in.Field == "" || in.Var == "" {
				return nil, fmt.Errorf("porting spec %q: input needs field and var", p.ID)
			}
			if in.Emission != EmissionStructured && in.Emission != EmissionText {
				return nil, fmt.Errorf("porting spec %q: input %q has no emission mode", p.ID, in.Field)
			}
		}
		r.porting[p.ID] = p
	}

	return r, nil
}

// Service returns the service spec for id.
func (r *Registry) Service(id string) (ServiceSpec, bool) {
	s, ok := r.services[id]
	return s, ok
}

// Porting returns the porting spec for id.
func (r *Registry) Porting(id string) (PortingSpec, bool) {
	p, ok := r.porting[id]
	return p, ok
}

// Known reports whether id names a declared service.
func (r *Registry) Known(id string) bool {
	_, ok := r.services[id]
	return ok
}

// Len returns the number of declared services. The resolver uses this as
// the hard bound on closure growth.
func (r *Registry) Len() int {
	return len(r.order)
}

// ServiceIDs returns all service identifiers in declaration order.
func (r *Registry) ServiceIDs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// RequiredInputs returns the task-row fields service id reads, in
// declaration order. Empty for services without a porting spec.
func (r *Registry) RequiredInputs(id string) []string {
	p, ok := r.porting[id]
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		fields = append(fields, in.Field)
	}
	return fields
}

// SetDefaultInstance attaches the parsed canonical default instance for a
// service. Called by the loader before the registry is published; never
// call it once tasks are running.
func (r *Registry) SetDefaultInstance(id string, v schema.Value) error {
	if !r.Known(id) {
		return fmt.Errorf("unknown service %q", id)
	}
	r.defaults[id] = v
	return nil
}

// DefaultInstance returns the canonical default instance for a service, if
// one was loaded.
func (r *Registry) DefaultInstance(id string) (schema.Value, bool) {
	v, ok := r.defaults[id]
	return v, ok
}
