package harness

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/roach88/portforge/internal/assemble"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
)

// Result captures one scenario execution.
type Result struct {
	Resolved *assemble.Params // inputs handed to the assembler, for inspection
	Set      *resolve.ResolvedSet
	Document *assemble.Document
	Err      error // fatal assembly error, if any
}

// Run executes a scenario loaded from scenarioPath. The scenario's spec
// directory is resolved relative to the scenario file. A fatal assembly
// error lands in Result.Err; Run itself only fails when the specs cannot
// be loaded.
func Run(scenarioPath string, s *Scenario) (*Result, error) {
	specsDir := s.Specs
	if !filepath.IsAbs(specsDir) {
		specsDir = filepath.Join(filepath.Dir(scenarioPath), specsDir)
	}

	loaded, errs := registry.LoadDir(specsDir, registry.LoadModeFailFast)
	if loaded == nil || loaded.Registry == nil {
		if len(errs) > 0 {
			return nil, fmt.Errorf("load specs: %w", errs[0])
		}
		return nil, fmt.Errorf("load specs: no registry")
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("load specs: %w", errs[0])
	}

	row := resolve.TaskRow{}
	for field, value := range s.Task.Row {
		row[field] = value
	}

	requested := registry.SplitServices(row.Get("services_needed"))
	if len(requested) == 0 {
		requested = resolve.FromInputs(loaded.Registry, row)
	}
	set := resolve.Resolve(loaded.Registry, requested, row)

	code := map[string][]assemble.CodeCandidate{}
	for _, c := range s.Code {
		code[c.Service] = append(code[c.Service], assemble.CodeCandidate{
			Service: c.Service,
			Source:  c.Source,
			Updated: c.Updated,
			Author:  c.Author,
		})
	}

	var setup []assemble.SetupBlock
	for _, b := range s.Setup {
		setup = append(setup, assemble.SetupBlock{Name: b.Name, Source: b.Source})
	}

	params := assemble.Params{
		TaskID:   s.Task.ID,
		Registry: loaded.Registry,
		Resolved: set,
		Row:      row,
		Setup:    setup,
		Code:     code,
	}
	doc, err := assemble.Assemble(params)

	return &Result{
		Resolved: &params,
		Set:      set,
		Document: doc,
		Err:      err,
	}, nil
}

// Check validates a result against the scenario's expect clause.
func Check(s *Scenario, r *Result) error {
	if s.Expect == nil {
		if r.Err != nil {
			return fmt.Errorf("assembly failed: %w", r.Err)
		}
		return nil
	}

	e := s.Expect
	if e.Error != "" {
		if r.Err == nil {
			return fmt.Errorf("expected error containing %q, got none", e.Error)
		}
		if !strings.Contains(r.Err.Error(), e.Error) {
			return fmt.Errorf("expected error containing %q, got %q", e.Error, r.Err.Error())
		}
	} else if r.Err != nil {
		return fmt.Errorf("assembly failed: %w", r.Err)
	}

	if len(e.Services) > 0 && !slices.Equal(e.Services, r.Set.Services) {
		return fmt.Errorf("services: expected %v, got %v", e.Services, r.Set.Services)
	}
	if len(e.Modules) > 0 && !slices.Equal(e.Modules, r.Set.Modules) {
		return fmt.Errorf("modules: expected %v, got %v", e.Modules, r.Set.Modules)
	}
	if e.Clean && !r.Set.Issues.Empty() {
		return fmt.Errorf("expected clean preflight, got issues: %+v", r.Set.Issues)
	}

	return nil
}
