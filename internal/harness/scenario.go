package harness

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a task run against a spec
// directory with a fixed set of code revisions.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Specs is the spec directory, relative to the scenario file.
	Specs string `yaml:"specs"`

	// Task is the task under test.
	Task TaskFixture `yaml:"task"`

	// Setup lists environment-preparation blocks, emitted in order.
	Setup []SetupFixture `yaml:"setup,omitempty"`

	// Code lists stored porting-source revisions, in insertion order.
	Code []CodeFixture `yaml:"code,omitempty"`

	// Expect specifies the expected outcome. If nil, the scenario only
	// has to assemble without a fatal error.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// TaskFixture is the scenario's task row.
type TaskFixture struct {
	ID  string            `yaml:"id"`
	Row map[string]string `yaml:"row"`
}

// SetupFixture is one setup block.
type SetupFixture struct {
	Name   string `yaml:"name"`
	Source string `yaml:"source"`
}

// CodeFixture is one stored code revision.
type CodeFixture struct {
	Service string `yaml:"service"`
	Source  string `yaml:"source"`
	Updated string `yaml:"updated,omitempty"`
	Author  string `yaml:"author,omitempty"`
}

// ExpectClause specifies the expected outcome of a scenario.
type ExpectClause struct {
	// Services is the expected resolved closure, in order.
	Services []string `yaml:"services,omitempty"`

	// Modules is the expected module set, in order.
	Modules []string `yaml:"modules,omitempty"`

	// Clean asserts that preflight found no issues.
	Clean bool `yaml:"clean,omitempty"`

	// Error is a substring the fatal assembly error must contain. Empty
	// means assembly must succeed.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and validates a scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Specs == "" {
		return nil, fmt.Errorf("scenario %s: specs directory is required", path)
	}
	if s.Task.ID == "" {
		return nil, fmt.Errorf("scenario %s: task.id is required", path)
	}

	return &s, nil
}
