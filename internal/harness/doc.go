// Package harness provides scenario-based conformance testing for the
// generation pipeline.
//
// Scenarios are YAML files describing one task end to end: the spec
// directory, the task row, the stored code revisions, and the expected
// outcome. The harness loads the specs, resolves the task, assembles its
// document, and checks expectations; golden tests additionally compare a
// deterministic JSON snapshot of the document against a checked-in
// fixture.
//
// # Scenario Format
//
//	name: clock_basic
//	description: "Single service, defaults filled from the canonical DB"
//	specs: ../specs
//	task:
//	  id: t1
//	  row:
//	    services_needed: "clock"
//	    clock_initial_db: '{"alarms":[]}'
//	code:
//	  - service: clock
//	    source: "port_clock_db = ..."
//	    updated: "2025-06-01"
//	    author: maya
//	expect:
//	  services: [clock]
//	  clean: true
package harness
