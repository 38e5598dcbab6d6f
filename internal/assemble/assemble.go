package assemble

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/portforge/internal/escape"
	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
	"github.com/roach88/portforge/internal/schema"
)

// SetupBlock is one caller-supplied environment-preparation section,
// rendered under the Set Up heading before anything service-specific.
type SetupBlock struct {
	Name   string `json:"name"`
	Source string `json:"source"`
}

// Params carries everything Assemble needs for one task.
type Params struct {
	TaskID   string
	Registry *registry.Registry
	Resolved *resolve.ResolvedSet
	Row      resolve.TaskRow
	Setup    []SetupBlock

	// Code maps service ID to its stored source revisions. SelectLatest
	// picks the revision to embed.
	Code map[string][]CodeCandidate
}

// MissingCodeError aborts a task: a resolved service declares a porting
// call but no usable source revision exists for it.
type MissingCodeError struct {
	Service string
}

func (e *MissingCodeError) Error() string {
	return fmt.Sprintf("no porting code available for service %q", e.Service)
}

// Assemble builds the ordered document for one task. The only fatal
// condition is a resolved service whose porting spec has no stored source;
// everything else degrades to a warning or skip block.
func Assemble(p Params) (*Document, error) {
	doc := &Document{TaskID: p.TaskID, Blocks: []Block{}}

	doc.Blocks = append(doc.Blocks, metadataBlock(p))
	if !p.Resolved.Issues.Empty() {
		doc.Blocks = append(doc.Blocks, warningsBlock(p.Resolved.Issues))
	}

	if len(p.Setup) > 0 {
		doc.Blocks = append(doc.Blocks, Block{
			Role: RoleSetup, Name: "setup", Markdown: true, Text: "# Set Up",
		})
		for _, s := range p.Setup {
			doc.Blocks = append(doc.Blocks,
				Block{Role: RoleSetup, Name: s.Name, Markdown: true, Text: "## " + s.Name},
				Block{Role: RoleSetup, Name: s.Name, Text: codeText(s.Source)},
			)
		}
	}

	doc.Blocks = append(doc.Blocks, loadBlock(p))

	var calls []string
	for _, svc := range p.Resolved.Services {
		porting, ok := p.Registry.Porting(svc)
		if !ok {
			doc.Blocks = append(doc.Blocks, Block{
				Role: RolePorting,
				Name: svc,
				Text: fmt.Sprintf("# No porting code defined for service '%s'; skipping\n", svc),
			})
			continue
		}

		if len(porting.Inputs) > 0 {
			doc.Blocks = append(doc.Blocks, inputsBlock(p, svc, porting))
		}

		code, err := codeBlock(p, svc, porting)
		if err != nil {
			return nil, err
		}
		doc.Blocks = append(doc.Blocks, code)
		calls = append(calls, porting.Call)
	}

	if len(calls) > 0 {
		doc.Blocks = append(doc.Blocks, Block{
			Role: RoleCalls,
			Name: "calls",
			Text: "# Execute porting\n" + strings.Join(calls, "\n") + "\n",
		})
	}

	for _, section := range []string{"Initial Assertion", "Action", "Final Assertion"} {
		doc.Blocks = append(doc.Blocks,
			Block{Role: RoleScaffold, Name: section, Markdown: true, Text: "# " + section},
			Block{Role: RoleScaffold, Name: section, Text: ""},
		)
	}

	return doc, nil
}

func metadataBlock(p Params) Block {
	var b strings.Builder
	b.WriteString("# Sample ID\n\n")
	fmt.Fprintf(&b, "**Sample ID**: %s\n\n", p.TaskID)
	fmt.Fprintf(&b, "**Query**: %s\n\n", p.Row.Get("query"))
	b.WriteString("**APIs:**\n")
	for _, m := range p.Resolved.Modules {
		fmt.Fprintf(&b, "- %s\n", m)
	}
	return Block{Role: RoleMetadata, Name: "metadata", Markdown: true, Text: b.String()}
}

func warningsBlock(issues resolve.Issues) Block {
	var b strings.Builder
	b.WriteString("### Warnings detected for this task\n")
	if len(issues.UnknownServices) > 0 {
		fmt.Fprintf(&b, "\n- Unknown or unsupported services: `%s`\n",
			strings.Join(issues.UnknownServices, "`, `"))
	}
	if len(issues.MissingInputs) > 0 {
		fmt.Fprintf(&b, "\n- Missing required inputs: `%s`\n",
			strings.Join(issues.MissingInputs, "`, `"))
	}
	if len(issues.JSONErrors) > 0 {
		b.WriteString("\n- JSON parse errors:\n")
		fields := make([]string, 0, len(issues.JSONErrors))
		for f := range issues.JSONErrors {
			fields = append(fields, f)
		}
		sort.Strings(fields)
		for _, f := range fields {
			fmt.Fprintf(&b, "  - `%s`: %s\n", f, issues.JSONErrors[f])
		}
	}
	return Block{Role: RoleWarnings, Name: "warnings", Markdown: true, Text: b.String()}
}

// loadBlock imports every resolved module and loads each service's default
// database state before any porting code runs.
func loadBlock(p Params) Block {
	var b strings.Builder
	b.WriteString("# Imports\n")
	for _, m := range p.Resolved.Modules {
		fmt.Fprintf(&b, "import %s\n", m)
	}
	b.WriteString("import os, json, uuid\n")
	b.WriteString("from datetime import datetime\n")

	if loc := p.Row.Get("user_location"); loc != "" {
		fmt.Fprintf(&b, "\nos.environ[\"USER_LOCATION\"] = %s\n", strconv.Quote(loc))
	}

	var loads []string
	loaded := map[string]bool{}
	for _, svc := range p.Resolved.Services {
		spec, ok := p.Registry.Service(svc)
		if !ok || spec.DefaultsPath == "" || loaded[spec.Module] {
			continue
		}
		loads = append(loads, fmt.Sprintf("%s.SimulationEngine.db.load_state(%s)",
			spec.Module, strconv.Quote(spec.DefaultsPath)))
		loaded[spec.Module] = true
	}
	if len(loads) > 0 {
		b.WriteString("\n# Load default DBs\n")
		b.WriteString(strings.Join(loads, "\n"))
		b.WriteString("\n")
	}

	return Block{Role: RoleLoad, Name: "load", Text: b.String()}
}

// inputsBlock binds each declared input variable to the normalized vendor
// instance for this task.
func inputsBlock(p Params, svc string, porting registry.PortingSpec) Block {
	def, hasDefault := p.Registry.DefaultInstance(svc)

	var lines []string
	for _, in := range porting.Inputs {
		vendor := parseInitial(p.Row, in.Field)
		v := vendor
		if hasDefault {
			v = schema.Normalize(def, vendor)
		}

		lit := PyLiteral(v)
		var stmt string
		switch in.Emission {
		case registry.EmissionStructured:
			stmt = fmt.Sprintf("%s = %s", in.Var, lit)
		default:
			stmt = fmt.Sprintf("%s = json.dumps(%s, ensure_ascii=False)", in.Var, lit)
		}
		lines = append(lines, fmt.Sprintf("# %s from task field '%s'\n%s", in.Var, in.Field, stmt))
	}

	return Block{
		Role: RolePorting,
		Name: svc + "/inputs",
		Text: strings.Join(lines, "\n\n") + "\n",
	}
}

// codeBlock embeds the latest stored porting source for svc, re-escaped so
// raw newlines inside its string literals survive as \n sequences.
func codeBlock(p Params, svc string, porting registry.PortingSpec) (Block, error) {
	cand, ok := SelectLatest(p.Code[svc])
	if !ok {
		return Block{}, &MissingCodeError{Service: svc}
	}

	updated, author := cand.Updated, cand.Author
	if updated == "" {
		updated = "N/A"
	}
	if author == "" {
		author = "N/A"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# ==== Porting code for service: %s ====\n", svc)
	fmt.Fprintf(&b, "# Using porting code updated on %s by %s\n", updated, author)
	b.WriteString(codeText(cand.Source))
	for _, line := range porting.PreCallLines {
		b.WriteString(line)
		b.WriteString("\n")
	}

	return Block{Role: RolePorting, Name: svc + "/code", Text: b.String()}, nil
}

// codeText re-escapes caller-supplied source and normalizes its framing to
// exactly one trailing newline.
func codeText(src string) string {
	return strings.TrimSpace(escape.Reescape(src)) + "\n"
}

// parseInitial reads a vendor payload field leniently: blank placeholders
// and malformed JSON both degrade to an empty object, which normalization
// fills from the canonical template. Preflight already reported the
// problem.
func parseInitial(row resolve.TaskRow, field string) schema.Value {
	if row.Blank(field) {
		return schema.Object{}
	}
	v, err := schema.DecodeString(row.Get(field))
	if err != nil {
		return schema.Object{}
	}
	return v
}
