package assemble

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/portforge/internal/registry"
	"github.com/roach88/portforge/internal/resolve"
	"github.com/roach88/portforge/internal/schema"
)

func newTestRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	r, err := registry.New(
		[]registry.ServiceSpec{
			{ID: "whatsapp", Module: "whatsapp_module", Requires: []string{"contacts"}},
			{ID: "contacts", Module: "contacts_module", DefaultsPath: "DBs/ContactsDefaultDB.json"},
			{ID: "clock", Module: "clock_module"},
		},
		[]registry.PortingSpec{
			{
				ID: "whatsapp",
				Inputs: []registry.InputVar{
					{Field: "whatsapp_initial_db", Var: "whatsapp_src_json", Emission: registry.EmissionText},
				},
				PreCallLines: []string{"port_whatsapp_db = whatsapp_src_json"},
				Call:         "port_db_whatsapp(port_whatsapp_db)",
			},
			{
				ID: "contacts",
				Inputs: []registry.InputVar{
					{Field: "contacts_initial_db", Var: "contacts_src", Emission: registry.EmissionStructured},
				},
				Call: "port_db_contacts(contacts_src)",
			},
		},
	)
	require.NoError(t, err)

	def, err := schema.DecodeString(`{"contacts":[{"name":"","phone":""}],"version":1}`)
	require.NoError(t, err)
	require.NoError(t, r.SetDefaultInstance("contacts", def))
	return r
}

func testParams(t *testing.T, reg *registry.Registry, row resolve.TaskRow) Params {
	t.Helper()
	return Params{
		TaskID:   "task-001",
		Registry: reg,
		Resolved: resolve.Resolve(reg, []string{"whatsapp"}, row),
		Row:      row,
		Setup: []SetupBlock{
			{Name: "Install Dependencies", Source: "pip install simulation-engine\n"},
		},
		Code: map[string][]CodeCandidate{
			"whatsapp": {{
				Service: "whatsapp",
				Source:  "msg = \"ported\nby tool\"\nprint(msg)",
				Updated: "2025-06-01",
				Author:  "maya",
			}},
			"contacts": {{Service: "contacts", Source: "normalize_contacts()"}},
		},
	}
}

func TestAssembleBlockOrder(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{"chats": []}`,
		"contacts_initial_db": `{"contacts":[{"name":"Ana"}]}`,
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)
	assert.Equal(t, "task-001", doc.TaskID)

	var roles []Role
	for _, b := range doc.Blocks {
		roles = append(roles, b.Role)
	}
	assert.Equal(t, []Role{
		RoleMetadata,
		RoleSetup, RoleSetup, RoleSetup,
		RoleLoad,
		RolePorting, RolePorting, // whatsapp inputs + code
		RolePorting, RolePorting, // contacts inputs + code
		RoleCalls,
		RoleScaffold, RoleScaffold, RoleScaffold,
		RoleScaffold, RoleScaffold, RoleScaffold,
	}, roles)
}

func TestAssembleLoadBlock(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
		"user_location":       "America/Los_Angeles",
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)

	load := blockNamed(t, doc, "load")
	assert.False(t, load.Markdown)
	assert.Contains(t, load.Text, "import whatsapp_module\nimport contacts_module\n")
	assert.Contains(t, load.Text, "import os, json, uuid\n")
	assert.Contains(t, load.Text, "from datetime import datetime\n")
	assert.Contains(t, load.Text, `os.environ["USER_LOCATION"] = "America/Los_Angeles"`)
	assert.Contains(t, load.Text,
		"# Load default DBs\ncontacts_module.SimulationEngine.db.load_state(\"DBs/ContactsDefaultDB.json\")")
}

func TestAssembleInputEmission(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{"chats": []}`,
		"contacts_initial_db": `{"contacts":[{"name":"Ana"}]}`,
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)

	// Text emission wraps the literal in json.dumps; no default instance
	// means the vendor value passes through untouched.
	wa := blockNamed(t, doc, "whatsapp/inputs")
	assert.Contains(t, wa.Text, "# whatsapp_src_json from task field 'whatsapp_initial_db'\n")
	assert.Contains(t, wa.Text, "whatsapp_src_json = json.dumps({'chats': []}, ensure_ascii=False)")

	// Structured emission with a default instance: missing keys are filled
	// from the canonical template.
	ct := blockNamed(t, doc, "contacts/inputs")
	assert.Contains(t, ct.Text,
		"contacts_src = {'contacts': [{'name': 'Ana', 'phone': ''}], 'version': 0}")
}

func TestAssembleCodeBlock(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)

	code := blockNamed(t, doc, "whatsapp/code")
	assert.Contains(t, code.Text, "# ==== Porting code for service: whatsapp ====\n")
	assert.Contains(t, code.Text, "# Using porting code updated on 2025-06-01 by maya\n")
	assert.Contains(t, code.Text, `msg = "ported\nby tool"`, "raw newline inside the string literal is re-escaped")
	assert.Contains(t, code.Text, "port_whatsapp_db = whatsapp_src_json\n")

	contacts := blockNamed(t, doc, "contacts/code")
	assert.Contains(t, contacts.Text, "# Using porting code updated on N/A by N/A\n")
}

func TestAssembleCallsInResolverOrder(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)

	calls := blockNamed(t, doc, "calls")
	assert.Equal(t,
		"# Execute porting\nport_db_whatsapp(port_whatsapp_db)\nport_db_contacts(contacts_src)\n",
		calls.Text)
}

func TestAssembleMissingCodeIsFatal(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
	}

	p := testParams(t, reg, row)
	delete(p.Code, "contacts")

	_, err := Assemble(p)
	require.Error(t, err)

	var missing *MissingCodeError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "contacts", missing.Service)
}

func TestAssembleServiceWithoutPortingSpecIsSkipped(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{}

	p := testParams(t, reg, row)
	p.Resolved = resolve.Resolve(reg, []string{"clock"}, row)

	doc, err := Assemble(p)
	require.NoError(t, err)

	clock := blockNamed(t, doc, "clock")
	assert.Equal(t, RolePorting, clock.Role)
	assert.Contains(t, clock.Text, "No porting code defined for service 'clock'; skipping")

	// No calls block when nothing was ported.
	for _, b := range doc.Blocks {
		assert.NotEqual(t, RoleCalls, b.Role)
	}
}

func TestAssembleUnknownServiceWarnsAndSkips(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
	}

	p := testParams(t, reg, row)
	p.Resolved = resolve.Resolve(reg, []string{"whatsapp", "telegraph"}, row)

	doc, err := Assemble(p)
	require.NoError(t, err)

	warnings := blockNamed(t, doc, "warnings")
	assert.True(t, warnings.Markdown)
	assert.Contains(t, warnings.Text, "Unknown or unsupported services: `telegraph`")

	skip := blockNamed(t, doc, "telegraph")
	assert.Contains(t, skip.Text, "skipping")
}

func TestAssembleMetadata(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
		"query":               "Port my chats",
	}

	doc, err := Assemble(testParams(t, reg, row))
	require.NoError(t, err)

	md := doc.Blocks[0]
	assert.Equal(t, RoleMetadata, md.Role)
	assert.True(t, md.Markdown)
	assert.Contains(t, md.Text, "**Sample ID**: task-001")
	assert.Contains(t, md.Text, "**Query**: Port my chats")
	assert.Contains(t, md.Text, "- whatsapp_module\n- contacts_module\n")
}

func TestAssembleNoSetupBlocks(t *testing.T) {
	reg := newTestRegistry(t)
	row := resolve.TaskRow{
		"whatsapp_initial_db": `{}`,
		"contacts_initial_db": `{}`,
	}

	p := testParams(t, reg, row)
	p.Setup = nil

	doc, err := Assemble(p)
	require.NoError(t, err)

	for _, b := range doc.Blocks {
		assert.NotEqual(t, RoleSetup, b.Role)
	}
}

func blockNamed(t *testing.T, doc *Document, name string) Block {
	t.Helper()
	for _, b := range doc.Blocks {
		if b.Name == name {
			return b
		}
	}
	t.Fatalf("no block named %q", name)
	return Block{}
}
