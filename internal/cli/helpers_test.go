package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testSpecs = `
service: clock: {
	module:   "clock_module"
	defaults: "DBs/ClockDefaultDB.json"
}
service: whatsapp: {
	module: "whatsapp_module"
	requires: ["contacts"]
}
service: contacts: {
	module: "contacts_module"
}

porting: clock: {
	inputs: [{field: "clock_initial_db", var: "clock_src_json", emission: "text"}]
	call: "port_clock_db(clock_src_json)"
}
porting: whatsapp: {
	inputs: [
		{field: "contacts_initial_db", var: "contacts_src_json", emission: "text"},
		{field: "whatsapp_initial_db", var: "whatsapp_src_json", emission: "text"},
	]
	call: "port_db_whatsapp_and_contacts(contacts_src_json, whatsapp_src_json)"
}
porting: contacts: {
	inputs: [{field: "contacts_initial_db", var: "contacts_src_json", emission: "text"}]
	call: "port_db_contacts(contacts_src_json)"
}
`

const testTasksCSV = `sample_id,services_needed,query,whatsapp_initial_db,contacts_initial_db,clock_initial_db
t1,whatsapp,Port my chats,"{""chats"":[]}","{""contacts"":[]}",
t2,clock,Port my alarms,,,"{""alarms"":[]}"
`

const testCodeCSV = `service_name,function_to_translate_json,date_updated,responsible person
whatsapp,port_whatsapp(),2025-06-01,maya
contacts,port_contacts(),2025-06-01,maya
clock,port_clock(),2025-06-01,maya
`

// writeSpecDir lays out a valid spec directory with a default instance.
func writeSpecDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "services.cue"), []byte(testSpecs), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "DBs"), 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "DBs", "ClockDefaultDB.json"),
		[]byte(`{"alarms":[{"id":"a1","hour":7}],"tz":"UTC"}`), 0o644))
	return dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// execute runs the root command with args and captures combined output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
