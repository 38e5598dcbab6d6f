package assemble

import "fmt"

// Role classifies a block's position in the assembled document.
type Role int

const (
	// RoleMetadata is the leading task-description block.
	RoleMetadata Role = iota + 1
	// RoleWarnings reports preflight issues inline in the document.
	RoleWarnings
	// RoleSetup holds environment-preparation source supplied by the caller.
	RoleSetup
	// RoleLoad imports the runtime modules and loads their default state.
	RoleLoad
	// RolePorting holds one service's injected inputs or porting source.
	RolePorting
	// RoleCalls executes the collected porting calls in resolver order.
	RoleCalls
	// RoleScaffold holds the empty assertion/action sections appended for
	// the downstream author.
	RoleScaffold
)

// String returns the role name used in logs and harness scenarios.
func (r Role) String() string {
	switch r {
	case RoleMetadata:
		return "metadata"
	case RoleWarnings:
		return "warnings"
	case RoleSetup:
		return "setup"
	case RoleLoad:
		return "load"
	case RolePorting:
		return "porting"
	case RoleCalls:
		return "calls"
	case RoleScaffold:
		return "scaffold"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// Block is one unit of the assembled document: either prose (Markdown true)
// or generated source text.
type Block struct {
	Role     Role   `json:"role"`
	Name     string `json:"name"`
	Markdown bool   `json:"markdown,omitempty"`
	Text     string `json:"text"`
}

// Document is the ordered block sequence assembled for one task.
type Document struct {
	TaskID string  `json:"task_id"`
	Blocks []Block `json:"blocks"`
}
