package rbac

// Action is one of the four capability labels checked per module.
type Action string

// Actions a role permission row can grant.
const (
	ActionView   Action = "view"
	ActionCreate Action = "create"
	ActionEdit   Action = "edit"
	ActionDelete Action = "delete"
)

// Well-known role names. Roles form a closed, administrator-managed set.
const (
	RoleAdministrator = "administrator"
	RoleProvisioner   = "provisioner"
	RoleReadOnly      = "read_only"
)

// Roles lists the closed role set.
func Roles() []string {
	return []string{RoleAdministrator, RoleProvisioner, RoleReadOnly}
}

// ValidRole reports whether name belongs to the closed role set.
func ValidRole(name string) bool {
	for _, r := range Roles() {
		if r == name {
			return true
		}
	}
	return false
}

// PermissionSet holds the four independent capability bits for one module.
// Capability is not a hierarchy: a role may hold edit without create.
type PermissionSet struct {
	CanView   bool `json:"can_view"`
	CanCreate bool `json:"can_create"`
	CanEdit   bool `json:"can_edit"`
	CanDelete bool `json:"can_delete"`
}

// Allows returns the bit matching the action. Unknown action labels resolve
// to false.
func (p PermissionSet) Allows(action Action) bool {
	switch action {
	case ActionView:
		return p.CanView
	case ActionCreate:
		return p.CanCreate
	case ActionEdit:
		return p.CanEdit
	case ActionDelete:
		return p.CanDelete
	default:
		return false
	}
}

// ModulePermission pairs a module name with its capability bits.
type ModulePermission struct {
	Module string        `json:"module"`
	Perms  PermissionSet `json:"permissions"`
}

// Resolution bundles effective permissions with module visibility. The two
// maps are orthogonal: visibility governs whether a module is exposed at
// all and never grants an action the permission map denies.
type Resolution struct {
	Permissions map[string]PermissionSet `json:"permissions"`
	Visibility  map[string]bool          `json:"visibility"`
}

// moduleRegistry is the fixed set of modules every user sees unless an
// explicit visibility override says otherwise.
var moduleRegistry = []string{
	"network_routes",
	"carriers",
	"carrier_contacts",
	"locations",
	"exchanges",
	"exchange_feeds",
	"user_management",
	"audit_logs",
}

// ModuleRegistry returns the fixed module registry.
func ModuleRegistry() []string {
	registry := make([]string, len(moduleRegistry))
	copy(registry, moduleRegistry)
	return registry
}
