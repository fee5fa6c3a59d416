package cnst

// PermissionType is a grantable permission stored in user_permissions.
// Values are uppercase in storage.
type PermissionType string

const (
	PermissionInsert PermissionType = "INSERT"
	PermissionDelete PermissionType = "DELETE"
	PermissionUpdate PermissionType = "UPDATE"
	PermissionCreate PermissionType = "CREATE"
)

// PermissionTypes lists every grantable permission.
var PermissionTypes = []PermissionType{
	PermissionInsert,
	PermissionDelete,
	PermissionUpdate,
	PermissionCreate,
}

// ValidPermissionType reports whether s names a known permission type.
func ValidPermissionType(s string) bool {
	for _, p := range PermissionTypes {
		if string(p) == s {
			return true
		}
	}
	return false
}

// Action is a user-visible operation subject to permission checks.
type Action string

const (
	ActionCreateDatabase Action = "create-database"
	ActionDropDatabase   Action = "drop-database"
	ActionCreateTable    Action = "create-table"
	ActionDropTable      Action = "drop-table"
	ActionInsert         Action = "insert"
	ActionUpdate         Action = "update"
	ActionDelete         Action = "delete"
	ActionBackup         Action = "backup"
	ActionRestore        Action = "restore"
)
