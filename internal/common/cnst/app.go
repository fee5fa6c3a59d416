package cnst

const (
	// AppName is the application name used in logs and metrics namespaces.
	AppName = "backmeup"

	// SystemSchema is the schema holding the users and user_permissions tables.
	SystemSchema = "backmeup_system"
)

// SystemDatabases are MySQL schemas hidden from database listings.
var SystemDatabases = []string{
	"information_schema",
	"mysql",
	"performance_schema",
	"sys",
	"phpmyadmin",
	"test",
}

// IsSystemDatabase reports whether name is a reserved MySQL/XAMPP schema.
func IsSystemDatabase(name string) bool {
	for _, d := range SystemDatabases {
		if d == name {
			return true
		}
	}
	return false
}
