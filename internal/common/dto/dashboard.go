package dto

// DashboardStats represents the headline counters on the dashboard
type DashboardStats struct {
	Databases     int    `json:"databases"`
	Backups       int    `json:"backups"`
	Users         int64  `json:"users"`
	StorageUsed   string `json:"storageUsed"` // total backup size, human readable
	LastBackup    string `json:"lastBackup"`  // relative, "Never" when no backups exist
	ServerVersion string `json:"serverVersion"`
}
