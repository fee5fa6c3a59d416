package dto

// BackupResponse represents one backup artifact on disk
type BackupResponse struct {
	Filename  string `json:"filename"`
	Database  string `json:"database"`
	SizeBytes int64  `json:"sizeBytes"`
	Size      string `json:"size"` // human readable, e.g. "2.00 KB"
	CreatedAt string `json:"createdAt"`
}

// CreateBackupRequest represents a request to back up a full database
type CreateBackupRequest struct {
	Database string `json:"database" binding:"required"`
}

// CreateTableBackupRequest represents a request to back up a single table
type CreateTableBackupRequest struct {
	Database string `json:"database" binding:"required"`
	Table    string `json:"table" binding:"required"`
}

// RestoreResponse represents the outcome of a restore
type RestoreResponse struct {
	Database string `json:"database"`
	Filename string `json:"filename"`
}
