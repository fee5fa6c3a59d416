package dto

// DatabaseResponse represents one managed database
type DatabaseResponse struct {
	Name   string  `json:"name"`
	Tables int     `json:"tables"`
	SizeMB float64 `json:"sizeMb"`
	Status string  `json:"status"`
}

// CreateDatabaseRequest represents a request to create a database
type CreateDatabaseRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateTableRequest represents a request to create a table
type CreateTableRequest struct {
	Name    string `json:"name" binding:"required"`
	Columns string `json:"columns,omitempty"` // column definition SQL, defaults to an id column
}

// TableListResponse represents the tables of a database
type TableListResponse struct {
	Database string   `json:"database"`
	Tables   []string `json:"tables"`
}
