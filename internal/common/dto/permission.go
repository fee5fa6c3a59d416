package dto

// GrantEntry is the set of permission types a user holds on one database
type GrantEntry struct {
	Database    string   `json:"database" binding:"required"`
	Permissions []string `json:"permissions" binding:"required,min=1"`
}

// ReplaceGrantsRequest replaces a user's full grant set
type ReplaceGrantsRequest struct {
	Grants []GrantEntry `json:"grants"`
}

// GrantsResponse represents a user's effective grants. Unrestricted is set
// for admin roles, whose access does not come from grant rows.
type GrantsResponse struct {
	Username     string       `json:"username"`
	Unrestricted bool         `json:"unrestricted"`
	Grants       []GrantEntry `json:"grants"`
}
