package version

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var raw string

// Get returns the application version, e.g. "v1.0.0".
func Get() string {
	return strings.TrimSpace(raw)
}
