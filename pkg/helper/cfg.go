package helper

import (
	"os"
	"path/filepath"
)

// GetCfgPath resolves the path to a configuration file.
//
// Resolution order:
// 1. Absolute paths are returned as-is.
// 2. ./{filename}, then ./configs/{filename} relative to the working directory.
// 3. Fallback to /etc/backmeup/{filename}.
func GetCfgPath(filename string) string {
	if filename == "" {
		panic("filename cannot be empty")
	}

	if filepath.IsAbs(filename) {
		return filename
	}

	if p := findInCwd(filename); p != "" {
		return p
	}

	return filepath.Join("/etc/backmeup", filename)
}

func findInCwd(filename string) string {
	cwd, err := os.Getwd()
	if err != nil || cwd == "" {
		return ""
	}

	for _, candidate := range []string{
		filepath.Join(cwd, filename),
		filepath.Join(cwd, "configs", filename),
	} {
		if _, err := os.Stat(candidate); err == nil {
			if abs, err := filepath.Abs(candidate); err == nil {
				return abs
			}
		}
	}
	return ""
}
