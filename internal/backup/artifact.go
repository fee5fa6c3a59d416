package backup

import (
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the timestamp embedded in backup filenames.
const TimestampLayout = "20060102_150405"

// displayTimeLayout is how artifact modification times are shown.
const displayTimeLayout = "2006-01-02 15:04:05"

// Artifact describes one dump file on disk. The filesystem is the only
// index: there is no manifest or database record behind these.
type Artifact struct {
	Filename       string    `json:"filename"`
	SourceDatabase string    `json:"sourceDatabase"`
	ModTime        time.Time `json:"modTime"`
	Timestamp      string    `json:"timestamp"`
	SizeBytes      int64     `json:"sizeBytes"`
	Size           string    `json:"size"`
}

// Filename builds a whole-database dump name: {db}_backup_{ts}.sql
func Filename(database string, t time.Time) string {
	return fmt.Sprintf("%s_backup_%s.sql", database, t.Format(TimestampLayout))
}

// TableFilename builds a single-table dump name: {db}_{table}_backup_{ts}.sql
func TableFilename(database, table string, t time.Time) string {
	return fmt.Sprintf("%s_%s_backup_%s.sql", database, table, t.Format(TimestampLayout))
}

// SourceDatabase infers the source database from a backup filename: the
// substring before the first underscore, or "Unknown" when there is none.
// Database names containing underscores defeat this heuristic.
func SourceDatabase(filename string) string {
	idx := strings.Index(filename, "_")
	if idx < 0 {
		return "Unknown"
	}
	return filename[:idx]
}

// IsArtifact reports whether a directory entry counts as a backup artifact.
func IsArtifact(name string) bool {
	return strings.HasSuffix(name, ".sql") || strings.HasSuffix(name, ".sql.gz")
}

// FormatSize renders a byte count for display: integer bytes below 1024,
// otherwise KB or MB with two decimals.
func FormatSize(bytes int64) string {
	const unit = 1024
	switch {
	case bytes < unit:
		return fmt.Sprintf("%d B", bytes)
	case bytes < unit*unit:
		return fmt.Sprintf("%.2f KB", float64(bytes)/unit)
	default:
		return fmt.Sprintf("%.2f MB", float64(bytes)/(unit*unit))
	}
}
