package dbadmin

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/backmeup/backmeup/internal/common/cnst"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrInvalidName reports input that is not safe to interpolate into DDL.
var ErrInvalidName = errors.New("invalid name")

// validNameRe matches only alphanumeric characters and underscores.
// This prevents SQL injection in database/table names, which cannot be
// bound as placeholders in DDL statements.
var validNameRe = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// defKeywordRe matches keywords that have no place in a column list but
// would let a definition turn CREATE TABLE into a read of another schema
// (CREATE TABLE ... AS SELECT).
var defKeywordRe = regexp.MustCompile(`(?i)\b(select|union|load_file)\b`)

// DatabaseInfo is a read-only projection of live server state, recomputed
// on every call.
type DatabaseInfo struct {
	Name   string `json:"name"`
	Tables int    `json:"tables"`
	SizeMB float64 `json:"sizeMB"`
	Status string `json:"status"`
}

// TableInfo describes one table of a managed database.
type TableInfo struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Admin administers the managed MySQL server: listing schemas, computing
// information_schema projections and running DDL. It borrows the system
// store's connection when the store itself is MySQL.
type Admin struct {
	db     *gorm.DB
	logger *zap.Logger
}

// New creates a server admin over an existing MySQL connection.
func New(db *gorm.DB, logger *zap.Logger) *Admin {
	return &Admin{
		db:     db,
		logger: logger.Named("dbadmin"),
	}
}

// ValidateName checks that a database or table name is safe to interpolate.
func ValidateName(name string) error {
	if !validNameRe.MatchString(name) {
		return fmt.Errorf("%w %q: only alphanumeric and underscore allowed", ErrInvalidName, name)
	}
	return nil
}

// ValidateColumnDefinition checks that a CREATE TABLE column list is safe
// to interpolate. Column names and types pass; anything that could close
// the surrounding parenthesis or smuggle a query into the statement is
// rejected, since the definition cannot be bound as a placeholder either.
func ValidateColumnDefinition(def string) error {
	for _, tok := range []string{"`", ";", "--", "/*", "#"} {
		if strings.Contains(def, tok) {
			return fmt.Errorf("%w: %q not allowed in a column definition", ErrInvalidName, tok)
		}
	}
	if m := defKeywordRe.FindString(def); m != "" {
		return fmt.Errorf("%w: %q not allowed in a column definition", ErrInvalidName, m)
	}
	depth := 0
	for _, r := range def {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
			if depth < 0 {
				return fmt.Errorf("%w: unbalanced parentheses in column definition", ErrInvalidName)
			}
		}
	}
	if depth != 0 {
		return fmt.Errorf("%w: unbalanced parentheses in column definition", ErrInvalidName)
	}
	return nil
}

// Ping verifies the server connection, retrying once before giving up.
func (a *Admin) Ping(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		a.logger.Warn("ping failed, retrying once", zap.Error(err))
		return sqlDB.PingContext(ctx)
	}
	return nil
}

// ServerVersion returns the MySQL server version string.
func (a *Admin) ServerVersion(ctx context.Context) (string, error) {
	var version string
	if err := a.db.WithContext(ctx).Raw("SELECT VERSION()").Scan(&version).Error; err != nil {
		return "", err
	}
	return version, nil
}

// ListDatabases lists user databases, filtering out system schemas.
func (a *Admin) ListDatabases(ctx context.Context) ([]string, error) {
	var all []string
	if err := a.db.WithContext(ctx).Raw("SHOW DATABASES").Scan(&all).Error; err != nil {
		return nil, err
	}

	dbs := make([]string, 0, len(all))
	for _, name := range all {
		if cnst.IsSystemDatabase(name) || name == cnst.SystemSchema {
			continue
		}
		dbs = append(dbs, name)
	}
	return dbs, nil
}

// DatabaseInfo computes table count and approximate size for one database.
// Status is "Active" whenever the query succeeds.
func (a *Admin) DatabaseInfo(ctx context.Context, name string) (*DatabaseInfo, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}

	var tables int
	if err := a.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = ?", name).
		Scan(&tables).Error; err != nil {
		return nil, err
	}

	var sizeMB *float64
	if err := a.db.WithContext(ctx).
		Raw(`SELECT ROUND(SUM(data_length + index_length) / 1024 / 1024, 2)
			FROM information_schema.tables WHERE table_schema = ?`, name).
		Scan(&sizeMB).Error; err != nil {
		return nil, err
	}

	info := &DatabaseInfo{
		Name:   name,
		Tables: tables,
		Status: "Active",
	}
	if sizeMB != nil {
		info.SizeMB = *sizeMB
	}
	return info, nil
}

// ListTables lists the tables of a database with row estimates.
func (a *Admin) ListTables(ctx context.Context, database string) ([]TableInfo, error) {
	if err := ValidateName(database); err != nil {
		return nil, err
	}

	var tables []TableInfo
	err := a.db.WithContext(ctx).
		Raw(`SELECT table_name AS name, COALESCE(table_rows, 0) AS rows
			FROM information_schema.tables
			WHERE table_schema = ? ORDER BY table_name`, database).
		Scan(&tables).Error
	return tables, err
}

// CreateDatabase creates a new database.
func (a *Admin) CreateDatabase(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	a.logger.Info("creating database", zap.String("database", name))
	return a.db.WithContext(ctx).Exec(fmt.Sprintf("CREATE DATABASE `%s`", name)).Error
}

// EnsureDatabase creates a database only if it does not exist. Used by
// restore, which loads into an existing database without further prompting.
func (a *Admin) EnsureDatabase(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	return a.db.WithContext(ctx).Exec(fmt.Sprintf("CREATE DATABASE IF NOT EXISTS `%s`", name)).Error
}

// DropDatabase drops a database.
func (a *Admin) DropDatabase(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	a.logger.Info("dropping database", zap.String("database", name))
	return a.db.WithContext(ctx).Exec(fmt.Sprintf("DROP DATABASE `%s`", name)).Error
}

// CreateTable creates a table. An empty definition yields a minimal table
// with an auto-increment primary key.
func (a *Admin) CreateTable(ctx context.Context, database, table, definition string) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	if err := ValidateName(table); err != nil {
		return err
	}
	if definition == "" {
		definition = "id INT AUTO_INCREMENT PRIMARY KEY"
	}
	if err := ValidateColumnDefinition(definition); err != nil {
		return err
	}
	a.logger.Info("creating table",
		zap.String("database", database),
		zap.String("table", table))
	return a.db.WithContext(ctx).
		Exec(fmt.Sprintf("CREATE TABLE `%s`.`%s` (%s)", database, table, definition)).Error
}

// DropTable drops a table.
func (a *Admin) DropTable(ctx context.Context, database, table string) error {
	if err := ValidateName(database); err != nil {
		return err
	}
	if err := ValidateName(table); err != nil {
		return err
	}
	a.logger.Info("dropping table",
		zap.String("database", database),
		zap.String("table", table))
	return a.db.WithContext(ctx).
		Exec(fmt.Sprintf("DROP TABLE `%s`.`%s`", database, table)).Error
}
