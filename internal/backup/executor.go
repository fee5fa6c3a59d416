package backup

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/backmeup/backmeup/internal/common/config"
	"github.com/backmeup/backmeup/internal/dbadmin"

	"go.uber.org/zap"
)

// ErrBinaryNotFound is returned when the configured dump/load binary does
// not exist. Distinct from a process failure so the operator knows to fix
// the installation rather than retry.
var ErrBinaryNotFound = errors.New("binary not found")

// ProcessError reports a dump/load process that exited nonzero. Stderr is
// surfaced verbatim as the failure detail.
type ProcessError struct {
	Binary   string
	ExitCode int
	Stderr   string
}

func (e *ProcessError) Error() string {
	return fmt.Sprintf("%s exited with code %d: %s", e.Binary, e.ExitCode, strings.TrimSpace(e.Stderr))
}

// DatabaseCreator is the slice of the server admin the executor needs for
// restores.
type DatabaseCreator interface {
	EnsureDatabase(ctx context.Context, name string) error
}

// Executor produces and consumes dump files via the external mysqldump and
// mysql binaries. Operations are synchronous and block the caller for the
// full process duration, bounded by the configured exec timeout.
type Executor struct {
	cfg    *config.BackupConfig
	conn   *config.DatabaseConfig
	inv    *Inventory
	admin  DatabaseCreator
	logger *zap.Logger

	now func() time.Time
}

// NewExecutor creates a backup/restore executor.
func NewExecutor(cfg *config.BackupConfig, conn *config.DatabaseConfig, inv *Inventory, admin DatabaseCreator, logger *zap.Logger) *Executor {
	return &Executor{
		cfg:    cfg,
		conn:   conn,
		inv:    inv,
		admin:  admin,
		logger: logger.Named("executor"),
		now:    time.Now,
	}
}

// lookupBinary verifies a binary exists before invoking it.
func lookupBinary(path string) error {
	if strings.ContainsRune(path, os.PathSeparator) {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("%w: %s", ErrBinaryNotFound, path)
		}
		return nil
	}
	if _, err := exec.LookPath(path); err != nil {
		return fmt.Errorf("%w: %s", ErrBinaryNotFound, path)
	}
	return nil
}

// connArgs builds the shared mysql/mysqldump connection arguments. The
// password travels via MYSQL_PWD in the child environment, not argv.
func (e *Executor) connArgs() []string {
	args := []string{"-u", e.conn.User, "-h", e.conn.Host}
	if e.conn.Port != 0 {
		args = append(args, "-P", strconv.Itoa(e.conn.Port))
	}
	return args
}

func (e *Executor) env() []string {
	env := os.Environ()
	if e.conn.Password != "" {
		env = append(env, "MYSQL_PWD="+e.conn.Password)
	}
	return env
}

// Backup dumps a whole database into the backup directory and returns the
// new artifact. The dump is written to a temporary name and renamed into
// place only after the process exits cleanly, so a failed dump never leaves
// a half-written artifact behind.
func (e *Executor) Backup(ctx context.Context, database string) (*Artifact, error) {
	return e.dump(ctx, database, "", Filename(database, e.now()))
}

// BackupTable dumps a single table.
func (e *Executor) BackupTable(ctx context.Context, database, table string) (*Artifact, error) {
	if err := dbadmin.ValidateName(table); err != nil {
		return nil, err
	}
	return e.dump(ctx, database, table, TableFilename(database, table, e.now()))
}

func (e *Executor) dump(ctx context.Context, database, table, filename string) (*Artifact, error) {
	if err := dbadmin.ValidateName(database); err != nil {
		return nil, err
	}
	if e.cfg.Compress {
		filename += ".gz"
	}
	if err := lookupBinary(e.cfg.MysqldumpPath); err != nil {
		return nil, err
	}
	if err := e.inv.EnsureDir(); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}

	finalPath, err := e.inv.Path(filename)
	if err != nil {
		return nil, err
	}
	// The .part suffix keeps in-flight dumps out of artifact listings.
	tmpPath := finalPath + ".part"

	out, err := os.Create(tmpPath)
	if err != nil {
		return nil, fmt.Errorf("create dump file: %w", err)
	}

	args := append(e.connArgs(), database)
	if table != "" {
		args = append(args, table)
	}

	ctx, cancel := e.bound(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, e.cfg.MysqldumpPath, args...)
	var gz *gzip.Writer
	if e.cfg.Compress {
		gz = gzip.NewWriter(out)
		cmd.Stdout = gz
	} else {
		cmd.Stdout = out
	}
	cmd.Env = e.env()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Info("starting dump",
		zap.String("database", database),
		zap.String("table", table),
		zap.String("filename", filename))

	runErr := cmd.Run()
	var closeErr error
	if gz != nil {
		closeErr = gz.Close()
	}
	if err := out.Close(); closeErr == nil {
		closeErr = err
	}

	if runErr != nil {
		_ = os.Remove(tmpPath)
		return nil, e.processError(ctx, e.cfg.MysqldumpPath, runErr, stderr.String())
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("finalize dump file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		_ = os.Remove(tmpPath)
		return nil, fmt.Errorf("publish dump file: %w", err)
	}

	info, err := os.Stat(finalPath)
	if err != nil {
		return nil, err
	}

	e.logger.Info("dump complete",
		zap.String("filename", filename),
		zap.Int64("bytes", info.Size()))

	return &Artifact{
		Filename:       filename,
		SourceDatabase: database,
		ModTime:        info.ModTime(),
		Timestamp:      info.ModTime().Format(displayTimeLayout),
		SizeBytes:      info.Size(),
		Size:           FormatSize(info.Size()),
	}, nil
}

// Restore loads a backup file into the database named by its filename
// prefix. The target database is created if absent; an existing database
// is loaded into without further confirmation.
func (e *Executor) Restore(ctx context.Context, filename string) (string, error) {
	path, err := e.inv.Path(filename)
	if err != nil {
		return "", err
	}

	database := SourceDatabase(filename)
	if database == "Unknown" {
		return "", fmt.Errorf("%w %q: cannot infer target database", ErrBadFilename, filename)
	}
	if err := dbadmin.ValidateName(database); err != nil {
		return "", err
	}
	if err := lookupBinary(e.cfg.MysqlPath); err != nil {
		return "", err
	}

	in, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, filename)
		}
		return "", err
	}
	defer in.Close()

	var stdin io.Reader = in
	if strings.HasSuffix(filename, ".gz") {
		gz, err := gzip.NewReader(in)
		if err != nil {
			return "", fmt.Errorf("open compressed backup: %w", err)
		}
		defer gz.Close()
		stdin = gz
	}

	if err := e.admin.EnsureDatabase(ctx, database); err != nil {
		return "", fmt.Errorf("ensure target database: %w", err)
	}

	ctx, cancel := e.bound(ctx)
	defer cancel()

	args := append(e.connArgs(), database)
	cmd := exec.CommandContext(ctx, e.cfg.MysqlPath, args...)
	cmd.Stdin = stdin
	cmd.Env = e.env()
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	e.logger.Info("starting restore",
		zap.String("filename", filename),
		zap.String("database", database))

	if err := cmd.Run(); err != nil {
		return "", e.processError(ctx, e.cfg.MysqlPath, err, stderr.String())
	}

	e.logger.Info("restore complete", zap.String("database", database))
	return database, nil
}

// bound applies the configured process timeout so a hung dump/load cannot
// block the caller forever.
func (e *Executor) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.ExecTimeout > 0 {
		return context.WithTimeout(ctx, e.cfg.ExecTimeout)
	}
	return context.WithCancel(ctx)
}

func (e *Executor) processError(ctx context.Context, binary string, err error, stderr string) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%s terminated: %w", binary, ctx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ProcessError{
			Binary:   binary,
			ExitCode: exitErr.ExitCode(),
			Stderr:   stderr,
		}
	}
	return fmt.Errorf("run %s: %w", binary, err)
}
