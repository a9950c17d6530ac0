// Package database opens the SQLite files folio keeps under its data directory and
// applies their embedded, versioned schemas.
package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

//go:embed schemas/*.sql
var schemas embed.FS

// DatabaseProfile selects durability PRAGMAs and pool sizes
type DatabaseProfile string

const (
	// ProfileCache trades durability for speed; contents can be refetched
	ProfileCache DatabaseProfile = "cache"
	// ProfileStandard fsyncs at checkpoints
	ProfileStandard DatabaseProfile = "standard"
)

type profileSettings struct {
	synchronous string
	autoVacuum  string
	maxOpen     int
	maxIdle     int
}

var profiles = map[DatabaseProfile]profileSettings{
	ProfileCache:    {synchronous: "OFF", autoVacuum: "FULL", maxOpen: 10, maxIdle: 2},
	ProfileStandard: {synchronous: "NORMAL", autoVacuum: "INCREMENTAL", maxOpen: 25, maxIdle: 5},
}

// migrations lists schema files per database name in the order they apply.
// Index i brings the database to user_version i+1.
var migrations = map[string][]string{
	"client_data": {
		"schemas/client_data_001_init.sql",
	},
}

// DB is an open SQLite database with a name used in logs and migrations
type DB struct {
	conn    *sql.DB
	path    string
	profile DatabaseProfile
	name    string
}

// Config holds database configuration
type Config struct {
	Path    string
	Profile DatabaseProfile
	Name    string // selects the migration set, e.g. "client_data"
}

// Stats describes a database for health reporting
type Stats struct {
	Name          string `json:"name"`
	SchemaVersion int    `json:"schemaVersion"`
	SizeBytes     int64  `json:"sizeBytes"`
	FreePages     int64  `json:"freePages"`
}

// New opens a database. Paths starting with "file:" are used as-is, which is how
// tests get in-memory databases.
func New(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path to absolute: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}
	settings, ok := profiles[cfg.Profile]
	if !ok {
		return nil, fmt.Errorf("unknown database profile %q", cfg.Profile)
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	conn.SetMaxOpenConns(settings.maxOpen)
	conn.SetMaxIdleConns(settings.maxIdle)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{
		conn:    conn,
		path:    cfg.Path,
		profile: cfg.Profile,
		name:    cfg.Name,
	}, nil
}

// buildConnectionString appends the profile's PRAGMAs to path
func buildConnectionString(path string, profile DatabaseProfile) string {
	settings := profiles[profile]

	pragmas := []string{
		"journal_mode(WAL)",
		"synchronous(" + settings.synchronous + ")",
		"auto_vacuum(" + settings.autoVacuum + ")",
		"temp_store(MEMORY)",
		"wal_autocheckpoint(1000)",
		"busy_timeout(5000)",
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=" + strings.Join(pragmas, "&_pragma=")
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Name returns the database name for logging
func (db *DB) Name() string {
	return db.name
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// SchemaVersion reads PRAGMA user_version
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version of %s: %w", db.name, err)
	}
	return v, nil
}

// Migrate applies the embedded schema files this database has not seen yet, each in
// its own transaction that also bumps user_version. Unknown names are skipped.
func (db *DB) Migrate() error {
	files, ok := migrations[db.name]
	if !ok {
		return nil
	}

	current, err := db.SchemaVersion()
	if err != nil {
		return err
	}

	for i := current; i < len(files); i++ {
		if err := db.apply(files[i], i+1); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) apply(file string, version int) error {
	content, err := schemas.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read schema %s: %w", file, err)
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for schema %s: %w", file, err)
	}
	if _, err := tx.Exec(string(content)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to execute schema %s for %s: %w", file, db.name, err)
	}
	// PRAGMA does not take bind parameters
	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", version)); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to set schema version %d for %s: %w", version, db.name, err)
	}
	return tx.Commit()
}

// HealthCheck pings the database and runs PRAGMA quick_check
func (db *DB) HealthCheck(ctx context.Context) error {
	if err := db.conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed for %s: %w", db.name, err)
	}

	var result string
	if err := db.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check query failed for %s: %w", db.name, err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed for %s: %s", db.name, result)
	}
	return nil
}

// Stats reports schema version and on-disk size
func (db *DB) Stats(ctx context.Context) (Stats, error) {
	s := Stats{Name: db.name}

	var pageSize, pageCount int64
	queries := []struct {
		pragma string
		dst    interface{}
	}{
		{"PRAGMA user_version", &s.SchemaVersion},
		{"PRAGMA page_size", &pageSize},
		{"PRAGMA page_count", &pageCount},
		{"PRAGMA freelist_count", &s.FreePages},
	}
	for _, q := range queries {
		if err := db.conn.QueryRowContext(ctx, q.pragma).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("%s failed for %s: %w", q.pragma, db.name, err)
		}
	}

	s.SizeBytes = pageSize * pageCount
	return s, nil
}

// WALCheckpoint runs PRAGMA wal_checkpoint; mode is PASSIVE, FULL, RESTART or
// TRUNCATE (the default).
func (db *DB) WALCheckpoint(mode string) error {
	if mode == "" {
		mode = "TRUNCATE"
	}

	if _, err := db.conn.Exec(fmt.Sprintf("PRAGMA wal_checkpoint(%s)", mode)); err != nil {
		return fmt.Errorf("WAL checkpoint failed for %s: %w", db.name, err)
	}
	return nil
}

// CheckpointJob truncates the WAL on a schedule
type CheckpointJob struct {
	db  *DB
	log zerolog.Logger
}

// NewCheckpointJob creates a new WAL checkpoint job
func NewCheckpointJob(db *DB, log zerolog.Logger) *CheckpointJob {
	return &CheckpointJob{
		db:  db,
		log: log.With().Str("job", "wal_checkpoint").Logger(),
	}
}

// Run executes the checkpoint
func (j *CheckpointJob) Run() error {
	if err := j.db.WALCheckpoint("TRUNCATE"); err != nil {
		j.log.Error().Err(err).Msg("WAL checkpoint failed")
		return err
	}
	j.log.Debug().Str("database", j.db.Name()).Msg("WAL checkpoint completed")
	return nil
}

// Name returns the job name for scheduling and logging.
func (j *CheckpointJob) Name() string {
	return "wal_checkpoint"
}
